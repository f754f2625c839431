// Package api exposes the REST surface consumed by the NexTrack client.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextrack/nextrack/internal/auth"
	"github.com/nextrack/nextrack/internal/notify"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Auth     *auth.Service
	Notifier notify.Notifier // nil disables outbound notifications
	Host     string
	Port     int
	Out      io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Auth == nil {
		return fmt.Errorf("api: auth service is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.DB, opts.Auth, opts.Notifier)

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "NexTrack API listening on %s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with all routes registered. Split out of
// Start so tests can drive it with httptest.
func NewRouter(db *gorm.DB, authSvc *auth.Service, notifier notify.Notifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{db: db, auth: authSvc, notifier: notifier}
	h.register(router)
	return router
}
