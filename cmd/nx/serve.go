package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/nextrack/nextrack/internal/api"
	"github.com/nextrack/nextrack/internal/auth"
	"github.com/nextrack/nextrack/internal/config"
	"github.com/nextrack/nextrack/internal/db"
	"github.com/nextrack/nextrack/internal/digest"
	"github.com/nextrack/nextrack/internal/notify"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the NexTrack API server",
		Long:  "Serves the REST API, and when notification channels are configured, the weekly workload digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	authSvc := auth.New(gormDB, cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours)
	notifier := buildNotifier(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if notifier != nil && cfg.Digest.Schedule != "" {
		sched, err := digest.NewScheduler(gormDB, notifier, cfg.Digest.Schedule)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	return api.Start(ctx, api.StartOpts{
		DB:       gormDB,
		Auth:     authSvc,
		Notifier: notifier,
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Out:      cmd.OutOrStdout(),
	})
}

// buildNotifier wires up the configured chat destinations. Returns nil when
// none are configured.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Notify.Slack.BotToken != "" {
		s, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err == nil {
			notifiers = append(notifiers, s)
		}
	}
	if cfg.Notify.Discord.BotToken != "" {
		d, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err == nil {
			notifiers = append(notifiers, d)
		}
	}

	if len(notifiers) == 0 {
		return nil
	}
	return notify.NewFanout(notifiers...)
}

// connectFromConfig loads config and returns a GORM DB connection.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	return cfg, gormDB, nil
}
