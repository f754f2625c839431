package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nextrack/nextrack/internal/auth"
	"github.com/nextrack/nextrack/internal/notify"
	"github.com/nextrack/nextrack/internal/user"
	"gorm.io/gorm"
)

// handlers carries the shared dependencies of all route handlers.
type handlers struct {
	db       *gorm.DB
	auth     *auth.Service
	notifier notify.Notifier
}

// register sets up all API routes on the gin router.
func (h *handlers) register(router *gin.Engine) {
	// Public auth endpoints.
	router.POST("/api/auth/login", h.login)
	router.POST("/api/auth/password/reset", h.requestPasswordReset)
	router.POST("/api/auth/password/reset/confirm", h.confirmPasswordReset)

	authed := router.Group("/api", h.auth.RequireAuth())
	{
		authed.POST("/auth/password/change", h.changePassword)

		admin := auth.RequireRole(user.RoleAdmin)
		manage := auth.RequireRole(user.RoleAdmin, user.RoleManager)

		authed.GET("/users", h.listUsers)
		authed.POST("/users", admin, h.createUser)
		authed.GET("/users/:id", h.getUser)
		authed.PATCH("/users/:id", admin, h.updateUser)
		authed.DELETE("/users/:id", admin, h.deactivateUser)
		authed.GET("/users/:id/tasks", h.userTasks)
		authed.GET("/users/:id/projects", h.userProjects)

		authed.GET("/projects", h.listProjects)
		authed.POST("/projects", manage, h.createProject)
		authed.GET("/projects/:id", h.getProject)
		authed.PATCH("/projects/:id", manage, h.updateProject)
		authed.DELETE("/projects/:id", manage, h.deleteProject)
		authed.GET("/projects/:id/stats", h.projectStats)
		authed.GET("/projects/:id/board", h.projectBoard)

		authed.GET("/projects/:id/team", h.listTeam)
		authed.POST("/projects/:id/team", manage, h.addTeamMember)
		authed.PUT("/projects/:id/team/:userID", manage, h.updateTeamMember)
		authed.DELETE("/projects/:id/team/:userID", manage, h.removeTeamMember)
		authed.GET("/projects/:id/team/available", h.availableTeamMembers)

		authed.GET("/tasks", h.listTasks)
		authed.POST("/tasks", h.createTask)
		authed.POST("/tasks/validate-workload", h.validateWorkload)
		authed.GET("/tasks/:id", h.getTask)
		authed.PATCH("/tasks/:id", h.updateTask)
		authed.DELETE("/tasks/:id", h.deleteTask)
		authed.POST("/tasks/:id/transition", h.transitionTask)
	}
}
