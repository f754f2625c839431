package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/user"
)

// userView is the wire shape of a user, without the password hash.
type userView struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	AvailableHours float64 `json:"available_hours_per_week"`
	DarkTheme      bool    `json:"dark_theme"`
	Active         bool    `json:"active"`
}

func toUserView(u models.User) userView {
	return userView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		AvailableHours: u.AvailableHours,
		DarkTheme:      u.DarkTheme,
		Active:         u.Active,
	}
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := user.List(h.db)
	if err != nil {
		serverError(c, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

type createUserRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Role           string  `json:"role"`
	AvailableHours float64 `json:"available_hours_per_week"`
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	u, err := user.Create(h.db, user.CreateOpts{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		AvailableHours: req.AvailableHours,
	})
	if err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": toUserView(*u)})
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := user.Get(h.db, id)
	if err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserView(*u)})
}

func (h *handlers) updateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	if err := user.Update(h.db, id, updates); err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) deactivateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := user.Deactivate(h.db, id); err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) userTasks(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tasks, err := user.Tasks(h.db, id)
	if err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *handlers) userProjects(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	projects, err := user.Projects(h.db, id)
	if err != nil {
		svcError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}
