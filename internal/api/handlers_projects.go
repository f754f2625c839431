package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextrack/nextrack/internal/board"
	"github.com/nextrack/nextrack/internal/project"
	"github.com/nextrack/nextrack/internal/task"
	"github.com/nextrack/nextrack/internal/team"
)

func (h *handlers) listProjects(c *gin.Context) {
	projects, err := project.List(h.db, project.ListFilters{Status: c.Query("status")})
	if err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type createProjectRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Budget         float64    `json:"budget"`
	EstimatedHours float64    `json:"estimated_hours"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
}

func (h *handlers) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	p, err := project.Create(h.db, project.CreateOpts{
		Name:           req.Name,
		Description:    req.Description,
		Budget:         req.Budget,
		EstimatedHours: req.EstimatedHours,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	})
	if err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *handlers) getProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := project.Get(h.db, id)
	if err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *handlers) updateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	if err := project.Update(h.db, id, updates); err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) deleteProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := project.Delete(h.db, id); err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) projectStats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	stats, err := project.GetStats(h.db, id)
	if err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// projectBoard returns the project's tasks grouped into Kanban columns.
// Query-string filters are applied in memory before grouping.
func (h *handlers) projectBoard(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := project.Get(h.db, id); err != nil {
		svcError(c, "project", err)
		return
	}

	tasks, err := task.List(h.db, task.ListFilters{ProjectID: id})
	if err != nil {
		serverError(c, err)
		return
	}

	filters := board.Filters{
		Search:   c.Query("search"),
		TaskType: c.Query("type"),
		Status:   c.Query("status"),
	}
	if v, err := paramQueryUint(c, "assignee"); err == nil {
		filters.AssigneeID = v
	}
	if v, err := paramQueryInt(c, "priority"); err == nil {
		filters.Priority = v
	}
	if due := c.Query("due_before"); due != "" {
		if t, err := time.Parse("2006-01-02", due); err == nil {
			filters.DueBefore = &t
		}
	}

	c.JSON(http.StatusOK, gin.H{"columns": board.Columns(board.Apply(tasks, filters))})
}

func (h *handlers) listTeam(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	members, err := team.ListMembers(h.db, id)
	if err != nil {
		svcError(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type teamMemberRequest struct {
	UserID         uint    `json:"user_id"`
	AllocatedHours float64 `json:"allocated_hours_per_week"`
}

func (h *handlers) addTeamMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	warning, err := team.AddMember(h.db, id, req.UserID, req.AllocatedHours)
	if err != nil {
		svcError(c, "team", err)
		return
	}

	resp := gin.H{"status": "ok"}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handlers) updateTeamMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	warning, err := team.UpdateAllocation(h.db, id, userID, req.AllocatedHours)
	if err != nil {
		svcError(c, "team", err)
		return
	}

	resp := gin.H{"status": "ok"}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) removeTeamMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}
	if err := team.RemoveMember(h.db, id, userID); err != nil {
		svcError(c, "team", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) availableTeamMembers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	users, err := team.AvailableUsers(h.db, id)
	if err != nil {
		svcError(c, "team", err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}
