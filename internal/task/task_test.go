package task

import (
	"strings"
	"testing"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectMember{}, &models.Task{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// seedProject creates a user, a project, and a membership. Returns IDs.
func seedProject(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	user := models.User{Name: "Dana", Email: "dana@example.com", PasswordHash: "x", AvailableHours: 40}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := models.Project{Name: "Apollo", Status: "active"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	member := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, AllocatedHours: 20}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return user.ID, project.ID
}

func TestCreate_RecordsWorkloadSnapshot(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)

	due := time.Now().AddDate(0, 0, 30)
	created, eval, err := Create(db, CreateOpts{
		Name:         "Implement search",
		ProjectID:    projectID,
		AssigneeID:   userID,
		PlannedHours: 20,
		DueDate:      &due,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if eval == nil {
		t.Fatal("expected a workload evaluation")
	}
	if created.Status != StatusTodo {
		t.Errorf("Status = %q, want todo", created.Status)
	}
	if created.WarningLevel != string(workload.LevelNone) {
		t.Errorf("WarningLevel = %q, want none (50%% utilization)", created.WarningLevel)
	}
	if created.UtilizationPct != 50 {
		t.Errorf("UtilizationPct = %v, want 50", created.UtilizationPct)
	}
	if created.Priority != 3 {
		t.Errorf("default Priority = %d, want 3", created.Priority)
	}
	if created.TaskType != "feature" {
		t.Errorf("default TaskType = %q, want feature", created.TaskType)
	}
}

func TestCreate_CriticalSnapshotPersisted(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)

	due := time.Now().AddDate(0, 0, 3)
	if _, _, err := Create(db, CreateOpts{
		Name: "first", ProjectID: projectID, AssigneeID: userID, PlannedHours: 32, DueDate: &due,
	}); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	created, eval, err := Create(db, CreateOpts{
		Name: "second", ProjectID: projectID, AssigneeID: userID, PlannedHours: 10, DueDate: &due,
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if eval.Level != workload.LevelCritical {
		t.Errorf("Level = %q, want critical", eval.Level)
	}
	if created.WarningLevel != "critical" {
		t.Errorf("WarningLevel = %q, want critical", created.WarningLevel)
	}
	if created.AvailableHours != -2 {
		t.Errorf("AvailableHours = %v, want -2", created.AvailableHours)
	}
	if !strings.Contains(created.Warnings, "overcommitted") {
		t.Errorf("Warnings = %q, want serialized overcommitment warning", created.Warnings)
	}
}

func TestCreate_NoDueDate(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)

	created, eval, err := Create(db, CreateOpts{
		Name: "groom backlog", ProjectID: projectID, AssigneeID: userID, PlannedHours: 4,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if eval != nil {
		t.Error("expected no evaluation without a due date")
	}
	if created.WarningLevel != "none" {
		t.Errorf("WarningLevel = %q, want none", created.WarningLevel)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)

	if _, _, err := Create(db, CreateOpts{ProjectID: projectID, AssigneeID: userID, PlannedHours: 4}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: userID, PlannedHours: 0}); err == nil {
		t.Error("expected error for zero planned hours")
	}
	if _, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: userID, PlannedHours: 4, Priority: 7}); err == nil {
		t.Error("expected error for out-of-range priority")
	}
	if _, _, err := Create(db, CreateOpts{Name: "x", ProjectID: 9999, AssigneeID: userID, PlannedHours: 4}); err == nil {
		t.Error("expected error for unknown project")
	}

	other := models.User{Name: "Eve", Email: "eve@example.com", PasswordHash: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: other.ID, PlannedHours: 4}); err == nil {
		t.Error("expected error for assignee not on project")
	}
}

func TestList_Filters(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)

	for _, opts := range []CreateOpts{
		{Name: "a", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2, Priority: 1},
		{Name: "b", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2, Priority: 2, TaskType: "bugfix"},
		{Name: "c", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2, Priority: 4},
	} {
		if _, _, err := Create(db, opts); err != nil {
			t.Fatalf("Create %s: %v", opts.Name, err)
		}
	}

	all, err := List(db, ListFilters{ProjectID: projectID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Name != "a" {
		t.Errorf("most urgent first: got %q, want a", all[0].Name)
	}

	bugs, err := List(db, ListFilters{TaskType: "bugfix"})
	if err != nil {
		t.Fatalf("List bugfix: %v", err)
	}
	if len(bugs) != 1 || bugs[0].Name != "b" {
		t.Errorf("bugfix filter = %v, want just b", bugs)
	}

	p1, err := List(db, ListFilters{Priority: 1})
	if err != nil {
		t.Fatalf("List p1: %v", err)
	}
	if len(p1) != 1 || p1[0].Name != "a" {
		t.Errorf("priority filter = %v, want just a", p1)
	}
}

func TestUpdate_RejectsStatus(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)
	created, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = Update(db, created.ID, map[string]interface{}{"status": StatusCompleted})
	if err == nil {
		t.Fatal("expected error when updating status directly")
	}
	if !strings.Contains(err.Error(), "transition") {
		t.Errorf("error = %q, want to mention transitions", err.Error())
	}
}

func TestUpdate_Fields(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)
	created, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := Update(db, created.ID, map[string]interface{}{"name": "renamed", "priority": 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := Get(db, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "renamed" || got.Priority != 1 {
		t.Errorf("got name=%q priority=%d, want renamed/1", got.Name, got.Priority)
	}

	if err := Update(db, created.ID, map[string]interface{}{"priority": 9}); err == nil {
		t.Error("expected error for out-of-range priority")
	}
	if err := Update(db, 9999, map[string]interface{}{"name": "y"}); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedProject(t, db)
	created, _, err := Create(db, CreateOpts{Name: "x", ProjectID: projectID, AssigneeID: userID, PlannedHours: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := Delete(db, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(db, created.ID); err == nil {
		t.Error("expected not-found after delete")
	}
	if err := Delete(db, created.ID); err == nil {
		t.Error("expected error deleting twice")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("ValidStatus(archived) = true, want false")
	}
}
