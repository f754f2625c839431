package team

import (
	"strings"
	"testing"

	"github.com/nextrack/nextrack/internal/models"
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

func seed(t *testing.T, db *gorm.DB) (models.User, models.Project) {
	t.Helper()
	user := models.User{Name: "Dana", Email: "dana@example.com", PasswordHash: "x", AvailableHours: 40, Active: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := models.Project{Name: "Apollo", Status: "active"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return user, project
}

func TestAddMember(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)

	warning, err := AddMember(db, project.ID, user.ID, 20)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if warning != "" {
		t.Errorf("warning = %q, want none at 20/40h", warning)
	}

	members, err := ListMembers(db, project.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].AllocatedHours != 20 {
		t.Errorf("members = %v, want Dana at 20h", members)
	}
}

func TestAddMember_OverallocationWarns(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)
	other := models.Project{Name: "Borealis", Status: "active"}
	db.Create(&other)

	if _, err := AddMember(db, project.ID, user.ID, 30); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	warning, err := AddMember(db, other.ID, user.ID, 25)
	if err != nil {
		t.Fatalf("AddMember second project: %v", err)
	}
	if warning == "" {
		t.Fatal("expected overallocation warning at 55/40h")
	}
	if !strings.Contains(warning, "55.0h") || !strings.Contains(warning, "40.0h") {
		t.Errorf("warning = %q, want totals in the message", warning)
	}

	// The assignment still went through.
	members, _ := ListMembers(db, other.ID)
	if len(members) != 1 {
		t.Errorf("overallocation must not block the assignment")
	}
}

func TestAddMember_Validation(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)

	if _, err := AddMember(db, project.ID, user.ID, 0); err == nil {
		t.Error("expected error for zero allocation")
	}
	if _, err := AddMember(db, project.ID, 9999, 10); err == nil {
		t.Error("expected error for unknown user")
	}
	if _, err := AddMember(db, 9999, user.ID, 10); err == nil {
		t.Error("expected error for unknown project")
	}

	if _, err := AddMember(db, project.ID, user.ID, 10); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := AddMember(db, project.ID, user.ID, 10); err == nil {
		t.Error("expected error for duplicate assignment")
	}
}

func TestUpdateAllocation(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)
	if _, err := AddMember(db, project.ID, user.ID, 10); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	warning, err := UpdateAllocation(db, project.ID, user.ID, 45)
	if err != nil {
		t.Fatalf("UpdateAllocation: %v", err)
	}
	if warning == "" {
		t.Error("expected overallocation warning at 45/40h")
	}

	members, _ := ListMembers(db, project.ID)
	if members[0].AllocatedHours != 45 {
		t.Errorf("AllocatedHours = %v, want 45", members[0].AllocatedHours)
	}

	if _, err := UpdateAllocation(db, project.ID, 9999, 10); err == nil {
		t.Error("expected error for non-member")
	}
}

func TestRemoveMember(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)
	if _, err := AddMember(db, project.ID, user.ID, 10); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	db.Create(&models.Task{Name: "open", Status: "in_progress", ProjectID: project.ID, AssigneeID: user.ID})
	if err := RemoveMember(db, project.ID, user.ID); err == nil {
		t.Fatal("expected refusal while tasks are open")
	}

	db.Model(&models.Task{}).Where("assignee_id = ?", user.ID).Update("status", "completed")
	if err := RemoveMember(db, project.ID, user.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := RemoveMember(db, project.ID, user.ID); err == nil {
		t.Error("expected error removing twice")
	}
}

func TestAvailableUsers(t *testing.T) {
	db := testDB(t)
	user, project := seed(t, db)
	outsider := models.User{Name: "Arlo", Email: "arlo@example.com", PasswordHash: "x", Active: true}
	db.Create(&outsider)
	inactive := models.User{Name: "Zed", Email: "zed@example.com", PasswordHash: "x", Active: false}
	db.Create(&inactive)

	if _, err := AddMember(db, project.ID, user.ID, 10); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	avail, err := AvailableUsers(db, project.ID)
	if err != nil {
		t.Fatalf("AvailableUsers: %v", err)
	}
	if len(avail) != 1 || avail[0].ID != outsider.ID {
		t.Errorf("available = %v, want just Arlo (member and inactive excluded)", avail)
	}
}
