package workload

import (
	"strings"
	"testing"
	"time"

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

// seedAssignment creates a user with the given capacity, a project, and a
// membership with the given allocation. Returns the user and project IDs.
func seedAssignment(t *testing.T, db *gorm.DB, capacity, allocation float64) (uint, uint) {
	t.Helper()
	user := models.User{Name: "Dana", Email: "dana@example.com", PasswordHash: "x", AvailableHours: capacity}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := models.Project{Name: "Apollo", Status: "active"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	member := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, AllocatedHours: allocation}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return user.ID, project.ID
}

func seedTask(t *testing.T, db *gorm.DB, assigneeID, projectID uint, hours float64, status string, due time.Time) {
	t.Helper()
	task := models.Task{
		Name:         "existing",
		Status:       status,
		ProjectID:    projectID,
		AssigneeID:   assigneeID,
		PlannedHours: hours,
		DueDate:      &due,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
}

func TestWeekBounds(t *testing.T) {
	// Wednesday 2026-08-26 sits in the ISO week Mon 24th .. Sun 30th.
	wed := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(wed)
	if !start.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want Monday 2026-08-24", start)
	}
	if !end.Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want Monday 2026-08-31", end)
	}

	// Sunday belongs to the week that started the previous Monday.
	sun := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
	start, _ = WeekBounds(sun)
	if !start.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("sunday start = %v, want Monday 2026-08-24", start)
	}

	// Monday starts its own week.
	mon := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	start, _ = WeekBounds(mon)
	if !start.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monday start = %v, want itself at midnight", start)
	}
}

func TestWeeksUntil(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		days int
		want int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{5, 1},
		{7, 1},
		{8, 2},
		{14, 2},
		{15, 3},
	}
	for _, tt := range tests {
		due := now.AddDate(0, 0, tt.days)
		if got := weeksUntil(due, now); got != tt.want {
			t.Errorf("weeksUntil(+%dd) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestClassify_Critical_Overcommitted(t *testing.T) {
	// 32h already planned, adding 10h against a 40h capacity.
	s := Snapshot{
		CurrentHours:   32,
		NewTaskHours:   10,
		TotalHours:     42,
		Capacity:       40,
		AvailableHours: -2,
		UtilizationPct: 105,
		WeeksUntilDue:  1,
	}
	level, warnings := Classify(s)
	if level != LevelCritical {
		t.Errorf("level = %q, want critical", level)
	}
	if len(warnings) == 0 || !strings.Contains(warnings[0], "overcommitted") {
		t.Errorf("warnings = %v, want overcommitment first", warnings)
	}
}

func TestClassify_None_LowUtilization(t *testing.T) {
	// 0h planned, adding 20h against 40h capacity: 50%.
	s := Snapshot{
		NewTaskHours:   20,
		TotalHours:     20,
		Capacity:       40,
		AvailableHours: 20,
		UtilizationPct: 50,
		WeeksUntilDue:  4,
	}
	level, warnings := Classify(s)
	if level != LevelNone {
		t.Errorf("level = %q, want none", level)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestClassify_High_MidUtilization(t *testing.T) {
	// 10h planned, adding 15h against 40h capacity: 62.5%.
	s := Snapshot{
		CurrentHours:   10,
		NewTaskHours:   15,
		TotalHours:     25,
		Capacity:       40,
		AvailableHours: 15,
		UtilizationPct: 62.5,
		WeeksUntilDue:  3,
	}
	level, warnings := Classify(s)
	if level != LevelHigh {
		t.Errorf("level = %q, want high", level)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
}

func TestClassify_Boundary60IsHigh(t *testing.T) {
	s := Snapshot{
		TotalHours:     24,
		NewTaskHours:   24,
		Capacity:       40,
		AvailableHours: 16,
		UtilizationPct: 60,
		WeeksUntilDue:  5,
	}
	level, _ := Classify(s)
	if level != LevelHigh {
		t.Errorf("level at exactly 60%% = %q, want high", level)
	}
}

func TestClassify_Boundary100IsHigh(t *testing.T) {
	s := Snapshot{
		TotalHours:     40,
		NewTaskHours:   5,
		CurrentHours:   35,
		Capacity:       40,
		AvailableHours: 0,
		UtilizationPct: 100,
		WeeksUntilDue:  5,
	}
	level, _ := Classify(s)
	if level != LevelHigh {
		t.Errorf("level at exactly 100%% = %q, want high (not critical)", level)
	}
}

func TestClassify_DeadlineWarningDoesNotRaiseLevel(t *testing.T) {
	// Low utilization, but due in under two weeks.
	s := Snapshot{
		NewTaskHours:   8,
		TotalHours:     8,
		Capacity:       40,
		AvailableHours: 32,
		UtilizationPct: 20,
		WeeksUntilDue:  1,
	}
	level, warnings := Classify(s)
	if level != LevelNone {
		t.Errorf("level = %q, want none despite deadline warning", level)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "2 weeks") {
		t.Errorf("warnings = %v, want a single deadline warning", warnings)
	}
}

func TestClassify_AllocationWarningOrder(t *testing.T) {
	// Over both capacity and project allocation, with a near deadline:
	// order must be overload, allocation, deadline.
	s := Snapshot{
		CurrentHours:          30,
		NewTaskHours:          15,
		TotalHours:            45,
		Capacity:              40,
		AvailableHours:        -5,
		UtilizationPct:        112.5,
		AllocatedHours:        20,
		AllocationUtilization: 225,
		WeeksUntilDue:         1,
	}
	level, warnings := Classify(s)
	if level != LevelCritical {
		t.Errorf("level = %q, want critical", level)
	}
	if len(warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", warnings)
	}
	if !strings.Contains(warnings[0], "overcommitted") {
		t.Errorf("warnings[0] = %q, want overload first", warnings[0])
	}
	if !strings.Contains(warnings[1], "allocation") {
		t.Errorf("warnings[1] = %q, want allocation second", warnings[1])
	}
	if !strings.Contains(warnings[2], "2 weeks") {
		t.Errorf("warnings[2] = %q, want deadline last", warnings[2])
	}
}

func TestEvaluate_Scenario_Critical(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 40, 0)

	due := time.Now().AddDate(0, 0, 2)
	seedTask(t, db, userID, projectID, 32, "in_progress", due)

	eval, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 10, DueDate: due})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Level != LevelCritical {
		t.Errorf("Level = %q, want critical", eval.Level)
	}
	if eval.Snapshot.TotalHours != 42 {
		t.Errorf("TotalHours = %v, want 42", eval.Snapshot.TotalHours)
	}
	if eval.Snapshot.UtilizationPct != 105 {
		t.Errorf("UtilizationPct = %v, want 105", eval.Snapshot.UtilizationPct)
	}
	if eval.Snapshot.AvailableHours != -2 {
		t.Errorf("AvailableHours = %v, want -2", eval.Snapshot.AvailableHours)
	}
}

func TestEvaluate_ExcludesCompletedTasks(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 40, 0)

	due := time.Now().AddDate(0, 0, 3)
	seedTask(t, db, userID, projectID, 30, "completed", due)
	seedTask(t, db, userID, projectID, 5, "todo", due)

	eval, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 10, DueDate: due})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Snapshot.CurrentHours != 5 {
		t.Errorf("CurrentHours = %v, want 5 (completed hours are sunk cost)", eval.Snapshot.CurrentHours)
	}
	if eval.Snapshot.CurrentTaskCount != 1 {
		t.Errorf("CurrentTaskCount = %d, want 1", eval.Snapshot.CurrentTaskCount)
	}
}

func TestEvaluate_IgnoresOtherWeeks(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 40, 0)

	due := time.Now().AddDate(0, 0, 2)
	seedTask(t, db, userID, projectID, 38, "todo", due.AddDate(0, 0, 21))

	eval, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 10, DueDate: due})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Snapshot.CurrentHours != 0 {
		t.Errorf("CurrentHours = %v, want 0 (other weeks don't count)", eval.Snapshot.CurrentHours)
	}
}

func TestEvaluate_DefaultCapacity(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 0, 0)

	due := time.Now().AddDate(0, 0, 30)
	eval, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 20, DueDate: due})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Snapshot.Capacity != 40 {
		t.Errorf("Capacity = %v, want default 40", eval.Snapshot.Capacity)
	}
	if eval.Snapshot.UtilizationPct != 50 {
		t.Errorf("UtilizationPct = %v, want 50", eval.Snapshot.UtilizationPct)
	}
	if eval.Level != LevelNone {
		t.Errorf("Level = %q, want none", eval.Level)
	}
}

func TestEvaluate_AllocationUtilization(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 40, 10)

	due := time.Now().AddDate(0, 0, 30)
	eval, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 15, DueDate: due})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Snapshot.AllocatedHours != 10 {
		t.Errorf("AllocatedHours = %v, want 10", eval.Snapshot.AllocatedHours)
	}
	if eval.Snapshot.AllocationUtilization != 150 {
		t.Errorf("AllocationUtilization = %v, want 150", eval.Snapshot.AllocationUtilization)
	}
	found := false
	for _, w := range eval.Warnings {
		if strings.Contains(w, "allocation") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want an allocation warning", eval.Warnings)
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	db := testDB(t)
	userID, projectID := seedAssignment(t, db, 40, 0)
	due := time.Now().AddDate(0, 0, 7)

	if _, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 0, DueDate: due}); err == nil {
		t.Error("expected error for zero planned hours")
	}
	if _, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: projectID, PlannedHours: 5}); err == nil {
		t.Error("expected error for missing due date")
	}
	if _, err := Evaluate(db, Input{AssigneeID: 9999, ProjectID: projectID, PlannedHours: 5, DueDate: due}); err == nil {
		t.Error("expected error for unknown assignee")
	}
	if _, err := Evaluate(db, Input{AssigneeID: userID, ProjectID: 9999, PlannedHours: 5, DueDate: due}); err == nil {
		t.Error("expected error for non-member project")
	}
}
