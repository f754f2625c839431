package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"gorm.io/gorm"
)

// TransitionKind describes what a status transition needs before it commits.
type TransitionKind int

const (
	// TransitionNoOp: source equals target; nothing happens, no DB write.
	TransitionNoOp TransitionKind = iota
	// TransitionDirect: plain status update (to todo or in_progress).
	TransitionDirect
	// TransitionBlock: requires a non-empty block reason.
	TransitionBlock
	// TransitionComplete: requires completion details (actual hours etc.).
	TransitionComplete
)

// requirements maps each target column to the data a transition into it
// demands. Every column is reachable from every other; only the two gated
// targets carry preconditions.
var requirements = map[string]TransitionKind{
	StatusTodo:       TransitionDirect,
	StatusInProgress: TransitionDirect,
	StatusBlocked:    TransitionBlock,
	StatusCompleted:  TransitionComplete,
}

// Classify resolves the transition table for a (from, to) pair.
func Classify(from, to string) (TransitionKind, error) {
	kind, ok := requirements[to]
	if !ok {
		return 0, fmt.Errorf("task: unknown status %q", to)
	}
	if !ValidStatus(from) {
		return 0, fmt.Errorf("task: unknown status %q", from)
	}
	if from == to {
		return TransitionNoOp, nil
	}
	return kind, nil
}

// BlockDetails is the data collected before a task enters blocked.
type BlockDetails struct {
	Reason    string // required, stored as the work description
	WaitingOn *uint  // optional team member the task is waiting on
}

// CompletionDetails is the data collected before a task enters completed.
type CompletionDetails struct {
	ActualHours        float64 // required
	Comments           string
	Links              []string
	ProductivityRating int // 1..5
}

// TransitionOpts carries the target status plus whatever details the
// transition kind requires.
type TransitionOpts struct {
	To         string
	Block      *BlockDetails
	Completion *CompletionDetails
}

// Transition moves a task to a new column. Gated transitions refuse to
// commit until their details are satisfied, so a cancelled dialog simply
// never calls this and the task is untouched. Returns false when the move
// was a no-op.
func Transition(db *gorm.DB, id uint, opts TransitionOpts) (bool, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("task: not found: %d", id)
		}
		return false, fmt.Errorf("task: get %d: %w", id, err)
	}

	kind, err := Classify(t.Status, opts.To)
	if err != nil {
		return false, err
	}

	updates := map[string]interface{}{"status": opts.To}

	switch kind {
	case TransitionNoOp:
		return false, nil

	case TransitionDirect:
		if t.Status == StatusCompleted {
			updates["completed_at"] = nil
		}

	case TransitionBlock:
		if opts.Block == nil || strings.TrimSpace(opts.Block.Reason) == "" {
			return false, fmt.Errorf("task: a block reason is required")
		}
		updates["work_description"] = opts.Block.Reason
		updates["waiting_on"] = opts.Block.WaitingOn

	case TransitionComplete:
		c := opts.Completion
		if c == nil || c.ActualHours <= 0 {
			return false, fmt.Errorf("task: actual hours are required to complete a task")
		}
		if c.ProductivityRating < 0 || c.ProductivityRating > 5 {
			return false, fmt.Errorf("task: productivity rating must be between 1 and 5")
		}
		updates["actual_hours"] = c.ActualHours
		updates["work_description"] = c.Comments
		updates["attachments"] = strings.Join(c.Links, "\n")
		updates["productivity_rating"] = c.ProductivityRating
		updates["completed_at"] = time.Now()
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("task: transition %d to %s: %w", id, opts.To, err)
	}
	return true, nil
}
