package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nextrack/nextrack/internal/board"
	"github.com/nextrack/nextrack/internal/task"
	"github.com/nextrack/nextrack/internal/workload"
	"github.com/spf13/cobra"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskBlockCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskBoardCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		taskType    string
		priority    int
		projectID   uint
		assigneeID  uint
		planned     float64
		due         string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long:  "Creates a task. With a due date, the assignee's workload for that week is evaluated and any warnings are printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDateFlag(due)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			t, eval, err := task.Create(gormDB, task.CreateOpts{
				Name:         name,
				Description:  description,
				TaskType:     taskType,
				Priority:     priority,
				ProjectID:    projectID,
				AssigneeID:   assigneeID,
				PlannedHours: planned,
				DueDate:      dueDate,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created task %d (%s)\n", t.ID, t.Name)
			printEvaluation(cmd, eval)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "task name (required)")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&taskType, "type", "feature", "task type (feature, bugfix, docs, chore)")
	cmd.Flags().IntVar(&priority, "priority", 3, "priority (1=most urgent .. 4)")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.Flags().UintVar(&assigneeID, "assignee", 0, "assignee user ID (required)")
	cmd.Flags().Float64Var(&planned, "hours", 0, "planned hours (required)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("assignee")
	cmd.MarkFlagRequired("hours")
	return cmd
}

// printEvaluation renders workload warnings after a create.
func printEvaluation(cmd *cobra.Command, eval *workload.Evaluation) {
	if eval == nil {
		return
	}
	out := cmd.OutOrStdout()
	if eval.Level != workload.LevelNone {
		fmt.Fprintf(out, "Workload warning level: %s\n", eval.Level)
	}
	for _, w := range eval.Warnings {
		fmt.Fprintf(out, "  - %s\n", w)
	}
	fmt.Fprintf(out, "Week utilization: %.1f%% (%s of %s, %s free)\n",
		eval.Snapshot.UtilizationPct,
		formatHours(eval.Snapshot.TotalHours),
		formatHours(eval.Snapshot.Capacity),
		formatHours(eval.Snapshot.AvailableHours))
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
		assigneeID uint
		status     string
		priority   int
		taskType   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			tasks, err := task.List(gormDB, task.ListFilters{
				ProjectID:  projectID,
				AssigneeID: assigneeID,
				Status:     status,
				Priority:   priority,
				TaskType:   taskType,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRI\tTYPE\tHOURS\tDUE\tWARN")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					t.ID, truncate(t.Name, 40), t.Status, t.Priority, t.TaskType,
					formatHours(t.PlannedHours), formatDate(t.DueDate), formatWarning(t.WarningLevel))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "filter by project ID")
	cmd.Flags().UintVar(&assigneeID, "assignee", 0, "filter by assignee ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&priority, "priority", 0, "filter by priority")
	cmd.Flags().StringVar(&taskType, "type", "", "filter by type")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			t, err := task.Get(gormDB, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %d\n", t.ID)
			fmt.Fprintf(out, "Name:      %s\n", t.Name)
			fmt.Fprintf(out, "Status:    %s\n", t.Status)
			fmt.Fprintf(out, "Priority:  %d\n", t.Priority)
			fmt.Fprintf(out, "Type:      %s\n", t.TaskType)
			fmt.Fprintf(out, "Project:   %s (%d)\n", t.Project.Name, t.ProjectID)
			fmt.Fprintf(out, "Assignee:  %s (%d)\n", t.Assignee.Name, t.AssigneeID)
			fmt.Fprintf(out, "Planned:   %s\n", formatHours(t.PlannedHours))
			fmt.Fprintf(out, "Due:       %s\n", formatDate(t.DueDate))
			if t.WarningLevel != "" && t.WarningLevel != "none" {
				fmt.Fprintf(out, "Warning:   %s (%.1f%% utilization at creation)\n", t.WarningLevel, t.UtilizationPct)
			}
			if t.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", t.Description)
			}
			if t.Status == task.StatusBlocked && t.WorkDescription != "" {
				fmt.Fprintf(out, "\nBlocked: %s\n", t.WorkDescription)
				if t.WaitingOn != nil {
					fmt.Fprintf(out, "Waiting on user %d\n", *t.WaitingOn)
				}
			}
			if t.Status == task.StatusCompleted {
				fmt.Fprintf(out, "\nActual:    %s (%s)\n",
					formatHours(t.ActualHours), task.HoursVariance(t.ActualHours, t.PlannedHours))
				if t.ProductivityRating > 0 {
					fmt.Fprintf(out, "Rating:    %d/5\n", t.ProductivityRating)
				}
				if t.WorkDescription != "" {
					fmt.Fprintf(out, "Notes:     %s\n", t.WorkDescription)
				}
				if t.Attachments != "" {
					fmt.Fprintln(out, "Links:")
					for _, l := range strings.Split(t.Attachments, "\n") {
						fmt.Fprintf(out, "  %s\n", l)
					}
				}
				if t.CompletedAt != nil {
					fmt.Fprintf(out, "Completed: %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		priority    int
		planned     float64
		due         string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Long:  "Updates plain task fields. Status changes go through move, block, or complete.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			updates := make(map[string]interface{})
			if cmd.Flags().Changed("name") {
				updates["name"] = name
			}
			if cmd.Flags().Changed("description") {
				updates["description"] = description
			}
			if cmd.Flags().Changed("priority") {
				updates["priority"] = priority
			}
			if cmd.Flags().Changed("hours") {
				updates["planned_hours"] = planned
			}
			if cmd.Flags().Changed("due") {
				d, err := parseDateFlag(due)
				if err != nil {
					return err
				}
				updates["due_date"] = d
			}
			if len(updates) == 0 {
				return fmt.Errorf("no fields to update; use --name, --description, --priority, --hours, or --due")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := task.Update(gormDB, id, updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().IntVar(&priority, "priority", 0, "new priority")
	cmd.Flags().Float64Var(&planned, "hours", 0, "new planned hours")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to todo or in_progress",
		Long:  "Moves a task to an ungated column. Use block or complete for the gated ones.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			changed, err := task.Transition(gormDB, id, task.TransitionOpts{To: args[1]})
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d is already %s\n", id, args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %d to %s\n", id, args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newTaskBlockCmd() *cobra.Command {
	var (
		configPath string
		reason     string
		waitingOn  uint
	)

	cmd := &cobra.Command{
		Use:   "block <id>",
		Short: "Mark a task blocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			details := &task.BlockDetails{Reason: reason}
			if waitingOn != 0 {
				details.WaitingOn = &waitingOn
			}
			if _, err := task.Transition(gormDB, id, task.TransitionOpts{
				To:    task.StatusBlocked,
				Block: details,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blocked task %d: %s\n", id, reason)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&reason, "reason", "", "block reason (required)")
	cmd.Flags().UintVar(&waitingOn, "waiting-on", 0, "user ID the task is waiting on")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	var (
		configPath string
		actual     float64
		comments   string
		links      []string
		rating     int
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task completed",
		Long:  "Completes a task, recording actual hours, notes, links, and a productivity rating.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if _, err := task.Transition(gormDB, id, task.TransitionOpts{
				To: task.StatusCompleted,
				Completion: &task.CompletionDetails{
					ActualHours:        actual,
					Comments:           comments,
					Links:              links,
					ProductivityRating: rating,
				},
			}); err != nil {
				return err
			}

			t, err := task.Get(gormDB, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d: %s vs %s planned (%s)\n",
				id, formatHours(t.ActualHours), formatHours(t.PlannedHours),
				task.HoursVariance(t.ActualHours, t.PlannedHours))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().Float64Var(&actual, "hours", 0, "actual hours spent (required)")
	cmd.Flags().StringVar(&comments, "comments", "", "completion notes")
	cmd.Flags().StringSliceVar(&links, "link", nil, "related link (repeatable)")
	cmd.Flags().IntVar(&rating, "rating", 0, "productivity rating (1..5)")
	cmd.MarkFlagRequired("hours")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("deleting task %d is permanent; rerun with --yes to confirm", id)
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := task.Delete(gormDB, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newTaskBoardCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
		assigneeID uint
		search     string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks as a Kanban board",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			tasks, err := task.List(gormDB, task.ListFilters{ProjectID: projectID})
			if err != nil {
				return err
			}
			tasks = board.Apply(tasks, board.Filters{AssigneeID: assigneeID, Search: search})

			out := cmd.OutOrStdout()
			for _, col := range board.Columns(tasks) {
				fmt.Fprintf(out, "%s (%d)\n", strings.ToUpper(col.Status), len(col.Tasks))
				for _, t := range col.Tasks {
					warn := ""
					if t.WarningLevel == "critical" || t.WarningLevel == "high" {
						warn = " [" + t.WarningLevel + "]"
					}
					fmt.Fprintf(out, "  #%d %s (P%d, %s)%s\n",
						t.ID, truncate(t.Name, 50), t.Priority, formatHours(t.PlannedHours), warn)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "filter by project ID")
	cmd.Flags().UintVar(&assigneeID, "assignee", 0, "filter by assignee ID")
	cmd.Flags().StringVar(&search, "search", "", "search name and description")
	return cmd
}
