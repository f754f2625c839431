package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/nextrack/nextrack/internal/project"
	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		budget      float64
		estimated   float64
		start       string
		end         string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := project.CreateOpts{
				Name:           name,
				Description:    description,
				Budget:         budget,
				EstimatedHours: estimated,
			}
			var err error
			if opts.StartDate, err = parseDateFlag(start); err != nil {
				return err
			}
			if opts.EndDate, err = parseDateFlag(end); err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := project.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s)\n", p.ID, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().Float64Var(&budget, "budget", 0, "project budget")
	cmd.Flags().Float64Var(&estimated, "estimated-hours", 0, "estimated total hours")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var (
		configPath string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			projects, err := project.List(gormDB, project.ListFilters{Status: status})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTART\tEND")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					p.ID, truncate(p.Name, 40), p.Status, formatDate(p.StartDate), formatDate(p.EndDate))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show project details and stats",
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

			p, err := project.Get(gormDB, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %d\n", p.ID)
			fmt.Fprintf(out, "Name:        %s\n", p.Name)
			fmt.Fprintf(out, "Status:      %s\n", p.Status)
			if p.Budget > 0 {
				fmt.Fprintf(out, "Budget:      %.2f\n", p.Budget)
			}
			if p.EstimatedHours > 0 {
				fmt.Fprintf(out, "Estimated:   %s\n", formatHours(p.EstimatedHours))
			}
			fmt.Fprintf(out, "Start:       %s\n", formatDate(p.StartDate))
			fmt.Fprintf(out, "End:         %s\n", formatDate(p.EndDate))
			if p.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", p.Description)
			}

			stats, err := project.GetStats(gormDB, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTasks:       %d total (%d todo, %d in progress, %d blocked, %d completed)\n",
				stats.TotalTasks, stats.TodoTasks, stats.InProgress, stats.BlockedTasks, stats.CompletedTasks)
			fmt.Fprintf(out, "Team:        %d member(s)\n", stats.MemberCount)
			fmt.Fprintf(out, "Progress:    %.1f%%\n", stats.Progress)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newProjectUpdateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		status      string
		budget      float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project",
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
			if cmd.Flags().Changed("status") {
				updates["status"] = status
			}
			if cmd.Flags().Changed("budget") {
				updates["budget"] = budget
			}
			if len(updates) == 0 {
				return fmt.Errorf("no fields to update; use --name, --description, --status, or --budget")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := project.Update(gormDB, id, updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status (active, inactive, completed, dropped)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "new budget")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Long:  "Deletes a project with its finished tasks and team assignments. Refused while unfinished tasks remain.",
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
			if err := project.Delete(gormDB, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
