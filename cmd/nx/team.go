package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nextrack/nextrack/internal/team"
	"github.com/spf13/cobra"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Project team assignment commands",
	}

	cmd.AddCommand(newTeamAddCmd())
	cmd.AddCommand(newTeamListCmd())
	cmd.AddCommand(newTeamUpdateCmd())
	cmd.AddCommand(newTeamRemoveCmd())
	cmd.AddCommand(newTeamAvailableCmd())
	return cmd
}

func newTeamAddCmd() *cobra.Command {
	var (
		configPath string
		userID     uint
		hours      float64
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Assign a user to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			warning, err := team.AddMember(gormDB, projectID, userID, hours)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Assigned user %d to project %d at %s/week\n", userID, projectID, formatHours(hours))
			if warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "allocated hours per week (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("hours")
	return cmd
}

func newTeamListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			members, err := team.ListMembers(gormDB, projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(members) == 0 {
				fmt.Fprintln(out, "No team members.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tNAME\tROLE\tALLOCATED\tCAPACITY")
			for _, m := range members {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					m.UserID, truncate(m.Name, 30), m.Role,
					formatHours(m.AllocatedHours), formatHours(m.AvailableHours))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newTeamUpdateCmd() *cobra.Command {
	var (
		configPath string
		userID     uint
		hours      float64
	)

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Change a member's weekly allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			warning, err := team.UpdateAllocation(gormDB, projectID, userID, hours)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated allocation for user %d to %s/week\n", userID, formatHours(hours))
			if warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "new allocated hours per week (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("hours")
	return cmd
}

func newTeamRemoveCmd() *cobra.Command {
	var (
		configPath string
		userID     uint
	)

	cmd := &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Remove a user from a project",
		Long:  "Removes a team assignment. Refused while the user has unfinished tasks on the project.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := team.RemoveMember(gormDB, projectID, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %d from project %d\n", userID, projectID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newTeamAvailableCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "available <project-id>",
		Short: "List users not yet on the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			users, err := team.AvailableUsers(gormDB, projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No available users.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCAPACITY")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					u.ID, truncate(u.Name, 30), u.Email, formatHours(u.AvailableHours))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}
