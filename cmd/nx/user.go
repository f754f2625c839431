package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nextrack/nextrack/internal/user"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User account commands",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserShowCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeactivateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		password   string
		role       string
		hours      float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if password == "" {
				password, err = promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
			}

			u, err := user.Create(gormDB, user.CreateOpts{
				Name:           name,
				Email:          email,
				Password:       password,
				Role:           role,
				AvailableHours: hours,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "employee", "role (admin, manager, employee)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "weekly capacity in hours (default 40)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			users, err := user.List(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tCAPACITY\tACTIVE")
			for _, u := range users {
				active := "yes"
				if !u.Active {
					active = "no"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					u.ID, truncate(u.Name, 30), u.Email, u.Role, formatHours(u.AvailableHours), active)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newUserShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user with their tasks and projects",
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

			u, err := user.Get(gormDB, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %d\n", u.ID)
			fmt.Fprintf(out, "Name:     %s\n", u.Name)
			fmt.Fprintf(out, "Email:    %s\n", u.Email)
			fmt.Fprintf(out, "Role:     %s\n", u.Role)
			fmt.Fprintf(out, "Capacity: %s/week\n", formatHours(u.AvailableHours))
			fmt.Fprintf(out, "Active:   %v\n", u.Active)

			projects, err := user.Projects(gormDB, id)
			if err != nil {
				return err
			}
			if len(projects) > 0 {
				fmt.Fprintln(out, "\nProjects:")
				for _, p := range projects {
					fmt.Fprintf(out, "  %d  %s (%s)\n", p.ID, p.Name, p.Status)
				}
			}

			tasks, err := user.Tasks(gormDB, id)
			if err != nil {
				return err
			}
			if len(tasks) > 0 {
				fmt.Fprintln(out, "\nTasks:")
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "  ID\tNAME\tSTATUS\tPRI\tDUE\tWARN")
				for _, t := range tasks {
					fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t%s\t%s\n",
						t.ID, truncate(t.Name, 40), t.Status, t.Priority,
						formatDate(t.DueDate), formatWarning(t.WarningLevel))
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		role       string
		hours      float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user account",
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
			if cmd.Flags().Changed("email") {
				updates["email"] = email
			}
			if cmd.Flags().Changed("role") {
				updates["role"] = role
			}
			if cmd.Flags().Changed("hours") {
				updates["available_hours_per_week"] = hours
			}
			if len(updates) == 0 {
				return fmt.Errorf("no fields to update; use --name, --email, --role, or --hours")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := user.Update(gormDB, id, updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&role, "role", "", "new role")
	cmd.Flags().Float64Var(&hours, "hours", 0, "new weekly capacity")
	return cmd
}

func newUserDeactivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a user account",
		Long:  "Marks the account inactive. Users with unfinished tasks must be reassigned first.",
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
			if err := user.Deactivate(gormDB, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated user %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read otherwise (tests, pipes).
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	var pw string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &pw); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
