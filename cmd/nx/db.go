package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/nextrack/nextrack/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath    string
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the NexTrack database",
		Long:  "Migrates all tables and seeds the initial admin account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, adminEmail, adminPassword)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "initial admin email (required)")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "initial admin password (prompted when omitted)")
	cmd.MarkFlagRequired("admin-email")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath, adminEmail, adminPassword string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database %q\n", cfg.DB.Driver, databaseName(cfg.DB.Driver, cfg.DB.Database, cfg.DB.Path))

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if adminPassword == "" {
		adminPassword, err = promptPassword(cmd, "Admin password: ")
		if err != nil {
			return err
		}
	}
	if err := db.SeedAdmin(gormDB, adminEmail, adminPassword); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded admin account %s\n", adminEmail)

	fmt.Fprintln(out, "\nNexTrack database initialized successfully.")
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-create all NexTrack tables",
		Long:  "Drops every NexTrack table and re-runs the migrations. All data is lost.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nextrack.yaml", "path to NexTrack config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	name := databaseName(cfg.DB.Driver, cfg.DB.Database, cfg.DB.Path)

	if !skipConfirm && !confirmReset(cmd, name) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	fmt.Fprintf(out, "Dropped all tables in %q\n", name)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nNexTrack database reset successfully.")
	return nil
}

func databaseName(driver, database, path string) string {
	if driver == "sqlite" {
		return path
	}
	return database
}

func confirmReset(cmd *cobra.Command, name string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %q.\n", name)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
