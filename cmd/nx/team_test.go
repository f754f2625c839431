package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTeamCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"team", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("team --help failed: %v", err)
	}

	out := buf.String()
	for _, sub := range []string{"add", "list", "update", "remove", "available"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestNewTeamAddCmd(t *testing.T) {
	cmd := newTeamAddCmd()
	if cmd.Use != "add <project-id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "add <project-id>")
	}
	if cmd.Flags().Lookup("user") == nil {
		t.Error("expected --user flag")
	}
	if cmd.Flags().Lookup("hours") == nil {
		t.Error("expected --hours flag")
	}
}

func TestTeamAddCmd_MissingFlags(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"team", "add", "1"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing --user and --hours")
	}
}

func TestTeamAddCmd_NoArgs(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"team", "add", "--user", "1", "--hours", "20"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing project id arg")
	}
}

func TestNewTeamRemoveCmd(t *testing.T) {
	cmd := newTeamRemoveCmd()
	if cmd.Use != "remove <project-id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "remove <project-id>")
	}
	if cmd.Flags().Lookup("user") == nil {
		t.Error("expected --user flag")
	}
}

func TestTeamListCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"team", "list", "1", "--config", "/nonexistent/nextrack.yaml"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}

func TestNewTeamAvailableCmd(t *testing.T) {
	cmd := newTeamAvailableCmd()
	if cmd.Use != "available <project-id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "available <project-id>")
	}
}
