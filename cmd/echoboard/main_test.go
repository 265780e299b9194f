package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"serve", "poll", "board", "export", "seed"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q subcommand", sub)
		}
	}
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	if _, err := runCommand(t, "definitely-not-a-command"); err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
}

func TestSeedAndBoard(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("ECHOBOARD_DATA_DIR", dataDir)
	t.Setenv("ECHOBOARD_ADDR", ":0")

	out, err := runCommand(t, "seed")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !strings.Contains(out, "seeded 3 episodes") {
		t.Errorf("unexpected seed output: %q", out)
	}

	out, err = runCommand(t, "board", "--limit", "2")
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}
	if !strings.Contains(out, "Scaling a Two-Person Studio") {
		t.Errorf("board output missing seeded episode: %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("ECHOBOARD_DATA_DIR", dataDir)

	if _, err := runCommand(t, "seed"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	out, err := runCommand(t, "export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "leaderboard.csv") {
		t.Errorf("export output missing csv path: %q", out)
	}
}
