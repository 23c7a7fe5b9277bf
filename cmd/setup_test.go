package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/plst/internal/shared"
	tu "github.com/desertthunder/plst/internal/testing"
)

func TestSetupCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

	t.Run("config", func(t *testing.T) {
		if err := runCLI(runner, "setup", "config", "--config", "config.toml"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, "config.toml")

		output.Reset()
		if err := runCLI(runner, "setup", "config", "--config", "config.toml"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "already exists") {
			t.Errorf("expected existing config to be kept, got %q", output.String())
		}
	})

	t.Run("database and rollback", func(t *testing.T) {
		if err := runCLI(runner, "setup", "database", "--config", "config.toml"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, "plst.db")

		for range 2 {
			if err := runCLI(runner, "setup", "rollback", "--config", "config.toml"); err != nil {
				t.Fatalf("unexpected rollback error: %v", err)
			}
		}

		output.Reset()
		if err := runCLI(runner, "setup", "rollback", "--config", "config.toml"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No migrations to roll back") {
			t.Errorf("expected nothing left to roll back, got %q", output.String())
		}
	})
}
