package cli

import (
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	output, err := execute(t, "", "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if output == "" {
		t.Error("expected help output, got empty string")
	}
	for _, want := range []string{"statekeep", "Session:", "Storage:", "run", "inspect"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestRootCommand_HelpSubcommand(t *testing.T) {
	output, err := execute(t, "", "help", "clear")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "--force") {
		t.Errorf("expected clear help to list --force, got %q", output)
	}
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	// Cobra uses --version flag, not a version subcommand
	output, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(output, "1.2.3") {
		t.Errorf("expected version output to contain version, got %q", output)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("2.0.0")
	output, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(output) != "2.0.0" {
		t.Errorf("version = %q, want %q", output, "2.0.0")
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, err := execute(t, "", "invalid-command")
	if err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version", "", "1.2.3"}, // Should not change if empty
		{"dev version", "dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			if rootCmd.Version != tt.want {
				t.Errorf("SetVersion(%q) = %q, want %q", tt.version, rootCmd.Version, tt.want)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{
		"run", "inspect", "keys", "clear", "version", "completion",
	}

	for _, cmd := range subcommands {
		t.Run(cmd, func(t *testing.T) {
			subCmd, _, err := rootCmd.Find([]string{cmd})
			if err != nil {
				t.Errorf("Find(%q) error = %v", cmd, err)
			}
			if subCmd == nil || subCmd == rootCmd {
				t.Errorf("Find(%q) did not resolve a subcommand", cmd)
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	output, err := execute(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "statekeep") {
		t.Error("expected bash completion to mention statekeep")
	}
}
