package integration_tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/specialistvlad/moldyngo/internal/cli"
)

// Test for: displays help
func TestCLI_DisplaysHelp_WhenAsked(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	outW := &bytes.Buffer{}

	// --- Act ---
	appConfig, shouldExit, err := cli.Parse([]string{"-help"}, outW)

	// --- Assert ---
	if err != nil {
		t.Fatalf("cli.Parse() returned an unexpected error: %v", err)
	}
	if !shouldExit {
		t.Fatal("cli.Parse() should have indicated an exit, but it did not")
	}
	if !strings.Contains(outW.String(), "Usage:") {
		t.Errorf("expected output to contain 'Usage:', but got:\n%s", outW.String())
	}
	if appConfig != nil {
		t.Errorf("expected a nil Config when displaying help, but got a non-nil config")
	}
}

// Test for: running without a configuration prints usage and fails
func TestCLI_MissingConfig_IsUsageError(t *testing.T) {
	t.Parallel()

	outW := &bytes.Buffer{}
	_, _, err := cli.Parse([]string{"m1", "m2"}, outW)

	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, cli.ExitUsage)
	}
	if !strings.Contains(outW.String(), "Usage:") {
		t.Errorf("expected usage text, got:\n%s", outW.String())
	}
}
