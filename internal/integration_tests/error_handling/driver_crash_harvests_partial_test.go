//go:build !windows

package integration_tests

import (
	"strings"
	"testing"

	"github.com/specialistvlad/moldyngo/internal/app"
)

// Test for: a driver that crashes midway still yields the results it produced
func TestErrorHandling_DriverCrash_HarvestsPartialResults(t *testing.T) {
	// --- Arrange ---
	_, cfg := writeMoldynam(t, `read -r first < "$1"
echo 0.4 > "$first/avg_rmsd.txt"
echo "segfault in mdrun" >&2
exit 139
`)

	// --- Act ---
	out, logs, err := runApp(t, app.Config{
		Objective:  "moldynam",
		ConfigPath: cfg,
		Minimize:   false,
		IDs:        []string{"m1", "m2"},
	})

	// --- Assert ---
	if err != nil {
		t.Fatalf("a nonzero driver exit must not fail the batch, got: %v", err)
	}
	if !strings.Contains(out, `"m1": 0.4`) || !strings.Contains(out, `"m2": null`) {
		t.Errorf("unexpected scores:\n%s", out)
	}
	if !strings.Contains(logs, "exit code 139") {
		t.Errorf("expected the exit status in logs:\n%s", logs)
	}
}
