//go:build !windows

package integration_tests

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/moldyngo/internal/app"
	"github.com/specialistvlad/moldyngo/internal/hcl_adapter"
	"github.com/specialistvlad/moldyngo/internal/testutil"
)

// writeMoldynam lays out two workspaces (m1, m2) with the given driver script
// and returns the workspace root and the configuration path.
func writeMoldynam(t *testing.T, script string) (string, string) {
	t.Helper()
	base := t.TempDir()
	root := testutil.WriteWorkspaces(t, filepath.Join(base, "md"),
		testutil.WorkspaceSpec{Dir: "a_pose_0", Identifier: "m1"},
		testutil.WorkspaceSpec{Dir: "b_pose_0", Identifier: "m2"},
	)
	if script != "" {
		testutil.WriteScript(t, filepath.Join(root, "master_script.sh"), script)
	}
	cfg := filepath.Join(base, "moldynam.hcl")
	if err := os.WriteFile(cfg, []byte(fmt.Sprintf("path = %q\nshell = \"sh\"\n", root)), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return root, cfg
}

func runApp(t *testing.T, cfg app.Config) (string, string, error) {
	t.Helper()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid app config: %v", err)
	}
	out := &testutil.SafeBuffer{}
	logs := &testutil.SafeBuffer{}
	runErr := app.NewApp(out, logs, appConfig, hcl_adapter.NewLoader()).Run(t.Context())
	if os.Getenv("MOLDYN_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return out.String(), logs.String(), runErr
}
