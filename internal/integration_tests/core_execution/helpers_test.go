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

// driverScript writes an avg_rmsd.txt equal to the workspace's position in
// the manifest plus one, except for m2, which it skips.
const driverScript = `n=0
while read -r dir; do
  n=$((n+1))
  echo "[$n] gmx mdrun in $dir"
  if [ "$(cat "$dir/ligand.smi")" != "m2" ]; then
    echo "$n.5" > "$dir/avg_rmsd.txt"
  fi
done < "$1"
`

type mdFixture struct {
	base   string
	root   string
	config string
}

func newMDFixture(t *testing.T, extraConfig string) mdFixture {
	t.Helper()
	base := t.TempDir()
	root := testutil.WriteWorkspaces(t, filepath.Join(base, "brd4"),
		testutil.WorkspaceSpec{Dir: "lig1_pose_1", Identifier: "m1"},
		testutil.WorkspaceSpec{Dir: "lig2_pose_1", Identifier: "m2"},
		testutil.WorkspaceSpec{Dir: "lig3_pose_1", Identifier: "m3"},
	)
	testutil.WriteScript(t, filepath.Join(root, "master_script.sh"), driverScript)

	cfg := filepath.Join(base, "moldynam.hcl")
	body := fmt.Sprintf("path = %q\nshell = \"sh\"\n%s", root, extraConfig)
	if err := os.WriteFile(cfg, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return mdFixture{base: base, root: root, config: cfg}
}

func newTestApp(t *testing.T, cfg app.Config) (*app.App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid app config: %v", err)
	}

	out := &testutil.SafeBuffer{}
	logs := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("MOLDYN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return app.NewApp(out, logs, appConfig, hcl_adapter.NewLoader()), out, logs
}
