//go:build !windows

package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/specialistvlad/moldyngo/internal/logsink"
	"github.com/specialistvlad/moldyngo/internal/testutil"
	"github.com/specialistvlad/moldyngo/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) WriteLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

func (r *lineRecorder) Close() error { return nil }

func (r *lineRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func newInvoker(t *testing.T, body string) (*Invoker, string) {
	t.Helper()
	root := t.TempDir()
	script := testutil.WriteScript(t, filepath.Join(root, "master_script.sh"), body)
	return &Invoker{
		Script:       script,
		Shell:        "sh",
		ManifestPath: filepath.Join(root, "folders_cycle.txt"),
		Grace:        200 * time.Millisecond,
	}, root
}

func TestRunStreamsMergedOutputAndPassesManifest(t *testing.T) {
	ctx, logs := testutil.Context(t)
	inv, root := newInvoker(t, `
echo "manifest=$1"
while read -r dir; do
  echo "processing $dir"
done < "$1"
echo "warning on stderr" 1>&2
`)
	rec := &lineRecorder{}
	workspaces := []workspace.Workspace{{Path: filepath.Join(root, "b_pose_1")}, {Path: filepath.Join(root, "a_pose_0")}}

	status, err := inv.Run(ctx, workspaces, Destination{Path: "logs/x.log", Sink: rec})

	require.NoError(t, err)
	assert.True(t, status.Success())
	assert.Equal(t, []string{
		"manifest=" + inv.ManifestPath,
		"processing " + workspaces[0].Path,
		"processing " + workspaces[1].Path,
		"warning on stderr",
	}, rec.Lines())
	assert.Contains(t, logs.String(), "molecules=2")
	assert.Contains(t, logs.String(), "log_path=logs/x.log")
}

func TestRunReturnsNonzeroExitWithoutError(t *testing.T) {
	ctx, _ := testutil.Context(t)
	inv, _ := newInvoker(t, "echo partial\nexit 4\n")
	rec := &lineRecorder{}

	run, err := inv.Start(ctx, []workspace.Workspace{{Path: "/w"}}, Destination{Sink: rec})
	require.NoError(t, err)
	assert.Equal(t, Streaming, run.State())
	assert.NotZero(t, run.Pid())

	status, err := run.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Code)
	assert.Equal(t, Terminated, run.State())
	final, finalErr := run.Result()
	assert.Equal(t, 4, final.Code)
	assert.NoError(t, finalErr)
	assert.Equal(t, []string{"partial"}, rec.Lines())

	_, err = run.Wait(ctx)
	assert.Error(t, err, "a finished run cannot be waited on again")
}

func TestRunWithoutShellExecutesScriptDirectly(t *testing.T) {
	ctx, _ := testutil.Context(t)
	inv, _ := newInvoker(t, "echo direct\n")
	inv.Shell = ""
	rec := &lineRecorder{}

	assert.Equal(t, []string{inv.Script, inv.ManifestPath}, inv.Command())
	_, err := inv.Run(ctx, []workspace.Workspace{{Path: "/w"}}, Destination{Sink: rec})
	require.NoError(t, err)
	assert.Equal(t, []string{"direct"}, rec.Lines())
}

func TestRunLaunchError(t *testing.T) {
	ctx, _ := testutil.Context(t)
	inv, _ := newInvoker(t, "")
	inv.Shell = filepath.Join(t.TempDir(), "no-such-shell")

	_, err := inv.Run(ctx, []workspace.Workspace{{Path: "/w"}}, Destination{Sink: logsink.Discard})

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr), "got %v", err)
	assert.Equal(t, inv.Command(), launchErr.Command)
	assert.Contains(t, err.Error(), "no-such-shell")
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	ctx, _ := testutil.Context(t)
	inv, _ := newInvoker(t, "echo should-not-run\n")

	_, err := inv.Run(ctx, nil, Destination{Sink: logsink.Discard})
	assert.ErrorIs(t, err, ErrEmptyBatch)
	_, statErr := os.Stat(inv.ManifestPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCancellationTerminatesProcessGroup(t *testing.T) {
	base, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	inv, root := newInvoker(t, `
sleep 30 &
echo "child=$!"
wait
`)
	rec := &lineRecorder{}

	run, err := inv.Start(ctx, []workspace.Workspace{{Path: root}}, Destination{Sink: rec})
	require.NoError(t, err)

	var childPid int
	require.Eventually(t, func() bool {
		for _, line := range rec.Lines() {
			if pid, ok := strings.CutPrefix(line, "child="); ok {
				childPid, _ = strconv.Atoi(pid)
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	_, err = run.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, run.State())

	require.Eventually(t, func() bool {
		return processGone(childPid)
	}, 5*time.Second, 20*time.Millisecond, "grandchild sleep must be killed with the group")
}

func TestRunCancellationAfterOutputClosed(t *testing.T) {
	base, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	inv, root := newInvoker(t, `
echo started
exec >/dev/null 2>&1
sleep 30
`)
	rec := &lineRecorder{}

	run, err := inv.Start(ctx, []workspace.Workspace{{Path: root}}, Destination{Sink: rec})
	require.NoError(t, err)
	pid := run.Pid()

	go func() {
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	_, err = run.Wait(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 10*time.Second)
	assert.Equal(t, Failed, run.State())
	assert.Equal(t, []string{"started"}, rec.Lines())
	assert.True(t, processGone(pid))
}

// processGone reports whether pid no longer runs. Zombies count as gone since
// reaping orphans is up to whatever init the test runs under.
func processGone(pid int) bool {
	if syscall.Kill(pid, 0) != nil {
		return true
	}
	stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	return strings.Contains(string(stat), ") Z ")
}
