package logsink

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/moldyngo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	server "github.com/zishang520/socket.io/v2/socket"
)

func TestFileAppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "moldynam_3.log")

	sink, err := OpenFile(path)
	require.NoError(t, err)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	require.NoError(t, sink.WriteLine("step 1"))
	require.NoError(t, sink.WriteLine("step 2"))
	assert.Equal(t, path, sink.Path())

	// Content is visible before Close.
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02T03:04:05Z step 1\n2025-01-02T03:04:05Z step 2\n", string(got))

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.WriteLine("late"), os.ErrClosed)
}

func TestFileAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	for _, line := range []string{"a", "b"} {
		sink, err := OpenFile(path)
		require.NoError(t, err)
		require.NoError(t, sink.WriteLine(line))
		require.NoError(t, sink.Close())
	}

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " a"))
	assert.True(t, strings.HasSuffix(lines[1], " b"))
}

func TestOpenFileFailsWhenParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "logs")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := OpenFile(filepath.Join(blocker, "x.log"))
	require.Error(t, err)
}

type recordingSink struct {
	lines  []string
	fail   bool
	closed bool
}

func (r *recordingSink) WriteLine(line string) error {
	if r.fail {
		return errors.New("boom")
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	good := &recordingSink{}
	bad := &recordingSink{fail: true}
	m := Multi{bad, good}

	err := m.WriteLine("hello")
	require.Error(t, err)
	assert.Equal(t, []string{"hello"}, good.lines)

	require.NoError(t, m.Close())
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.WriteLine("x"))
	assert.NoError(t, Discard.Close())
}

func TestDialRelayRejectsBadConfig(t *testing.T) {
	ctx, _ := testutil.Context(t)

	testCases := []struct {
		name string
		cfg  RelayConfig
	}{
		{"relative url", RelayConfig{URL: "localhost:3000"}},
		{"unparsable url", RelayConfig{URL: "http://[::1"}},
		{"bad timeout", RelayConfig{URL: "http://localhost:3000/socket.io/", ConnectTimeout: "soon"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DialRelay(ctx, tc.cfg, "batch-1")
			require.Error(t, err)
		})
	}
}

func TestRelayClosedRejectsLines(t *testing.T) {
	r := &Relay{}
	require.Error(t, r.WriteLine("x"))
	require.NoError(t, r.Close())
}

// relayServer is a socket.io server that records every event it receives.
type relayServer struct {
	URL string

	mu          sync.Mutex
	events      []string
	payloads    []map[string]any
	disconnects int
}

func newRelayServer(t *testing.T) *relayServer {
	t.Helper()
	rs := &relayServer{}

	io := server.NewServer(nil, nil)
	io.On("connection", func(clients ...any) {
		client := clients[0].(*server.Socket)
		client.OnAny(func(args ...any) {
			if len(args) < 2 {
				return
			}
			name, _ := args[0].(string)
			payload, _ := args[1].(map[string]any)
			rs.mu.Lock()
			rs.events = append(rs.events, name)
			rs.payloads = append(rs.payloads, payload)
			rs.mu.Unlock()
		})
		client.On("disconnect", func(...any) {
			rs.mu.Lock()
			rs.disconnects++
			rs.mu.Unlock()
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", io.ServeHandler(nil))
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		io.Close(nil)
		srv.Close()
	})

	rs.URL = srv.URL + "/socket.io/"
	return rs
}

func (rs *relayServer) received() ([]string, []map[string]any, int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.events...), append([]map[string]any(nil), rs.payloads...), rs.disconnects
}

func TestRelayEmitsTaggedLines(t *testing.T) {
	ctx, _ := testutil.Context(t)
	rs := newRelayServer(t)

	relay, err := DialRelay(ctx, RelayConfig{URL: rs.URL, Event: "md_line", ConnectTimeout: "5s"}, "gromacs_4")
	require.NoError(t, err)

	require.NoError(t, relay.WriteLine("step 1"))
	require.NoError(t, relay.WriteLine("step 2"))

	require.Eventually(t, func() bool {
		events, _, _ := rs.received()
		return len(events) == 2
	}, 5*time.Second, 10*time.Millisecond)

	events, payloads, _ := rs.received()
	assert.Equal(t, []string{"md_line", "md_line"}, events)
	for i, line := range []string{"step 1", "step 2"} {
		assert.Equal(t, "gromacs_4", payloads[i]["batch"])
		// JSON numbers decode as float64.
		assert.Equal(t, float64(i+1), payloads[i]["seq"])
		assert.Equal(t, line, payloads[i]["line"])
	}

	require.NoError(t, relay.Close())
	require.Error(t, relay.WriteLine("after close"))
	require.Eventually(t, func() bool {
		_, _, disconnects := rs.received()
		return disconnects == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRelayUsesDefaultEvent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	rs := newRelayServer(t)

	relay, err := DialRelay(ctx, RelayConfig{URL: rs.URL}, "gromacs_0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = relay.Close() })

	require.NoError(t, relay.WriteLine("hello"))
	require.Eventually(t, func() bool {
		events, _, _ := rs.received()
		return len(events) == 1
	}, 5*time.Second, 10*time.Millisecond)

	events, payloads, _ := rs.received()
	assert.Equal(t, DefaultRelayEvent, events[0])
	assert.Equal(t, "hello", payloads[0]["line"])
}
