package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/moldyngo/internal/hcl_adapter"
	"github.com/specialistvlad/moldyngo/internal/ledger"
	"github.com/specialistvlad/moldyngo/internal/registry"
	"github.com/specialistvlad/moldyngo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAppTest creates a new app instance with debug logging captured in a buffer.
func setupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)
	appConfig.LogLevel = "debug"
	appConfig.LogFormat = "text"

	out := &testutil.SafeBuffer{}
	logs := &testutil.SafeBuffer{}
	testApp := NewApp(out, logs, appConfig, hcl_adapter.NewLoader())

	t.Cleanup(func() {
		if os.Getenv("MOLDYN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return testApp, out, logs
}

func writeLookupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.csv"), []byte("id,score\nm1,2.5\nm2,bad\n"), 0o644))
	cfg := filepath.Join(dir, "lookup.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`path = "table.csv"`+"\n"), 0o644))
	return cfg
}

func TestRunPrintsScoresAndRecordsLedger(t *testing.T) {
	dir := t.TempDir()
	idsPath := filepath.Join(dir, "ids.txt")
	require.NoError(t, os.WriteFile(idsPath, []byte("# batch 1\nm1\n\nm2\n"), 0o644))
	dbPath := filepath.Join(dir, "ledger.db")

	a, out, logs := setupAppTest(t, Config{
		Objective:    "lookup",
		ConfigPath:   writeLookupConfig(t),
		Minimize:     true,
		Iteration:    2,
		IDsPath:      idsPath,
		IDs:          []string{"m3"},
		LedgerDriver: ledger.DriverSQLite,
		LedgerDSN:    dbPath,
	})

	require.NoError(t, a.Run(context.Background()))

	var got map[string]*float64
	require.NoError(t, json.Unmarshal([]byte(out.String()), &got))
	require.Len(t, got, 3)
	require.NotNil(t, got["m1"])
	assert.Equal(t, -2.5, *got["m1"])
	assert.Nil(t, got["m2"])
	assert.Nil(t, got["m3"])
	assert.Contains(t, logs.String(), "Batch scored.")

	store, err := ledger.Open(context.Background(), ledger.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer store.Close()
	recorded, err := store.Scores(context.Background(), "lookup", 2)
	require.NoError(t, err)
	assert.Len(t, recorded, 3)
	assert.True(t, recorded["m2"].IsMissing())
}

func TestRunUnknownObjective(t *testing.T) {
	a, out, _ := setupAppTest(t, Config{Objective: "docking", ConfigPath: "unused.hcl"})

	err := a.Run(context.Background())
	require.ErrorIs(t, err, registry.ErrUnknownObjective)
	assert.Empty(t, out.String())
}

func TestRunMissingIDsFile(t *testing.T) {
	a, _, _ := setupAppTest(t, Config{
		Objective:  "lookup",
		ConfigPath: writeLookupConfig(t),
		IDsPath:    filepath.Join(t.TempDir(), "absent.txt"),
	})
	require.Error(t, a.Run(context.Background()))
}

func TestHealthMux(t *testing.T) {
	a, _, _ := setupAppTest(t, Config{Objective: "lookup", ConfigPath: writeLookupConfig(t)})
	mux := a.healthMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewConfigValidation(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "no objective", cfg: Config{ConfigPath: "x.hcl"}},
		{name: "no config", cfg: Config{Objective: "lookup"}},
		{name: "negative iteration", cfg: Config{Objective: "lookup", ConfigPath: "x.hcl", Iteration: -1}},
		{name: "dsn without driver", cfg: Config{Objective: "lookup", ConfigPath: "x.hcl", LedgerDSN: "db"}},
		{name: "unknown driver", cfg: Config{Objective: "lookup", ConfigPath: "x.hcl", LedgerDriver: "mysql", LedgerDSN: "db"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			require.Error(t, err)
		})
	}

	cfg, err := NewConfig(Config{Objective: "moldynam", ConfigPath: "x.hcl"})
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newLogger("WARN", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"service":"moldyngo"`)
}
