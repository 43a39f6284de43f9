package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
)

// #region helpers

// isolate runs the test in an empty directory with no PMF_* variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{EnvDBPath, EnvJudgeAddr, EnvLogLevel, EnvLogFormat} {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
	return dir
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// #endregion helpers

// #region load-tests
func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, gate.DefaultGateConfig(), cfg.Gate)
	assert.Equal(t, scoring.DefaultConfig(), cfg.Scoring)
}

func TestLoad_YAMLOverlayKeepsUnsetKeys(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "pmf.yaml", `
db_path: /var/lib/pmf/pmf.db
gate:
  max_cpa: 12
scoring:
  confirmed_min: 75
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pmf/pmf.db", cfg.DBPath)
	assert.Equal(t, 12.0, cfg.Gate.MaxCPA)
	assert.Equal(t, gate.DefaultGateConfig().MinOrders, cfg.Gate.MinOrders)
	assert.Equal(t, 75.0, cfg.Scoring.ConfirmedMin)
	assert.Equal(t, scoring.DefaultConfig().PartialMin, cfg.Scoring.PartialMin)
	assert.Equal(t, DefaultJudgeAddr, cfg.JudgeAddr)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "pmf.yaml", "db_path: from-file.db\nlog_level: warn\n")
	t.Setenv(EnvDBPath, "from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", "PMF_JUDGE_ADDR=judge.internal:9000\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "judge.internal:9000", cfg.JudgeAddr)
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.yaml", "gate: [not, a, map]\n")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")

	inverted := writeFile(t, dir, "inverted.yaml", "scoring:\n  partial_min: 80\n")
	_, err = Load(inverted)
	assert.ErrorContains(t, err, "verdict thresholds")
}

// #endregion load-tests

// #region validate-tests
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"json format", func(c *Config) { c.LogFormat = "JSON" }, false},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"ceiling at partial", func(c *Config) { c.Scoring.HardKillCeiling = c.Scoring.PartialMin }, true},
		{"negative penalty cap", func(c *Config) { c.Scoring.PenaltyCap = -1 }, true},
		{"zero max cpa", func(c *Config) { c.Gate.MaxCPA = 0 }, true},
		{"confirmed above 100", func(c *Config) { c.Scoring.ConfirmedMin = 101 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// #endregion validate-tests

// #region logger-tests
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", "product", "p1")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"product":"p1"`)
}

// #endregion logger-tests
