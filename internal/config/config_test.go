package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/pfamscan/pkg/hmmer"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PFAMSCAN_DATA", "PFAMSCAN_ADDR", "HMMER_SERVICE", "HMMER_DB",
		"HMMER_CUT_GA", "PFAMSCAN_SCAN_TIMEOUT", "PFAMSCAN_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, hmmer.DefaultServiceURL, cfg.ServiceURL)
	assert.Equal(t, "pfam", cfg.Database)
	assert.True(t, cfg.CutGA)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data/db/scans.db", cfg.StorePath())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PFAMSCAN_DATA", "/srv/pfamscan")
	t.Setenv("HMMER_SERVICE", "http://localhost:9000/hmmscan")
	t.Setenv("HMMER_DB", "superfamily")
	t.Setenv("HMMER_CUT_GA", "false")
	t.Setenv("PFAMSCAN_SCAN_TIMEOUT", "30s")

	cfg := FromEnv()
	assert.Equal(t, "/srv/pfamscan/db/scans.db", cfg.StorePath())
	assert.Equal(t, "http://localhost:9000/hmmscan", cfg.ServiceURL)
	assert.Equal(t, "superfamily", cfg.Database)
	assert.False(t, cfg.CutGA)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HMMER_CUT_GA", "maybe")
	t.Setenv("PFAMSCAN_SCAN_TIMEOUT", "-5s")

	cfg := FromEnv()
	assert.True(t, cfg.CutGA)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HMMER_DB=tigrfam\n"), 0o644))

	t.Setenv("HMMER_DB", "")
	os.Unsetenv("HMMER_DB")

	LoadDotEnv(envFile)
	assert.Equal(t, "tigrfam", FromEnv().Database)

	// Missing files only warn.
	LoadDotEnv(filepath.Join(dir, "missing.env"))
}
