package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/config"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	p, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.DefaultParams().Workers, p.Workers)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	contents := "workers: 8\ndefault_timeout_seconds: 12.5\nstop_on_failure: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := config.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 8, p.Workers)
	require.Equal(t, 12500*time.Millisecond, p.DefaultTimeout)
	require.True(t, p.StopOnFailure)
	require.Equal(t, config.DefaultParams().PoolCPUCores, p.PoolCPUCores)
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [this is not an int\n"), 0o644))

	_, err := config.LoadFile(path)
	require.Error(t, err)
}
