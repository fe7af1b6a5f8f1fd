package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("CASEFORGE_ENCLAVE", "dev-enclave")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kurtosis:\n  enclave_name: ${CASEFORGE_ENCLAVE}\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "dev-enclave", cfg.Kurtosis.EnclaveName)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := config.DefaultConfig()
	cfg.RestAPI.Address = ":9999"
	require.NoError(t, cfg.Save(path))

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", reloaded.RestAPI.Address)
}

func TestValidateRequiresOutputDirAndPositiveLockTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Reporting.OutputDir = ""
	require.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Runner.LockTimeout = 0
	require.Error(t, cfg.Validate())
}
