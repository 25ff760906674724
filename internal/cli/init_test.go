package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_CLI_TEST=from-file\n"), 0o600))

	t.Setenv("FINTRACK_CLI_TEST", "")
	os.Unsetenv("FINTRACK_CLI_TEST")
	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("FINTRACK_CLI_TEST"))

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(dir, "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("PORT", "8080")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadAndValidateConfig()
	assert.ErrorContains(t, err, "invalid port")
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json")
	require.NotNil(t, logger)
	assert.Equal(t, "app", logger.Component())
}
