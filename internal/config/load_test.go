package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte("cdn:\n  origin: http://cdn.local\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JOURNAL_TEST_SECRET=s3cret\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("JOURNAL_TEST_SECRET") })

	require.NoError(t, Load(dir))

	assert.Equal(t, "http://cdn.local", viper.GetString("cdn.origin"))
	assert.Equal(t, DefaultPort, viper.GetString("app.port"))
	assert.Equal(t, DefaultClientOrigin, viper.GetString("client.origin"))
	assert.Equal(t, DefaultCommentsFetchLimit, viper.GetInt("comments.fetch-limit"))
	assert.Equal(t, "s3cret", os.Getenv("JOURNAL_TEST_SECRET"))
}

func TestLoad_WithoutEnvFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte("app:\n  port: \"9000\"\n"), 0o600))

	require.NoError(t, Load(dir))
	assert.Equal(t, "9000", viper.GetString("app.port"))
}

func TestLoad_MissingYAML(t *testing.T) {
	t.Cleanup(viper.Reset)
	assert.Error(t, Load(t.TempDir()))
}

func TestDBConfigFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "journal")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_SSLMODE", "disable")

	cfg := DBConfigFromEnv()

	assert.Equal(t, "journal", cfg.Username)
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, "disable", cfg.SSLMode)
}
