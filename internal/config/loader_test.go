package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var variables = []string{
	"STACKLYHUB_HTTP_PORT",
	"STACKLYHUB_SQLITE_DSN",
	"STACKLYHUB_STORAGE",
	"STACKLYHUB_SESSION_SECRET",
	"STACKLYHUB_SESSION_TTL",
	"STACKLYHUB_REMINDER_INTERVAL",
	"STACKLYHUB_REMINDER_WINDOW",
	"STACKLYHUB_PASSWORD_HASHING",
	"STACKLYHUB_CORS_ORIGINS",
	"STACKLYHUB_LOG_LEVEL",
	"STACKLYHUB_LOG_FORMAT",
	"STACKLYHUB_SEED_DATA",
}

// clearEnv unsets every variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range variables {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STACKLYHUB_SESSION_SECRET", "super-secret")

		cfg, err := LoadFrom("")
		require.NoError(t, err)

		assert.Equal(t, Config{
			HTTPPort:         8080,
			SQLiteDSN:        "file:stacklyhub.db",
			Storage:          StorageSQLite,
			SessionSecret:    "super-secret",
			SessionTTL:       24 * time.Hour,
			ReminderInterval: time.Minute,
			ReminderWindow:   5 * time.Minute,
			PasswordHashing:  "plaintext",
			CORSOrigins:      []string{"*"},
			LogLevel:         "info",
			LogFormat:        "json",
			SeedData:         true,
		}, cfg)
		assert.Equal(t, ":8080", cfg.Addr())
	})

	t.Run("errors when the session secret is missing", func(t *testing.T) {
		clearEnv(t)

		_, err := LoadFrom("")
		require.Error(t, err)
	})

	t.Run("parses durations lists and flags", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STACKLYHUB_SESSION_SECRET", "secret-value")
		t.Setenv("STACKLYHUB_HTTP_PORT", "9090")
		t.Setenv("STACKLYHUB_STORAGE", "memory")
		t.Setenv("STACKLYHUB_SESSION_TTL", "2h")
		t.Setenv("STACKLYHUB_REMINDER_INTERVAL", "30s")
		t.Setenv("STACKLYHUB_CORS_ORIGINS", "http://localhost:3000,https://hub.example.com")
		t.Setenv("STACKLYHUB_PASSWORD_HASHING", "argon2")
		t.Setenv("STACKLYHUB_SEED_DATA", "false")

		cfg, err := LoadFrom("")
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 30*time.Second, cfg.ReminderInterval)
		assert.Equal(t, []string{"http://localhost:3000", "https://hub.example.com"}, cfg.CORSOrigins)
		assert.Equal(t, "argon2", cfg.PasswordHashing)
		assert.False(t, cfg.SeedData)
	})

	t.Run("names every invalid variable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STACKLYHUB_SESSION_SECRET", "secret-value")
		t.Setenv("STACKLYHUB_HTTP_PORT", "0")
		t.Setenv("STACKLYHUB_STORAGE", "postgres")
		t.Setenv("STACKLYHUB_PASSWORD_HASHING", "md5")

		_, err := LoadFrom("")
		require.EqualError(t, err, "config: invalid environment variables: STACKLYHUB_HTTP_PORT, STACKLYHUB_STORAGE, STACKLYHUB_PASSWORD_HASHING")
	})

	t.Run("rejects unparsable durations", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STACKLYHUB_SESSION_SECRET", "secret-value")
		t.Setenv("STACKLYHUB_SESSION_TTL", "forever")

		_, err := LoadFrom("")
		require.Error(t, err)
	})

	t.Run("reads values from an env file without overriding the process", func(t *testing.T) {
		clearEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("STACKLYHUB_SESSION_SECRET=from-file\nSTACKLYHUB_HTTP_PORT=7000\n"), 0o600))
		t.Setenv("STACKLYHUB_HTTP_PORT", "7001")

		cfg, err := LoadFrom(envFile)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.SessionSecret)
		assert.Equal(t, 7001, cfg.HTTPPort)
	})

	t.Run("ignores a missing env file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STACKLYHUB_SESSION_SECRET", "secret-value")

		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"))
		require.NoError(t, err)
	})
}
