package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read before the process environment when present.
const DefaultEnvFile = ".env"

// Load parses configuration values from DefaultEnvFile and the process environment.
func Load() (Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom parses configuration values after loading envFile into the
// environment. A missing envFile is not an error; variables already set in
// the process take precedence over the file.
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every variable holding an unusable value.
func (c Config) Validate() error {
	invalid := make([]string, 0, 4)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "STACKLYHUB_HTTP_PORT")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		invalid = append(invalid, "STACKLYHUB_SESSION_SECRET")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "STACKLYHUB_SESSION_TTL")
	}
	if c.ReminderInterval <= 0 {
		invalid = append(invalid, "STACKLYHUB_REMINDER_INTERVAL")
	}
	if c.ReminderWindow <= 0 {
		invalid = append(invalid, "STACKLYHUB_REMINDER_WINDOW")
	}
	switch c.Storage {
	case StorageSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			invalid = append(invalid, "STACKLYHUB_SQLITE_DSN")
		}
	case StorageMemory:
	default:
		invalid = append(invalid, "STACKLYHUB_STORAGE")
	}
	switch strings.ToLower(c.PasswordHashing) {
	case "plaintext", "argon2":
	default:
		invalid = append(invalid, "STACKLYHUB_PASSWORD_HASHING")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

