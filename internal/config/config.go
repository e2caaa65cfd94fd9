package config

import (
	"time"
)

// Storage backends for client storage.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the training hub.
type Config struct {
	HTTPPort         int           `env:"STACKLYHUB_HTTP_PORT"          env-default:"8080"`
	SQLiteDSN        string        `env:"STACKLYHUB_SQLITE_DSN"         env-default:"file:stacklyhub.db"`
	Storage          string        `env:"STACKLYHUB_STORAGE"            env-default:"sqlite"`
	SessionSecret    string        `env:"STACKLYHUB_SESSION_SECRET"     env-required:"true"`
	SessionTTL       time.Duration `env:"STACKLYHUB_SESSION_TTL"        env-default:"24h"`
	ReminderInterval time.Duration `env:"STACKLYHUB_REMINDER_INTERVAL"  env-default:"1m"`
	ReminderWindow   time.Duration `env:"STACKLYHUB_REMINDER_WINDOW"    env-default:"5m"`
	PasswordHashing  string        `env:"STACKLYHUB_PASSWORD_HASHING"   env-default:"plaintext"`
	CORSOrigins      []string      `env:"STACKLYHUB_CORS_ORIGINS"       env-default:"*" env-separator:","`
	LogLevel         string        `env:"STACKLYHUB_LOG_LEVEL"          env-default:"info"`
	LogFormat        string        `env:"STACKLYHUB_LOG_FORMAT"         env-default:"json"`
	SeedData         bool          `env:"STACKLYHUB_SEED_DATA"          env-default:"true"`
}
