package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// HistoryBackend selects where publish history is persisted.
type HistoryBackend string

const (
	// HistoryBackendMemory keeps history for the process lifetime only.
	HistoryBackendMemory HistoryBackend = "memory"
	// HistoryBackendFile persists the history table as one JSON snapshot file.
	HistoryBackendFile HistoryBackend = "file"
	// HistoryBackendRedis stores the snapshot document at a single Redis key.
	HistoryBackendRedis HistoryBackend = "redis"
	// HistoryBackendPostgres archives history entries as PostgreSQL rows.
	HistoryBackendPostgres HistoryBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for HistoryBackend.
func (b *HistoryBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "file", "redis", "postgres":
		*b = HistoryBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid HistoryBackend: %q (valid options: memory, file, redis, postgres)", v)
	}
}

// HistoryConfig contains history persistence configuration.
type HistoryConfig struct {
	// Backend selects the persistence backend.
	Backend HistoryBackend `env:"HISTORY_BACKEND" envDefault:"file"`

	// FilePath is the snapshot file location (Backend=file).
	FilePath string `env:"HISTORY_FILE_PATH" envDefault:"data/publish_history.json"`

	// RedisKey is the snapshot key (Backend=redis).
	RedisKey string `env:"HISTORY_REDIS_KEY" envDefault:"publisher:history"`
}

// Sanitize applies guardrails to history configuration values.
func (h *HistoryConfig) Sanitize() {
	h.FilePath = strings.TrimSpace(h.FilePath)
	if h.Backend == HistoryBackendFile && h.FilePath == "" {
		h.Backend = HistoryBackendMemory
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"publisher"`
	Password string `env:"PASSWORD" envDefault:"publisher"`
	Name     string `env:"NAME"     envDefault:"publisher"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// DSN renders the postgres connection string.
func (d DBConfig) DSN() string {
	hostPort := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User, d.Password, hostPort, d.Name, d.SSLMode)
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
