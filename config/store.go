package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StoreBackend selects where the session is persisted.
type StoreBackend string

const (
	// StoreBackendFile keeps the session in a JSON file in the user's config dir.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis keeps the session in Redis.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory keeps the session for the lifetime of the process only.
	StoreBackendMemory StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "redis", "memory":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis, memory)", v)
	}
}

// StoreConfig contains session persistence configuration.
type StoreConfig struct {
	Backend     StoreBackend `env:"SESSION_STORE"        envDefault:"file"`
	File        string       `env:"SESSION_FILE"`
	RedisPrefix string       `env:"SESSION_REDIS_PREFIX" envDefault:"authify:session:"`
}

// Sanitize fills in the default session file location.
func (c *StoreConfig) Sanitize() {
	c.File = strings.TrimSpace(c.File)
	if c.File == "" {
		c.File = DefaultSessionFile()
	}
	if strings.TrimSpace(c.RedisPrefix) == "" {
		c.RedisPrefix = "authify:session:"
	}
}

// DefaultSessionFile returns <user config dir>/authify/session.json, falling
// back to the working directory when no config dir is known.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".authify", "session.json")
	}
	return filepath.Join(dir, "authify", "session.json")
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
