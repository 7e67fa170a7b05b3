package config

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/spf13/viper"
)

// Storage backend kinds.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const defaultDataDir = "$HOME/.local/share/invmem"

// Config is the typed view of everything invmem reads from viper.
type Config struct {
	Storage StorageConfig
	Logging LoggingConfig
	Server  ServerConfig
	Policy  PolicyConfig
}

// StorageConfig selects where the pattern store lives.
type StorageConfig struct {
	Backend string
	Path    string
}

// ServerConfig is the HTTP listen address.
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PolicyConfig tunes the decide phase.
type PolicyConfig struct {
	CriticalVendors []string
	ReviewThreshold float64
}

// LoggingConfig mirrors the --log-level / --log-format flags.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3001)
	v.SetDefault("policy.review_threshold", 0.8)
	v.SetDefault("policy.critical_vendors", []string{"Supplier GmbH"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads and validates the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
			Path:    v.GetString("storage.path"),
		},
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Policy: PolicyConfig{
			ReviewThreshold: v.GetFloat64("policy.review_threshold"),
			CriticalVendors: v.GetStringSlice("policy.critical_vendors"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = filepath.Join(defaultDataDir, "memory.json")
		}
	case BackendSQLite:
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = filepath.Join(defaultDataDir, "memory.db")
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidConfig, cfg.Storage.Backend)
	}
	if cfg.Storage.Path != ":memory:" {
		cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	}

	if cfg.Policy.ReviewThreshold <= 0 || cfg.Policy.ReviewThreshold > 1 {
		return Config{}, fmt.Errorf("%w: policy.review_threshold must be in (0, 1], got %v",
			common.ErrInvalidConfig, cfg.Policy.ReviewThreshold)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, cfg.Server.Port)
	}

	return cfg, nil
}
