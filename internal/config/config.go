package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Upload   UploadConfig   `yaml:"upload"`
	Auth     AuthConfig     `yaml:"auth"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig selects the relational store. Driver is either
// "sqlite" (default, file-based) or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn"    env:"DB_DSN"    env-default:"./data/diary.db"`
}

// SessionConfig controls the session store. Backend is either
// "memory" (default) or "redis".
type SessionConfig struct {
	Backend    string        `yaml:"backend"     env:"SESSION_BACKEND"     env-default:"memory"`
	RedisAddr  string        `yaml:"redis_addr"  env:"SESSION_REDIS_ADDR"  env-default:"localhost:6379"`
	TTL        time.Duration `yaml:"ttl"         env:"SESSION_TTL"         env-default:"24h"`
	Sliding    bool          `yaml:"sliding"     env:"SESSION_SLIDING"     env-default:"false"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"diary_session"`
}

// UploadConfig controls image upload handling.
type UploadConfig struct {
	Dir          string `yaml:"dir"           env:"UPLOAD_DIR"           env-default:"./public/images"`
	PublicPrefix string `yaml:"public_prefix" env:"UPLOAD_PUBLIC_PREFIX" env-default:"/images"`
	MaxFiles     int    `yaml:"max_files"     env:"UPLOAD_MAX_FILES"     env-default:"5"`
	MaxFileSize  int64  `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" env-default:"5242880"`
}

// AuthConfig holds the bootstrap account provisioned on first start.
type AuthConfig struct {
	DefaultUsername string `yaml:"default_username" env:"AUTH_DEFAULT_USERNAME" env-default:"admin"`
	DefaultPassword string `yaml:"default_password" env:"AUTH_DEFAULT_PASSWORD" env-default:"admin123"`
}

// WebConfig points at the static presentation assets.
type WebConfig struct {
	StaticDir string `yaml:"static_dir" env:"WEB_STATIC_DIR" env-default:"./public"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The YAML file path comes from
// CONFIG_PATH (fallback "./config.yaml"); a missing fallback file is not
// an error, a missing explicit file is.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Upload.MaxFiles <= 0 || c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}
