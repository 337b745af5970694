package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Identity  IdentityConfig  `yaml:"identity"`
	Reset     ResetConfig     `yaml:"reset"`
	Mail      MailConfig      `yaml:"mail"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Admin     AdminConfig     `yaml:"admin"`
	CORS      CORSConfig      `yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: [] (same-origin only when empty; ["*"] for dev)
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects the document and identity backend. An empty URL
// keeps everything in process memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type IdentityConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type ResetConfig struct {
	Secret   string        `yaml:"secret"`
	TTL      time.Duration `yaml:"ttl"`
	LinkBase string        `yaml:"link_base"`
}

// MailConfig selects the outbox. An empty Redis address logs mails instead
// of queueing them.
type MailConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Queue         string `yaml:"queue"`
}

// RateLimitConfig bounds sign-in attempts per email address.
type RateLimitConfig struct {
	Attempts int           `yaml:"attempts"`
	Window   time.Duration `yaml:"window"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type AdminConfig struct {
	Key string `yaml:"key"`
}

// Load reads .env (if present) into the environment, then the YAML file at
// path with ${VAR} expansion, then the DWH_* overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Identity: IdentityConfig{
			SessionTTL: 7 * 24 * time.Hour,
		},
		Reset: ResetConfig{
			TTL: time.Hour,
		},
		RateLimit: RateLimitConfig{
			Attempts: 5,
			Window:   15 * time.Minute,
		},
		Session: SessionConfig{
			IdleTimeout: 2 * time.Hour,
		},
	}
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DWH_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DWH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DWH_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DWH_RESET_SECRET"); v != "" {
		cfg.Reset.Secret = v
	}
	if v := os.Getenv("DWH_ADMIN_KEY"); v != "" {
		cfg.Admin.Key = v
	}
	if v := os.Getenv("DWH_REDIS_ADDR"); v != "" {
		cfg.Mail.RedisAddr = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}
	if c.Identity.SessionTTL <= 0 {
		return fmt.Errorf("identity.session_ttl must be positive")
	}
	if c.Reset.TTL <= 0 {
		return fmt.Errorf("reset.ttl must be positive")
	}
	if len(c.Reset.Secret) < 32 {
		return fmt.Errorf("reset.secret must be at least 32 characters (set DWH_RESET_SECRET)")
	}
	if c.RateLimit.Attempts < 1 {
		return fmt.Errorf("rate_limit.attempts must be at least 1, got %d", c.RateLimit.Attempts)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) MigrationsSource() string {
	return "file://migrations"
}

func (c *Config) DatabaseURLForMigrate() string {
	url := c.Database.URL
	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}
	return url
}
