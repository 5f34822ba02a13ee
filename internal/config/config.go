package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"collab/internal/util"
)

// Config holds all application configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Features FeaturesConfig `yaml:"features"`
}

// HTTPConfig contains listener settings.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// RedisConfig enables cross-instance board events when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// FeaturesConfig holds fallbacks for flags that are normally read from the environment.
type FeaturesConfig struct {
	AllowSignUp bool `yaml:"allow_sign_up"`
}

// Default returns development defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			StaticDir:      "web/dist",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{Path: "data/collab.db"},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-me",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Redis:    RedisConfig{Namespace: "collab"},
		Features: FeaturesConfig{AllowSignUp: true},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and COLLAB_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = util.EnvOrDefault("COLLAB_ADDR", c.HTTP.Addr)
	c.HTTP.StaticDir = util.EnvOrDefault("COLLAB_STATIC_DIR", c.HTTP.StaticDir)
	if origins := os.Getenv("COLLAB_ALLOWED_ORIGINS"); origins != "" {
		c.HTTP.AllowedOrigins = splitList(origins)
	}
	c.Database.Path = util.EnvOrDefault("COLLAB_DB_PATH", c.Database.Path)
	c.Auth.JWTSecret = util.EnvOrDefault("COLLAB_JWT_SECRET", c.Auth.JWTSecret)
	if ttl := os.Getenv("COLLAB_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Auth.TokenTTL = d
		}
	}
	c.Redis.Addr = util.EnvOrDefault("COLLAB_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = util.EnvOrDefault("COLLAB_REDIS_PASSWORD", c.Redis.Password)
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Redis.Addr != "" && c.Redis.Namespace == "" {
		return fmt.Errorf("redis.namespace is required when redis.addr is set")
	}
	return nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	redis := "disabled"
	if c.Redis.Addr != "" {
		redis = c.Redis.Addr
	}
	return fmt.Sprintf("Config{HTTP: %s, DB: %s, Redis: %s, Auth: *** (masked) ***}", c.HTTP.Addr, c.Database.Path, redis)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
