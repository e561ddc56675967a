package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Retry    RetryConfig    `yaml:"retry"`
	Names    NamesConfig    `yaml:"names"`
	Study    StudyConfig    `yaml:"study"`
	Auth     AuthConfig     `yaml:"auth"`
	LLM      LLMConfig      `yaml:"llm"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Transport is "http" or "stdio". stdio serves only the MCP surface.
	Transport   string   `yaml:"transport"`
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver      string        `yaml:"driver"`
	Path        string        `yaml:"path"`
	DSN         string        `yaml:"dsn"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type NamesConfig struct {
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
	Denylist  []string `yaml:"denylist"`
}

type StudyConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type AuthConfig struct {
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// LocalUser is the fixed user when auth is disabled.
	LocalUser string `yaml:"local_user"`
}

type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type CheckoutConfig struct {
	SecretKey      string `yaml:"secret_key"`
	APIBaseURL     string `yaml:"api_base_url"`
	ReturnURL      string `yaml:"return_url"`
	NetworkRetries int64  `yaml:"network_retries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File enables a rotated log file in addition to the console.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Transport:   "http",
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   10,
			RateBurst:   20,
		},
		Store: StoreConfig{
			Driver:      "sqlite",
			Path:        "flashdeck.db",
			BusyTimeout: 5 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		},
		Names: NamesConfig{
			MinLength: 3,
			MaxLength: 50,
			Denylist:  []string{"inappropriate-word", "bad-word"},
		},
		Study: StudyConfig{
			SessionTTL: time.Hour,
		},
		Auth: AuthConfig{
			JWTIssuer: "flashdeck",
			TokenTTL:  24 * time.Hour,
			LocalUser: "local",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4-turbo",
			Timeout: 2 * time.Minute,
		},
		Checkout: CheckoutConfig{
			ReturnURL:      "http://localhost:3000/",
			NetworkRetries: 2,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from .env, an optional YAML file and environment
// variables, in that order of increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("FLASHDECK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport %q", c.Server.Transport)
	}
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}
	if c.Names.MinLength > c.Names.MaxLength {
		return fmt.Errorf("names.min_length %d exceeds max_length %d", c.Names.MinLength, c.Names.MaxLength)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("FLASHDECK_SERVER_HOST", &cfg.Server.Host)
	setString("FLASHDECK_TRANSPORT", &cfg.Server.Transport)
	setList("FLASHDECK_CORS_ORIGINS", &cfg.Server.CORSOrigins)
	setString("FLASHDECK_STORE_DRIVER", &cfg.Store.Driver)
	setString("FLASHDECK_DB_PATH", &cfg.Store.Path)
	setString("FLASHDECK_DB_DSN", &cfg.Store.DSN)
	setList("FLASHDECK_NAME_DENYLIST", &cfg.Names.Denylist)
	setString("FLASHDECK_JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("FLASHDECK_JWT_ISSUER", &cfg.Auth.JWTIssuer)
	setString("FLASHDECK_LOCAL_USER", &cfg.Auth.LocalUser)
	setString("FLASHDECK_LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("FLASHDECK_LLM_API_KEY", &cfg.LLM.APIKey)
	setString("FLASHDECK_LLM_MODEL", &cfg.LLM.Model)
	setString("FLASHDECK_STRIPE_SECRET_KEY", &cfg.Checkout.SecretKey)
	setString("FLASHDECK_STRIPE_API_URL", &cfg.Checkout.APIBaseURL)
	setString("FLASHDECK_CHECKOUT_RETURN_URL", &cfg.Checkout.ReturnURL)
	setString("FLASHDECK_LOG_LEVEL", &cfg.Log.Level)
	setString("FLASHDECK_LOG_PATH", &cfg.Log.File)

	if err := setInt("FLASHDECK_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("FLASHDECK_RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts); err != nil {
		return err
	}
	if err := setDuration("FLASHDECK_RETRY_BASE_DELAY", &cfg.Retry.BaseDelay); err != nil {
		return err
	}
	if err := setDuration("FLASHDECK_STUDY_SESSION_TTL", &cfg.Study.SessionTTL); err != nil {
		return err
	}
	if err := setDuration("FLASHDECK_LLM_TIMEOUT", &cfg.LLM.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("FLASHDECK_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FLASHDECK_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = f
	}
	if v := os.Getenv("FLASHDECK_AUTH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FLASHDECK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = b
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
