package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Report    ReportConfig    `yaml:"report"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path enables a size-capped log file next to stderr output.
	Path string `yaml:"path"`
}

// TransportConfig selects how MCP clients reach the server: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls API key checks on the HTTP surfaces. When disabled every
// request runs as DefaultUser.
type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DefaultUser string `yaml:"default_user"`
}

// LLMConfig configures chat completion and embeddings. Provider is "openai"
// (any OpenAI-compatible endpoint) or "none". EmbeddingProvider is "openai",
// "gemini" or "none".
type LLMConfig struct {
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	EmbeddingProvider string `yaml:"embedding_provider"`
	EmbeddingBaseURL  string `yaml:"embedding_base_url"`
	EmbeddingModel    string `yaml:"embedding_model"`
	Dimensions        int    `yaml:"dimensions"`
	MaxRetries        int    `yaml:"max_retries"`
	IndexWorkers      int    `yaml:"index_workers"`
}

// ReportConfig holds the zone whose days bound reports and log dates.
type ReportConfig struct {
	Timezone string `yaml:"timezone"`
}

// Location resolves the report timezone.
func (c ReportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "worklog.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "local",
		},
		LLM: LLMConfig{
			Provider:          "openai",
			EmbeddingProvider: "openai",
			EmbeddingModel:    "text-embedding-3-small",
			Model:             "gpt-4o-mini",
			Dimensions:        768,
			MaxRetries:        2,
			IndexWorkers:      4,
		},
		Report: ReportConfig{
			Timezone: "Asia/Seoul",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("WORKLOG_CONFIG_PATH"); path != "" {
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

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.LLM.Provider {
	case "openai", "none":
	default:
		return fmt.Errorf("invalid llm provider %q", c.LLM.Provider)
	}
	switch c.LLM.EmbeddingProvider {
	case "openai", "gemini", "none":
	default:
		return fmt.Errorf("invalid embedding provider %q", c.LLM.EmbeddingProvider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.Report.Location(); err != nil {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("WORKLOG_SERVER_HOST", &cfg.Server.Host)
	if err := setInt("WORKLOG_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	setString("WORKLOG_DB_PATH", &cfg.DB.Path)
	setString("WORKLOG_LOG_LEVEL", &cfg.Log.Level)
	setString("WORKLOG_LOG_PATH", &cfg.Log.Path)
	setString("WORKLOG_TRANSPORT", &cfg.Transport.Mode)
	if err := setBool("WORKLOG_AUTH_ENABLED", &cfg.Auth.Enabled); err != nil {
		return err
	}
	setString("WORKLOG_DEFAULT_USER", &cfg.Auth.DefaultUser)

	setString("WORKLOG_LLM_PROVIDER", &cfg.LLM.Provider)
	setString("WORKLOG_LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("WORKLOG_LLM_API_KEY", &cfg.LLM.APIKey)
	setString("WORKLOG_LLM_MODEL", &cfg.LLM.Model)
	setString("WORKLOG_EMBEDDING_PROVIDER", &cfg.LLM.EmbeddingProvider)
	setString("WORKLOG_EMBEDDING_BASE_URL", &cfg.LLM.EmbeddingBaseURL)
	setString("WORKLOG_EMBEDDING_MODEL", &cfg.LLM.EmbeddingModel)
	if err := setInt("WORKLOG_EMBEDDING_DIMENSIONS", &cfg.LLM.Dimensions); err != nil {
		return err
	}
	if err := setInt("WORKLOG_INDEX_WORKERS", &cfg.LLM.IndexWorkers); err != nil {
		return err
	}

	setString("WORKLOG_REPORT_TIMEZONE", &cfg.Report.Timezone)
	return nil
}

func setString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
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

func setBool(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
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
