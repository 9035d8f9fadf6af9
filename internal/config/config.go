package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for costnav.
type Config struct {
	ZipFile          string        `yaml:"zip_file"`
	DSN              string        `yaml:"database_url"`
	PostgresHost     string        `yaml:"postgres_host"`
	PostgresPort     int           `yaml:"postgres_port"`
	PostgresDB       string        `yaml:"postgres_db"`
	PostgresUser     string        `yaml:"postgres_user"`
	PostgresPassword string        `yaml:"postgres_password"`
	BatchSize        int           `yaml:"batch_size"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"` // "text" or "json"
	LLMModel         string        `yaml:"llm_model"`  // "provider:model"
	LLMAPIKey        string        `yaml:"-"`          // never read from files
	LLMTimeout       time.Duration `yaml:"llm_timeout"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	HTTPAddr         string        `yaml:"http_addr"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// Defaults returns a Config populated with the documented defaults.
func Defaults() Config {
	return Config{
		ZipFile:          "data_zip.txt",
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresDB:       "health",
		PostgresUser:     "health",
		PostgresPassword: "health",
		BatchSize:        500,
		LogLevel:         "info",
		LogFormat:        "text",
		LLMModel:         "openai:gpt-4o-mini",
		LLMTimeout:       20 * time.Second,
		ProgressInterval: 5 * time.Second,
		HTTPAddr:         ":8000",
		StatementTimeout: 10 * time.Second,
	}
}

// FromEnv returns the defaults overridden by any recognized environment variables.
func FromEnv() Config {
	c := Defaults()
	c.ZipFile = getEnv("ZIP_LOCAL_FILE", c.ZipFile)
	c.DSN = getEnv("DATABASE_URL", c.DSN)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnvInt("POSTGRES_PORT", c.PostgresPort)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.BatchSize = getEnvInt("BATCH_SIZE", c.BatchSize)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMTimeout = getEnvDuration("LLM_TIMEOUT", c.LLMTimeout)
	c.ProgressInterval = getEnvDuration("PROGRESS_INTERVAL", c.ProgressInterval)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.StatementTimeout = getEnvDuration("STATEMENT_TIMEOUT", c.StatementTimeout)
	c.LLMAPIKey = c.resolveAPIKey()
	return c
}

// resolveAPIKey prefers LLM_API_KEY, then the provider-specific variable.
func (c *Config) resolveAPIKey() string {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		return v
	}
	switch c.Provider() {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// Provider returns the provider prefix of LLMModel ("openai", "anthropic", ...).
func (c *Config) Provider() string {
	p, _, _ := strings.Cut(c.LLMModel, ":")
	return p
}

// LoadFromFile reads a YAML config file and merges its non-zero values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.merge(fc)
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = c.resolveAPIKey()
	}
	return c.Validate()
}

func (c *Config) merge(o Config) {
	if o.ZipFile != "" {
		c.ZipFile = o.ZipFile
	}
	if o.DSN != "" {
		c.DSN = o.DSN
	}
	if o.PostgresHost != "" {
		c.PostgresHost = o.PostgresHost
	}
	if o.PostgresPort != 0 {
		c.PostgresPort = o.PostgresPort
	}
	if o.PostgresDB != "" {
		c.PostgresDB = o.PostgresDB
	}
	if o.PostgresUser != "" {
		c.PostgresUser = o.PostgresUser
	}
	if o.PostgresPassword != "" {
		c.PostgresPassword = o.PostgresPassword
	}
	if o.BatchSize != 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.LLMModel != "" {
		c.LLMModel = o.LLMModel
	}
	if o.LLMTimeout != 0 {
		c.LLMTimeout = o.LLMTimeout
	}
	if o.ProgressInterval != 0 {
		c.ProgressInterval = o.ProgressInterval
	}
	if o.HTTPAddr != "" {
		c.HTTPAddr = o.HTTPAddr
	}
	if o.StatementTimeout != 0 {
		c.StatementTimeout = o.StatementTimeout
	}
}

// DatabaseURL returns DSN when set, otherwise a URL assembled from the
// individual POSTGRES_* parameters.
func (c *Config) DatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

// Validate checks value ranges and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.BatchSize)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("llm timeout must be > 0, got %s", c.LLMTimeout)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be > 0, got %s", c.ProgressInterval)
	}
	if c.DSN == "" && c.PostgresHost == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
