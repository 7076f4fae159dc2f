// Package config provides environment configuration for the chat client and backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	// Client settings
	APIBaseURL         string        `yaml:"api_base_url"`
	APIDefaultTimeout  time.Duration `yaml:"api_default_timeout"`
	APIThinkingTimeout time.Duration `yaml:"api_thinking_timeout"`

	// Directory reconciliation after delete
	ReconcileDelay    time.Duration `yaml:"reconcile_delay"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileAttempts int           `yaml:"reconcile_attempts"`

	// Token store
	TokenStore     string `yaml:"token_store"`
	TokenFile      string `yaml:"token_file"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`

	// Server settings
	ServerPort         string        `yaml:"server_port"`
	ServerReadTimeout  time.Duration `yaml:"server_read_timeout"`
	ServerWriteTimeout time.Duration `yaml:"server_write_timeout"`

	// NATS settings
	NATSURL      string `yaml:"nats_url"`
	NATSToken    string `yaml:"nats_token"`
	NATSCAFile   string `yaml:"nats_ca_file"`
	NATSCertFile string `yaml:"nats_cert_file"`
	NATSKeyFile  string `yaml:"nats_key_file"`

	// JWT settings
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTExpiration time.Duration `yaml:"jwt_expiration"`

	// LLM settings
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string   `yaml:"openai_api_key"`
	OpenAIBaseURL   string   `yaml:"openai_base_url"`
	OpenAIModels    []string `yaml:"openai_models"`
	DefaultLLM      string   `yaml:"default_llm"`

	// Rate limiting
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`

	// CORS origins; empty allows any http(s) origin
	CORSOrigins []string `yaml:"cors_origins"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Tracing
	TracingEndpoint string `yaml:"tracing_endpoint"`
	TracingEnabled  bool   `yaml:"tracing_enabled"`
}

// Load reads configuration from environment variables. When AICHAT_CONFIG names a
// YAML file its values are applied first and environment variables take precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("AICHAT_CONFIG"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		APIBaseURL:         "http://localhost:8080/api",
		APIDefaultTimeout:  120 * time.Second,
		APIThinkingTimeout: 300 * time.Second,

		ReconcileDelay:    100 * time.Millisecond,
		ReconcileInterval: 250 * time.Millisecond,
		ReconcileAttempts: 1,

		TokenStore:     "file",
		TokenFile:      defaultTokenFile(),
		RedisAddr:      "localhost:6379",
		RedisKeyPrefix: "aichat:",

		ServerPort:         "8080",
		ServerReadTimeout:  30 * time.Second,
		ServerWriteTimeout: 330 * time.Second,

		JWTSecret:     "development-secret-change-in-production",
		JWTExpiration: 24 * time.Hour,

		DefaultLLM: "anthropic",

		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,

		LogLevel: "info",

		TracingEndpoint: "localhost:4318",
	}
}

// MergeFile overlays the values present in a YAML file onto cfg.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Client
	c.APIBaseURL = getEnv("AICHAT_API_URL", c.APIBaseURL)
	c.APIDefaultTimeout = getDurationEnv("AICHAT_API_TIMEOUT", c.APIDefaultTimeout)
	c.APIThinkingTimeout = getDurationEnv("AICHAT_THINKING_TIMEOUT", c.APIThinkingTimeout)

	// Reconciliation
	c.ReconcileDelay = getDurationEnv("AICHAT_RECONCILE_DELAY", c.ReconcileDelay)
	c.ReconcileInterval = getDurationEnv("AICHAT_RECONCILE_INTERVAL", c.ReconcileInterval)
	c.ReconcileAttempts = getIntEnv("AICHAT_RECONCILE_ATTEMPTS", c.ReconcileAttempts)

	// Token store
	c.TokenStore = getEnv("AICHAT_TOKEN_STORE", c.TokenStore)
	c.TokenFile = getEnv("AICHAT_TOKEN_FILE", c.TokenFile)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getIntEnv("REDIS_DB", c.RedisDB)
	c.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", c.RedisKeyPrefix)

	// Server
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.ServerReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.ServerReadTimeout)
	c.ServerWriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.ServerWriteTimeout)

	// NATS
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSToken = getEnv("NATS_TOKEN", c.NATSToken)
	c.NATSCAFile = getEnv("NATS_CA_FILE", c.NATSCAFile)
	c.NATSCertFile = getEnv("NATS_CERT_FILE", c.NATSCertFile)
	c.NATSKeyFile = getEnv("NATS_KEY_FILE", c.NATSKeyFile)

	// JWT
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTExpiration = getDurationEnv("JWT_EXPIRATION", c.JWTExpiration)

	// LLM
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	if models := getEnv("OPENAI_MODELS", ""); models != "" {
		c.OpenAIModels = splitList(models)
	}
	c.DefaultLLM = getEnv("DEFAULT_LLM", c.DefaultLLM)

	// Rate limiting
	c.RateLimitRequests = getIntEnv("RATE_LIMIT_REQUESTS", c.RateLimitRequests)
	c.RateLimitWindow = getDurationEnv("RATE_LIMIT_WINDOW", c.RateLimitWindow)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	// Logging
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	// Tracing
	c.TracingEndpoint = getEnv("TRACING_ENDPOINT", c.TracingEndpoint)
	c.TracingEnabled = getBoolEnv("TRACING_ENABLED", c.TracingEnabled)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aichat-credentials.json"
	}
	return dir + string(os.PathSeparator) + "aichat" + string(os.PathSeparator) + "credentials.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
