// Package config loads parley settings.
// Sources are layered: built-in defaults, an optional YAML file, an optional
// .env file, then PARLEY_* environment variables. Later sources win.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "PARLEY"

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "parley.yaml"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Retry     RetryConfig     `yaml:"retry" envconfig:"RETRY"`
	Interview InterviewConfig `yaml:"interview" envconfig:"INTERVIEW"`
	LLM       LLMConfig       `yaml:"llm" envconfig:"LLM"`
	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
}

// StoreConfig selects where checkpoints live.
type StoreConfig struct {
	Kind        string        `yaml:"kind" envconfig:"KIND"`
	Dir         string        `yaml:"dir" envconfig:"DIR"`
	RedisURL    string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" envconfig:"REDIS_PREFIX"`
	RedisTTL    time.Duration `yaml:"redis_ttl" envconfig:"REDIS_TTL"`
	LockTTL     time.Duration `yaml:"lock_ttl" envconfig:"LOCK_TTL"`
}

// RetryConfig tunes the policy wrapping every classifier and generator call.
type RetryConfig struct {
	Attempts      int           `yaml:"attempts" envconfig:"ATTEMPTS"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Backoff       time.Duration `yaml:"backoff" envconfig:"BACKOFF"`
	BackoffFactor float64       `yaml:"backoff_factor" envconfig:"BACKOFF_FACTOR"`
	MaxBackoff    time.Duration `yaml:"max_backoff" envconfig:"MAX_BACKOFF"`
}

// InterviewConfig bounds a session.
type InterviewConfig struct {
	MaxQuestions int `yaml:"max_questions" envconfig:"MAX_QUESTIONS"`
	MaxInputSize int `yaml:"max_input_size" envconfig:"MAX_INPUT_SIZE"`
	MaxSteps     int `yaml:"max_steps" envconfig:"MAX_STEPS"`
}

// LLMConfig points at an OpenAI-compatible endpoint. An empty APIKey selects
// the offline rule-based collaborators.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL     string  `yaml:"base_url" envconfig:"BASE_URL"`
	Model       string  `yaml:"model" envconfig:"MODEL"`
	MaxTokens   int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// SecurityConfig enables checkpoint encryption and PII redaction.
// Keys are base64-encoded 32-byte values.
type SecurityConfig struct {
	EncryptionKey string   `yaml:"encryption_key" envconfig:"ENCRYPTION_KEY"`
	FallbackKeys  []string `yaml:"fallback_keys" envconfig:"FALLBACK_KEYS"`
	RedactPII     bool     `yaml:"redact_pii" envconfig:"REDACT_PII"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: StoreConfig{
			Kind:        StoreFile,
			Dir:         ".parley/sessions",
			RedisURL:    "redis://localhost:6379/0",
			RedisPrefix: "parley:session:",
			LockTTL:     30 * time.Second,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Timeout:  30 * time.Second,
		},
		Interview: InterviewConfig{
			MaxQuestions: 3,
			MaxInputSize: 4096,
			MaxSteps:     100,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   512,
			Temperature: 0.7,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration. path may be empty, in which case DefaultFile
// is used when present. envFiles default to ".env"; missing env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q (want memory, file or redis)", c.Store.Kind)
	}
	if c.Store.Kind == StoreFile && c.Store.Dir == "" {
		return errors.New("store.dir is required for the file store")
	}
	if c.Store.Kind == StoreRedis && c.Store.RedisURL == "" {
		return errors.New("store.redis_url is required for the redis store")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Timeout <= 0 {
		return fmt.Errorf("retry.timeout must be positive, got %s", c.Retry.Timeout)
	}
	if c.Retry.Backoff < 0 || c.Retry.MaxBackoff < 0 || c.Retry.BackoffFactor < 0 {
		return errors.New("retry backoff settings cannot be negative")
	}
	if c.Interview.MaxQuestions < 1 {
		return fmt.Errorf("interview.max_questions must be at least 1, got %d", c.Interview.MaxQuestions)
	}
	if c.Interview.MaxInputSize < 1 {
		return fmt.Errorf("interview.max_input_size must be at least 1, got %d", c.Interview.MaxInputSize)
	}
	if c.Interview.MaxSteps < 1 {
		return fmt.Errorf("interview.max_steps must be at least 1, got %d", c.Interview.MaxSteps)
	}
	if _, _, err := c.Security.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (s SecurityConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("security.fallback_keys require security.encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("security.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("security.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
