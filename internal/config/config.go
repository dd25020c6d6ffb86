// Package config loads actbot configuration from an optional YAML (or JSON) file,
// a .env file and ACTBOT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACTBOT_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Collaborator backends.
const (
	CollaboratorsLog    = "log"
	CollaboratorsSQLite = "sqlite"
	CollaboratorsMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Log           LogConfig           `yaml:"log"`
	HTTP          HTTPConfig          `yaml:"http"`
	Engine        EngineConfig        `yaml:"engine"`
	Store         StoreConfig         `yaml:"store"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig controls the API server.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EngineConfig tunes the interview state machine and its timers.
type EngineConfig struct {
	BypassToken      string        `yaml:"bypass_token"`
	MaxInvalidInputs int           `yaml:"max_invalid_inputs"`
	AnswerPacing     time.Duration `yaml:"answer_pacing"`
	CompletionPacing time.Duration `yaml:"completion_pacing"`
	NudgeAfter       time.Duration `yaml:"nudge_after"`
	TimeoutAfter     time.Duration `yaml:"timeout_after"`
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	Path          string        `yaml:"path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	EncryptionKey string        `yaml:"encryption_key"`
	FallbackKeys  []string      `yaml:"fallback_keys"`
}

// CollaboratorsConfig selects where answers, events and resume links go.
type CollaboratorsConfig struct {
	Backend    string   `yaml:"backend"`
	SQLitePath string   `yaml:"sqlite_path"`
	ResumeURL  string   `yaml:"resume_url"`
	MaskPII    bool     `yaml:"mask_pii"`
	PIIFields  []string `yaml:"pii_fields"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:  LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{Addr: ":8080"},
		Engine: EngineConfig{
			BypassToken:      "ACTFAST",
			MaxInvalidInputs: 3,
			AnswerPacing:     time.Second,
			CompletionPacing: 1500 * time.Millisecond,
			NudgeAfter:       8 * time.Minute,
			TimeoutAfter:     10 * time.Minute,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Path:    filepath.Join(".actbot", "sessions"),
			Prefix:  "actbot:session:",
			LockTTL: 30 * time.Second,
		},
		Collaborators: CollaboratorsConfig{
			Backend:    CollaboratorsLog,
			SQLitePath: filepath.Join(".actbot", "actbot.db"),
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is ignored.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given env files without overriding variables already set.
// Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// YAML is a superset of JSON, so .json files parse here too.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("HTTP_ADDR", &c.HTTP.Addr)
	list("ALLOWED_ORIGINS", &c.HTTP.AllowedOrigins)

	str("BYPASS_TOKEN", &c.Engine.BypassToken)
	num("MAX_INVALID_INPUTS", &c.Engine.MaxInvalidInputs)
	dur("ANSWER_PACING", &c.Engine.AnswerPacing)
	dur("COMPLETION_PACING", &c.Engine.CompletionPacing)
	dur("NUDGE_AFTER", &c.Engine.NudgeAfter)
	dur("TIMEOUT_AFTER", &c.Engine.TimeoutAfter)

	str("STORE", &c.Store.Backend)
	str("STORE_PATH", &c.Store.Path)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	num("REDIS_DB", &c.Store.RedisDB)
	str("STORE_PREFIX", &c.Store.Prefix)
	dur("SESSION_TTL", &c.Store.TTL)
	dur("LOCK_TTL", &c.Store.LockTTL)
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	list("FALLBACK_KEYS", &c.Store.FallbackKeys)

	str("COLLABORATORS", &c.Collaborators.Backend)
	str("SQLITE_PATH", &c.Collaborators.SQLitePath)
	str("RESUME_URL", &c.Collaborators.ResumeURL)
	flag("MASK_PII", &c.Collaborators.MaskPII)
	list("PII_FIELDS", &c.Collaborators.PIIFields)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.MaxInvalidInputs <= 0 {
		errs = append(errs, errors.New("engine.max_invalid_inputs must be > 0"))
	}
	if c.Engine.AnswerPacing < 0 || c.Engine.CompletionPacing < 0 {
		errs = append(errs, errors.New("engine pacing cannot be negative"))
	}
	if c.Engine.NudgeAfter <= 0 || c.Engine.TimeoutAfter <= 0 {
		errs = append(errs, errors.New("engine.nudge_after and engine.timeout_after must be > 0"))
	} else if c.Engine.NudgeAfter >= c.Engine.TimeoutAfter {
		errs = append(errs, errors.New("engine.nudge_after must be shorter than engine.timeout_after"))
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path cannot be empty for the file store"))
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr cannot be empty for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Collaborators.Backend {
	case CollaboratorsLog, CollaboratorsMemory:
	case CollaboratorsSQLite:
		if c.Collaborators.SQLitePath == "" {
			errs = append(errs, errors.New("collaborators.sqlite_path cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown collaborators backend %q", c.Collaborators.Backend))
	}

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr cannot be empty"))
	}
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
