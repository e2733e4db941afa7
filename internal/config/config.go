// Package config loads ladder's configuration from environment variables.
// All variables use the LADDER_ prefix; command-line flags override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/ladder/internal/llm"
	"github.com/abhisek/ladder/internal/progress"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Learner   LearnerConfig
	Store     StoreConfig
	Documents DocumentsConfig
	Course    CourseConfig
	Rules     RulesConfig
	Log       LogConfig
	LLM       llm.Config
}

// LearnerConfig identifies the local learner.
type LearnerConfig struct {
	// ID is the learner document key. Empty means a generated ID is
	// stored in the data dir on first run.
	ID   string
	Name string
}

// StoreConfig holds the local SQLite settings.
type StoreConfig struct {
	// Path is the database file. Empty means the XDG default.
	Path string
}

// DocumentsConfig selects where learner progress documents live.
type DocumentsConfig struct {
	Backend       string // sqlite, memory, redis or postgres
	URL           string
	MaxConns      int
	MinConns      int
	RetryInterval time.Duration
	WriteTimeout  time.Duration
}

// CourseConfig selects the content catalog.
type CourseConfig struct {
	// Dir holds module YAML files. Empty means the embedded course.
	Dir string
}

// RulesConfig overrides progression rules.
type RulesConfig struct {
	PassThreshold int
	QuizPassXP    int
	ReadingXP     int
	ModuleBonusXP int
	BypassBonusXP int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	// File receives log output. Empty means a file under the data dir
	// when the terminal UI runs, stderr otherwise.
	File string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	p := progression.DefaultPolicy()
	return Config{
		Documents: DocumentsConfig{
			Backend:       store.BackendSQLite,
			MaxConns:      10,
			MinConns:      1,
			RetryInterval: progress.DefaultRetryInterval,
			WriteTimeout:  progress.DefaultWriteTimeout,
		},
		Rules: RulesConfig{
			PassThreshold: p.PassThreshold,
			QuizPassXP:    p.QuizPassXP,
			ReadingXP:     p.ReadingXP,
			ModuleBonusXP: p.ModuleBonusXP,
			BypassBonusXP: p.BypassBonusXP,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads configuration from LADDER_ environment variables on top of
// DefaultConfig.
func Load() (Config, error) {
	d := DefaultConfig()
	cfg := Config{
		Learner: LearnerConfig{
			ID:   envStr("LADDER_LEARNER", ""),
			Name: envStr("LADDER_LEARNER_NAME", ""),
		},
		Store: StoreConfig{
			Path: envStr("LADDER_DB", ""),
		},
		Documents: DocumentsConfig{
			Backend:       strings.ToLower(envStr("LADDER_BACKEND", d.Documents.Backend)),
			URL:           envStr("LADDER_BACKEND_URL", ""),
			MaxConns:      envInt("LADDER_BACKEND_MAX_CONNS", d.Documents.MaxConns),
			MinConns:      envInt("LADDER_BACKEND_MIN_CONNS", d.Documents.MinConns),
			RetryInterval: envDuration("LADDER_SAVE_RETRY", d.Documents.RetryInterval),
			WriteTimeout:  envDuration("LADDER_SAVE_TIMEOUT", d.Documents.WriteTimeout),
		},
		Course: CourseConfig{
			Dir: envStr("LADDER_CATALOG", ""),
		},
		Rules: RulesConfig{
			PassThreshold: envInt("LADDER_PASS_THRESHOLD", d.Rules.PassThreshold),
			QuizPassXP:    envInt("LADDER_XP_QUIZ", d.Rules.QuizPassXP),
			ReadingXP:     envInt("LADDER_XP_READING", d.Rules.ReadingXP),
			ModuleBonusXP: envInt("LADDER_XP_MODULE", d.Rules.ModuleBonusXP),
			BypassBonusXP: envInt("LADDER_XP_BYPASS", d.Rules.BypassBonusXP),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("LADDER_LOG_LEVEL", d.Log.Level)),
			Format: strings.ToLower(envStr("LADDER_LOG_FORMAT", d.Log.Format)),
			File:   envStr("LADDER_LOG_FILE", ""),
		},
		LLM: llm.ConfigFromEnv(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be used as given.
func (c Config) Validate() error {
	switch c.Documents.Backend {
	case store.BackendSQLite, store.BackendMemory:
	case store.BackendRedis, store.BackendPostgres:
		if c.Documents.URL == "" {
			return fmt.Errorf("LADDER_BACKEND_URL is required for the %s backend", c.Documents.Backend)
		}
	default:
		return fmt.Errorf("LADDER_BACKEND must be sqlite, memory, redis or postgres, got %q", c.Documents.Backend)
	}

	if c.Rules.PassThreshold < 1 || c.Rules.PassThreshold > 100 {
		return fmt.Errorf("LADDER_PASS_THRESHOLD must be between 1 and 100, got %d", c.Rules.PassThreshold)
	}
	for name, v := range map[string]int{
		"LADDER_XP_QUIZ":    c.Rules.QuizPassXP,
		"LADDER_XP_READING": c.Rules.ReadingXP,
		"LADDER_XP_MODULE":  c.Rules.ModuleBonusXP,
		"LADDER_XP_BYPASS":  c.Rules.BypassBonusXP,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("LADDER_LOG_FORMAT must be 'text' or 'json', got %q", c.Log.Format)
	}
	if c.Documents.RetryInterval <= 0 || c.Documents.WriteTimeout <= 0 {
		return fmt.Errorf("save retry and timeout must be positive")
	}
	return nil
}

// Policy returns the progression policy described by the rules.
func (c Config) Policy() progression.Policy {
	p := progression.DefaultPolicy()
	p.PassThreshold = c.Rules.PassThreshold
	p.QuizPassXP = c.Rules.QuizPassXP
	p.ReadingXP = c.Rules.ReadingXP
	p.ModuleBonusXP = c.Rules.ModuleBonusXP
	p.BypassBonusXP = c.Rules.BypassBonusXP
	return p
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
