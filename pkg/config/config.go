// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ScorerProvider selects the ML risk scorer backend.
type ScorerProvider string

const (
	ScorerNone     ScorerProvider = "none"     // Keyword and tier heuristics only
	ScorerRemote   ScorerProvider = "remote"   // External HTTP scoring service
	ScorerSemantic ScorerProvider = "semantic" // Embedding similarity against crisis exemplars
	ScorerHugot    ScorerProvider = "hugot"    // Local ONNX text classification
)

// Config holds all settings for the safety service. Every field can be set
// via environment variables.
type Config struct {
	// Core
	Env        string // "production" hardens validation
	ListenAddr string // host:port the HTTP server binds to

	// Persistence. An empty DatabaseURL runs the service in degraded mode:
	// classification and moderation work, escalation persistence does not.
	DatabaseURL string

	// Redis event fan-out; empty disables the Redis publisher.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Risk scorer
	ScorerProvider    ScorerProvider
	ScorerBaseURL     string  // remote scorer endpoint
	EmbeddingModel    string  // semantic scorer embedding model
	EmbeddingBaseURL  string  // embedding server endpoint
	CriticalThreshold float64 // score at or above escalates a single crisis signal to CRITICAL

	// Escalation pipeline
	MaxConcurrentEscalations int
	EscalationTimeout        time.Duration

	// Crisis resource catalog; a YAML file used when the database catalog is
	// unavailable or unconfigured.
	ResourceCatalogPath string

	// SMTP for operator alert emails; empty host disables the channel.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// NewDefaultConfig builds a Config from the environment with development
// friendly defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Env:        strings.ToLower(GetEnv("BASTION_ENV", "development")),
		ListenAddr: GetEnv("BASTION_LISTEN_ADDR", ":8080"),

		DatabaseURL: GetEnv("DATABASE_URL", ""),

		RedisAddr:     GetEnv("BASTION_REDIS_ADDR", ""),
		RedisPassword: GetEnv("BASTION_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("BASTION_REDIS_DB", 0),

		ScorerProvider:    detectScorerProvider(),
		ScorerBaseURL:     GetEnv("BASTION_SCORER_URL", ""),
		EmbeddingModel:    GetEnv("BASTION_EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingBaseURL:  GetEnv("BASTION_EMBEDDING_URL", "http://localhost:11434"),
		CriticalThreshold: clampFloat(GetEnvFloat("BASTION_CRITICAL_THRESHOLD", 0.85), 0, 1),

		MaxConcurrentEscalations: clampInt(GetEnvInt("BASTION_MAX_ESCALATIONS", 64), 1, 4096),
		EscalationTimeout:        time.Duration(GetEnvInt("BASTION_ESCALATION_TIMEOUT_MS", 30000)) * time.Millisecond,

		ResourceCatalogPath: GetEnv("BASTION_RESOURCE_CATALOG", ""),

		SMTPHost:     GetEnv("BASTION_SMTP_HOST", ""),
		SMTPPort:     GetEnvInt("BASTION_SMTP_PORT", 587),
		SMTPUser:     GetEnv("BASTION_SMTP_USER", ""),
		SMTPPassword: GetEnv("BASTION_SMTP_PASSWORD", ""),
		SMTPFrom:     GetEnv("BASTION_SMTP_FROM", "alerts@mindhaven.local"),
	}
}

// detectScorerProvider resolves the scorer backend: explicit setting first,
// then whichever backend has enough configuration to run.
func detectScorerProvider() ScorerProvider {
	if p := os.Getenv("BASTION_SCORER_PROVIDER"); p != "" {
		return ScorerProvider(strings.ToLower(p))
	}
	if os.Getenv("BASTION_SCORER_URL") != "" {
		return ScorerRemote
	}
	if GetEnvBool("BASTION_ENABLE_HUGOT", false) || GetEnvBool("HUGOT_ENABLED", false) {
		return ScorerHugot
	}
	if os.Getenv("BASTION_EMBEDDING_URL") != "" {
		return ScorerSemantic
	}
	return ScorerNone
}

// IsProduction reports whether the service runs with production validation.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks configuration consistency. Production requires a database;
// development logs warnings and continues degraded.
func (c *Config) Validate() error {
	var missing []string

	switch c.ScorerProvider {
	case ScorerNone, ScorerRemote, ScorerSemantic, ScorerHugot:
	default:
		return fmt.Errorf("config: unknown scorer provider %q", c.ScorerProvider)
	}
	if c.ScorerProvider == ScorerRemote && c.ScorerBaseURL == "" {
		missing = append(missing, "BASTION_SCORER_URL (remote scorer selected)")
	}

	if c.CriticalThreshold <= 0 || c.CriticalThreshold > 1 {
		return fmt.Errorf("config: critical threshold %v outside (0, 1]", c.CriticalThreshold)
	}

	if c.DatabaseURL == "" {
		if c.IsProduction() {
			missing = append(missing, "DATABASE_URL (crisis flags cannot be persisted)")
		} else {
			log.Printf("[STARTUP] Warning: DATABASE_URL not set, escalation persistence disabled")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MustValidate exits the process on invalid configuration.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func clampFloat(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing, exported for other
// packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
