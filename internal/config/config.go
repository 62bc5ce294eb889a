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

	"github.com/example/app-builder/internal/generation"
	"github.com/example/app-builder/internal/models"
	"github.com/example/app-builder/internal/providers/llm"
)

// Config holds the settings shared by the server and the CLI. Credentials are
// not part of it; they travel with each request.
type Config struct {
	// Server
	Port string

	// Provider
	Provider     string
	Model        string
	GeminiURL    string
	OpenAIURL    string
	AnthropicURL string

	// Generation
	Timeout         time.Duration
	MaxRetries      int
	MaxOutputTokens int32

	// Observability
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool

	// Briefs
	BriefMaxBytes int64
	BriefMaxPages int

	errs []error
}

// Load reads the environment after merging any .env files. Variables already
// set in the process win over file values. Bad values keep their defaults and
// are reported by Validate.
func Load(files ...string) *Config {
	c := &Config{}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.errs = append(c.errs, fmt.Errorf("load env file: %w", err))
	}

	c.Port = getEnv("PORT", "8080")
	c.Provider = strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	c.Model = getEnv("LLM_MODEL", llm.DefaultModel(c.Provider))
	c.GeminiURL = os.Getenv("GEMINI_API_URL")
	c.OpenAIURL = os.Getenv("OPENAI_API_BASE")
	c.AnthropicURL = os.Getenv("ANTHROPIC_API_URL")

	c.Timeout = c.millis("GENERATION_TIMEOUT_MS", models.DefaultTimeout)
	c.MaxRetries = c.integer("GENERATION_MAX_RETRIES", models.DefaultMaxRetries, 0)
	c.MaxOutputTokens = int32(c.integer("GENERATION_MAX_OUTPUT_TOKENS", 0, 0))

	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.LogFormat = getEnv("LOG_FORMAT", "json")
	c.MetricsEnabled = c.boolean("METRICS_ENABLED", true)

	c.BriefMaxBytes = int64(c.integer("BRIEF_MAX_BYTES", 20<<20, 1))
	c.BriefMaxPages = c.integer("BRIEF_MAX_PAGES", 20, 1)
	return c
}

// Validate reports every value Load could not use.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.errs...)
	switch c.Provider {
	case "gemini", "google", "gemini-http", "openai", "anthropic", "mock":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", c.Provider))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %q is not a number", c.Port))
	}
	return errors.Join(errs...)
}

// ProviderConfig selects the adapter and its endpoint.
func (c *Config) ProviderConfig() llm.Config {
	pc := llm.Config{Provider: c.Provider}
	switch c.Provider {
	case "openai":
		pc.BaseURL = c.OpenAIURL
	case "anthropic":
		pc.BaseURL = c.AnthropicURL
	default:
		pc.BaseURL = c.GeminiURL
	}
	return pc
}

// GenerationDefaults are the options applied when a request leaves them unset.
func (c *Config) GenerationDefaults() generation.Defaults {
	return generation.Defaults{
		Model:           c.Model,
		MaxRetries:      models.Retries(c.MaxRetries),
		Timeout:         c.Timeout,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) integer(key string, def, lowest int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lowest {
		c.errs = append(c.errs, fmt.Errorf("%s: want an integer >= %d, got %q", key, lowest, v))
		return def
	}
	return n
}

func (c *Config) millis(key string, def time.Duration) time.Duration {
	n := c.integer(key, int(def/time.Millisecond), 1)
	return time.Duration(n) * time.Millisecond
}

func (c *Config) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: want a boolean, got %q", key, v))
		return def
	}
	return b
}
