package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string        `env:"APP_ENV" envDefault:"development"`
	LogLevel           string        `env:"LOG_LEVEL"`
	Port               string        `env:"PORT" envDefault:"8080"`
	HTTPReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"180s"`
	HTTPIdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RateLimitPerMin    int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	DefaultLocale      string        `env:"DEFAULT_LOCALE" envDefault:"en"`

	ProviderHTTPTimeout time.Duration `env:"PROVIDER_HTTP_TIMEOUT" envDefault:"60s"`
	PollInterval        time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	PollMaxAttempts     int           `env:"POLL_MAX_ATTEMPTS" envDefault:"30"`
	ProvidersFile       string        `env:"PROVIDERS_FILE"`

	StabilityAPIKey   string `env:"STABLE_API_KEY"`
	XAIAPIKey         string `env:"XAI_API_KEY"`
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN"`
	BFLAPIKey         string `env:"BFL_API_KEY"`
	HuggingFaceAPIKey string `env:"HUGGINGFACE_API_KEY"`

	// Providers holds the optional overrides read from ProvidersFile.
	Providers []ProviderOverride `env:"-"`
}

// ProviderOverride adjusts one registry entry. Nil fields keep the built-in value.
type ProviderOverride struct {
	Name         string         `yaml:"name"`
	Enabled      *bool          `yaml:"enabled"`
	BaseURL      string         `yaml:"base_url"`
	Model        string         `yaml:"model"`
	PollInterval *time.Duration `yaml:"poll_interval"`
	MaxAttempts  *int           `yaml:"max_attempts"`
}

type providersFile struct {
	Providers []ProviderOverride `yaml:"providers"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}

	if path := strings.TrimSpace(cfg.ProvidersFile); path != "" {
		overrides, err := LoadProviderOverrides(path)
		if err != nil {
			return nil, err
		}
		cfg.Providers = overrides
	}

	return cfg, nil
}

// LoadProviderOverrides reads the YAML provider list at path.
func LoadProviderOverrides(path string) ([]ProviderOverride, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var file providersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse providers file %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(file.Providers))
	for i := range file.Providers {
		name := strings.ToLower(strings.TrimSpace(file.Providers[i].Name))
		if name == "" {
			return nil, fmt.Errorf("providers file %s: entry %d has no name", path, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("providers file %s: duplicate provider %q", path, name)
		}
		seen[name] = struct{}{}
		file.Providers[i].Name = name
	}
	return file.Providers, nil
}

// Credentials returns the configured provider secrets keyed by their
// environment variable name. Blank values are omitted.
func (c *Config) Credentials() map[string]string {
	all := map[string]string{
		"STABLE_API_KEY":      c.StabilityAPIKey,
		"XAI_API_KEY":         c.XAIAPIKey,
		"REPLICATE_API_TOKEN": c.ReplicateAPIToken,
		"BFL_API_KEY":         c.BFLAPIKey,
		"HUGGINGFACE_API_KEY": c.HuggingFaceAPIKey,
	}
	out := make(map[string]string, len(all))
	for key, value := range all {
		if v := strings.TrimSpace(value); v != "" {
			out[key] = v
		}
	}
	return out
}
