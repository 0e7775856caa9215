package agrivaani

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the assistant server.
type Config struct {
	// Addr is the listen address. Defaults to ":5000".
	Addr string `yaml:"addr"`

	// Provider selects the generation backend: "openai" or "anthropic".
	// Defaults to "openai".
	Provider string `yaml:"provider"`

	// Model is the generation model name. Defaults depend on the provider.
	Model string `yaml:"model"`

	// OpenAIAPIKey authenticates the OpenAI provider.
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// AnthropicAPIKey authenticates the Anthropic provider.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Reverie holds TTS provider credentials. Both fields are required for
	// synthesis; requests fail with a configuration error otherwise.
	Reverie ReverieConfig `yaml:"reverie"`

	// DatabaseURL enables the postgres stores. Empty means in-memory.
	DatabaseURL string `yaml:"database_url"`

	// HistoryLimit is the number of recent messages included in the prompt.
	// Defaults to 5.
	HistoryLimit int `yaml:"history_limit"`

	// LocationTTL is how long a location snapshot stays fresh.
	// Defaults to 5 minutes.
	LocationTTL time.Duration `yaml:"location_ttl"`

	// AllowedOrigins for CORS. Defaults to allowing all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ReverieConfig holds the TTS provider credential pair.
type ReverieConfig struct {
	APIKey string `yaml:"api_key"`
	AppID  string `yaml:"app_id"`
	URL    string `yaml:"url"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty path skips the file and uses environment and defaults only.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg.withDefaults(), nil
}

// applyEnv lets the environment override file values. Secrets normally
// arrive this way rather than through the file.
func (c *Config) applyEnv() {
	setIfPresent(&c.Addr, "AGRIVAANI_ADDR")
	setIfPresent(&c.Provider, "AGRIVAANI_PROVIDER")
	setIfPresent(&c.Model, "AGRIVAANI_MODEL")
	setIfPresent(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setIfPresent(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setIfPresent(&c.Reverie.APIKey, "REVERIE_API_KEY")
	setIfPresent(&c.Reverie.AppID, "REVERIE_APP_ID")
	setIfPresent(&c.DatabaseURL, "DATABASE_URL")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// withDefaults applies default values to the config.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		switch c.Provider {
		case "anthropic":
			c.Model = "claude-3-5-sonnet-latest"
		default:
			c.Model = "gpt-4o-mini"
		}
	}
	if c.Reverie.URL == "" {
		c.Reverie.URL = "https://revapi.reverieinc.com/"
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 5
	}
	if c.LocationTTL <= 0 {
		c.LocationTTL = 5 * time.Minute
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	return c
}

// Validate checks that required fields are set for the chosen provider.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return NewConfigurationError("OPENAI_API_KEY is required")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return NewConfigurationError("ANTHROPIC_API_KEY is required")
		}
	default:
		return NewConfigurationError(fmt.Sprintf("unknown provider %q", c.Provider))
	}
	return nil
}
