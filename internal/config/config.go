// Package config defines the service configuration and its loader.
package config

import "fmt"

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Browser   BrowserConfig   `json:"browser" mapstructure:"browser"`
	AI        AIConfig        `json:"ai" mapstructure:"ai"`
	Retention RetentionConfig `json:"retention" mapstructure:"retention"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	DataDir   string          `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// BrowserConfig holds the default browser provisioning settings.
// Request-level config overrides these per session.
type BrowserConfig struct {
	Headless           bool   `json:"headless" mapstructure:"headless"`
	UseExistingBrowser bool   `json:"use_existing_browser" mapstructure:"use_existing_browser"`
	CDPURL             string `json:"cdp_url" mapstructure:"cdp_url"`
	ChromePath         string `json:"chrome_path" mapstructure:"chrome_path"`
}

// AIConfig holds LLM provider credentials and engine defaults. Keys
// left empty are filled from the environment at startup.
type AIConfig struct {
	GoogleAPIKey    string  `json:"google_api_key" mapstructure:"google_api_key"`
	OpenAIAPIKey    string  `json:"openai_api_key" mapstructure:"openai_api_key"`
	AnthropicAPIKey string  `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	Model           string  `json:"model" mapstructure:"model"`
	Temperature     float64 `json:"temperature" mapstructure:"temperature"`
}

// RetentionConfig controls eviction of finished sessions.
type RetentionConfig struct {
	TTLHours int    `json:"ttl_hours" mapstructure:"ttl_hours"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Browser: BrowserConfig{
			Headless: true,
			CDPURL:   "ws://localhost:9222",
		},
		AI: AIConfig{
			Temperature: 0.0,
		},
		Retention: RetentionConfig{
			TTLHours: 24,
			Schedule: "0 * * * *",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Retention.TTLHours < 0 {
		return fmt.Errorf("retention ttl_hours must not be negative, got %d", c.Retention.TTLHours)
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	return nil
}
