package agent

import (
	"os"

	"github.com/rs/zerolog"
)

// Credentials holds the API keys considered during provider selection.
type Credentials struct {
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// CredentialsFromEnv reads provider credentials from the environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

// Merge overlays non-empty keys from other on top of c.
func (c Credentials) Merge(other Credentials) Credentials {
	if other.GoogleAPIKey != "" {
		c.GoogleAPIKey = other.GoogleAPIKey
	}
	if other.OpenAIAPIKey != "" {
		c.OpenAIAPIKey = other.OpenAIAPIKey
	}
	if other.AnthropicAPIKey != "" {
		c.AnthropicAPIKey = other.AnthropicAPIKey
	}
	return c
}

// providerFactory attempts to create a provider from credentials,
// returning nil when its credential is absent.
type providerFactory struct {
	name   string
	create func(creds Credentials) Provider
}

// factories is the fixed priority order for provider selection.
var factories = []providerFactory{
	{
		name: "gemini",
		create: func(creds Credentials) Provider {
			if creds.GoogleAPIKey == "" {
				return nil
			}
			return NewGeminiProvider(creds.GoogleAPIKey)
		},
	},
	{
		name: "openai",
		create: func(creds Credentials) Provider {
			if creds.OpenAIAPIKey == "" {
				return nil
			}
			return NewOpenAIProvider(creds.OpenAIAPIKey)
		},
	},
	{
		name: "anthropic",
		create: func(creds Credentials) Provider {
			if creds.AnthropicAPIKey == "" {
				return nil
			}
			return NewAnthropicProvider(creds.AnthropicAPIKey)
		},
	},
}

// SelectProvider walks the factory list in priority order and returns
// the first provider whose credential is present. With no credentials
// it returns the mock provider rather than blocking startup.
func SelectProvider(creds Credentials, logger zerolog.Logger) Provider {
	for _, f := range factories {
		if p := f.create(creds); p != nil {
			logger.Info().Str("provider", f.name).Msg("Selected LLM provider")
			return p
		}
	}

	logger.Warn().Msg("No LLM API keys found, using mock provider")
	return NewMockProvider()
}
