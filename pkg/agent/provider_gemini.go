package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-pro"

// GeminiProvider implements Provider for Google Gemini.
type GeminiProvider struct {
	apiKey string
}

// NewGeminiProvider creates a new Gemini provider. The client is built
// lazily because genai requires a context at construction.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Call makes an API call to Google Gemini.
func (p *GeminiProvider) Call(ctx context.Context, request Request) (*Response, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := request.Model
	if model == "" {
		model = defaultGeminiModel
	}

	prompt := request.Prompt
	if request.System != "" {
		prompt = request.System + "\n\n" + prompt
	}

	config := &genai.GenerateContentConfig{}
	if request.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(request.Temperature))
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	response, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	return &Response{Content: response.Text()}, nil
}
