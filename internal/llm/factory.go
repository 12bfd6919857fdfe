package llm

import (
	"context"
	"fmt"
	"strings"
)

type Config struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// NewChatClient builds the chat-completion adapter for the configured
// provider.
func NewChatClient(ctx context.Context, cfg Config) (ChatClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "", "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)

	case "ollama":
		// Ollama speaks the OpenAI-compatible API; key is ignored but the
		// client config requires one.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// NewSpeechClient builds the transcription/synthesis adapter. Speech is
// OpenAI-only (Whisper + TTS); other chat providers have no speech API
// in this stack.
func NewSpeechClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("speech requires an OpenAI API key")
	}
	return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
}
