package explain

import (
	"context"

	"github.com/carelane/previsit/internal/llm"
)

type MockChatClient struct {
	Response string
	Err      error
	// LastSystem and LastMessages capture the most recent call for
	// prompt assertions.
	LastSystem   string
	LastMessages []llm.Message
}

func (m *MockChatClient) Complete(ctx context.Context, system string, messages []llm.Message, temperature float32, maxTokens int) (string, error) {
	m.LastSystem = system
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
