package report

import (
	"context"

	"github.com/carelane/previsit/internal/llm"
)

type MockChatClient struct {
	Response   string
	Err        error
	LastSystem string
	LastUser   string
}

func (m *MockChatClient) Complete(ctx context.Context, system string, messages []llm.Message, temperature float32, maxTokens int) (string, error) {
	m.LastSystem = system
	if len(messages) > 0 {
		m.LastUser = messages[len(messages)-1].Content
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
