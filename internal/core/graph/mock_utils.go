package graph

import (
	"context"

	"github.com/carelane/previsit/internal/llm"
)

type MockChatClient struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockChatClient) Complete(ctx context.Context, system string, messages []llm.Message, temperature float32, maxTokens int) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
