package intake

import (
	"context"

	"github.com/carelane/previsit/internal/llm"
)

type MockSTT struct {
	Text     string
	Err      error
	LastLang string
}

func (m *MockSTT) Transcribe(ctx context.Context, audio []byte, filename string, language string) (string, error) {
	m.LastLang = language
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

type MockChat struct {
	Response     string
	Err          error
	LastSystem   string
	LastMessages []llm.Message
}

func (m *MockChat) Complete(ctx context.Context, system string, messages []llm.Message, temperature float32, maxTokens int) (string, error) {
	m.LastSystem = system
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockTTS struct {
	Audio     []byte
	Err       error
	LastText  string
	LastVoice string
	LastSpeed float64
}

func (m *MockTTS) Synthesize(ctx context.Context, text string, voice string, speed float64) ([]byte, string, error) {
	m.LastText = text
	m.LastVoice = voice
	m.LastSpeed = speed
	if m.Err != nil {
		return nil, "", m.Err
	}
	return m.Audio, "mp3", nil
}
