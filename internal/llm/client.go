package llm

import (
	"context"
)

// Message is one role/content turn passed to a chat provider.
type Message struct {
	Role    string
	Content string
}

// ChatClient is the normalized chat-completion contract. Adapters absorb
// provider response-shape differences so callers never sniff shapes.
type ChatClient interface {
	Complete(ctx context.Context, system string, messages []Message, temperature float32, maxTokens int) (string, error)
}

// SpeechToTextClient transcribes raw audio. The returned text may be
// empty for silent or unintelligible input; that is not an error.
type SpeechToTextClient interface {
	Transcribe(ctx context.Context, audio []byte, filename string, language string) (string, error)
}

// TextToSpeechClient synthesizes narration audio. Returns the audio
// bytes and their format ("mp3").
type TextToSpeechClient interface {
	Synthesize(ctx context.Context, text string, voice string, speed float64) ([]byte, string, error)
}
