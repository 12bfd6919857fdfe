// Package intake runs the voice turn cycle of a patient conversation:
// transcribe, reply, synthesize. The three provider calls are strictly
// sequential within one session; a failed stage aborts the turn and
// leaves the committed transcript untouched.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/core/session"
	"github.com/carelane/previsit/internal/llm"
)

// turnTimeout bounds each full turn cycle; a timeout is an ordinary
// stage failure.
const turnTimeout = 30 * time.Second

const temperature = 0.3

// noMoreQuestions is the model's convention for ending the interview.
const noMoreQuestions = "NO_MORE_QUESTIONS"

const closingReply = "Thank you for completing the pre-visit form. Reach out if you need anything, and we look forward to meeting with you."

const defaultSystemPrompt = `You are a medical AI assistant tasked with helping a healthcare provider understand a patient's symptoms.
Your primary goal is to generate guiding, open-ended follow-up questions that uncover key details about
the patient's condition, without providing any diagnosis or treatment advice.

Use both the conversation and the patient's EMR extract below to make each question personalized and
clinically relevant. Focus on clarifying vague or incomplete statements and uncovering relevant symptoms,
especially where they may interact with prior conditions or treatments. Keep questions open-ended and
conversational, avoid assumptions or diagnoses, and never repeat a question already answered.
If three follow-up questions have already been asked, respond with NO_MORE_QUESTIONS.
Respond only with the single question, or NO_MORE_QUESTIONS.

Refer to this patient's EMR:
%s`

// Settings are the per-request voice options sent by the client.
type Settings struct {
	Language string  `json:"language"` // e.g. "en-US"
	VoiceID  string  `json:"voiceId"`
	Rate     float64 `json:"rate"`
}

type TurnResult struct {
	Transcript  string `json:"transcription"`
	ReplyText   string `json:"text"`
	ReplyAudio  []byte `json:"-"`
	AudioFormat string `json:"audioFormat"`
}

type Service struct {
	stt      llm.SpeechToTextClient
	chat     llm.ChatClient
	tts      llm.TextToSpeechClient
	sessions *session.Store
	system   string

	defaultLanguage string
	defaultVoice    string
	defaultSpeed    float64
}

func NewService(stt llm.SpeechToTextClient, chat llm.ChatClient, tts llm.TextToSpeechClient,
	sessions *session.Store, systemPrompt string, record map[string]interface{},
	language, voice string, speed float64) *Service {

	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	emrJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		emrJSON = []byte("{}")
	}

	return &Service{
		stt:             stt,
		chat:            chat,
		tts:             tts,
		sessions:        sessions,
		system:          fmt.Sprintf(systemPrompt, string(emrJSON)),
		defaultLanguage: language,
		defaultVoice:    voice,
		defaultSpeed:    speed,
	}
}

func (s *Service) Sessions() *session.Store { return s.sessions }

// SubmitTurn runs one full turn for the session. The user/assistant
// pair is committed only after all three stages succeed, so a failure
// at any stage leaves prior turns intact and the failed turn absent.
func (s *Service) SubmitTurn(ctx context.Context, sessionID string, audio []byte, st Settings) (*TurnResult, error) {
	sess := s.sessions.Get(sessionID)
	if err := sess.Begin(); err != nil {
		return nil, err
	}
	defer sess.End()

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	userText, err := s.stt.Transcribe(ctx, audio, "audio.webm", shortLang(st.Language, s.defaultLanguage))
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	userText = strings.TrimSpace(userText)

	// Prompt with committed history plus the not-yet-committed user turn.
	recent := sess.Recent(session.HistoryWindow)
	msgs := make([]llm.Message, 0, len(recent)+1)
	for _, t := range recent {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	if userText != "" {
		msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: userText})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: "(inaudible)"})
	}

	reply, err := s.chat.Complete(ctx, s.system, msgs, temperature, 0)
	if err != nil {
		return nil, fmt.Errorf("reply generation failed: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "Could you share a bit more detail?"
	}
	if strings.Contains(reply, noMoreQuestions) {
		reply = closingReply
	}

	voice := st.VoiceID
	if voice == "" {
		voice = s.defaultVoice
	}
	speed := st.Rate
	if speed == 0 {
		speed = s.defaultSpeed
	}
	audioOut, format, err := s.tts.Synthesize(ctx, reply, voice, speed)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	// All stages succeeded; commit the turn pair.
	if userText != "" {
		sess.Append(model.Turn{Role: model.RoleUser, Content: userText})
	}
	sess.Append(model.Turn{Role: model.RoleAssistant, Content: reply})

	return &TurnResult{
		Transcript:  userText,
		ReplyText:   reply,
		ReplyAudio:  audioOut,
		AudioFormat: format,
	}, nil
}

// shortLang maps a BCP-47 tag like "en-US" to the short code Whisper
// expects.
func shortLang(lang, fallback string) string {
	if lang == "" {
		lang = fallback
	}
	if i := strings.Index(lang, "-"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
