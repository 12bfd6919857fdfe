package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/previsit/internal/core/emr"
	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/core/session"
)

func newTestService(stt *MockSTT, chat *MockChat, tts *MockTTS) *Service {
	return NewService(stt, chat, tts, session.NewStore(), "", emr.Demo(), "en", "alloy", 1.0)
}

func TestSubmitTurnHappyPath(t *testing.T) {
	stt := &MockSTT{Text: "I have had headaches for a week"}
	chat := &MockChat{Response: "How would you describe the pain?"}
	tts := &MockTTS{Audio: []byte("mp3bytes")}
	svc := newTestService(stt, chat, tts)

	res, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("audio"), Settings{Language: "en-US"})
	require.NoError(t, err)

	assert.Equal(t, "I have had headaches for a week", res.Transcript)
	assert.Equal(t, "How would you describe the pain?", res.ReplyText)
	assert.Equal(t, []byte("mp3bytes"), res.ReplyAudio)
	assert.Equal(t, "mp3", res.AudioFormat)
	assert.Equal(t, "en", stt.LastLang)

	turns := svc.Sessions().Get("sid-1").Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
}

func TestTurnOrderingAcrossSequentialTurns(t *testing.T) {
	stt := &MockSTT{Text: "turn A"}
	chat := &MockChat{Response: "reply A"}
	tts := &MockTTS{Audio: []byte("x")}
	svc := newTestService(stt, chat, tts)

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.NoError(t, err)

	stt.Text = "turn B"
	chat.Response = "reply B"
	_, err = svc.SubmitTurn(context.Background(), "sid-1", []byte("b"), Settings{})
	require.NoError(t, err)

	turns := svc.Sessions().Get("sid-1").Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, []model.Turn{
		{Role: model.RoleUser, Content: "turn A"},
		{Role: model.RoleAssistant, Content: "reply A"},
		{Role: model.RoleUser, Content: "turn B"},
		{Role: model.RoleAssistant, Content: "reply B"},
	}, turns)

	// The second turn's prompt saw the first turn's committed pair.
	require.Len(t, chat.LastMessages, 3)
	assert.Equal(t, "turn A", chat.LastMessages[0].Content)
	assert.Equal(t, "reply A", chat.LastMessages[1].Content)
	assert.Equal(t, "turn B", chat.LastMessages[2].Content)
}

func TestFailedStageLeavesTranscriptUntouched(t *testing.T) {
	stt := &MockSTT{Text: "first"}
	chat := &MockChat{Response: "reply"}
	tts := &MockTTS{Audio: []byte("x")}
	svc := newTestService(stt, chat, tts)

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.NoError(t, err)

	// Chat failure: the turn aborts, nothing new is committed.
	stt.Text = "second"
	chat.Err = errors.New("provider down")
	_, err = svc.SubmitTurn(context.Background(), "sid-1", []byte("b"), Settings{})
	require.Error(t, err)
	assert.Len(t, svc.Sessions().Get("sid-1").Turns(), 2)

	// TTS failure likewise: user text is not half-committed.
	chat.Err = nil
	tts.Err = errors.New("tts down")
	_, err = svc.SubmitTurn(context.Background(), "sid-1", []byte("c"), Settings{})
	require.Error(t, err)
	assert.Len(t, svc.Sessions().Get("sid-1").Turns(), 2)
}

func TestTranscriptionFailureAborts(t *testing.T) {
	stt := &MockSTT{Err: errors.New("whisper down")}
	svc := newTestService(stt, &MockChat{}, &MockTTS{})

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription failed")
	assert.Empty(t, svc.Sessions().Get("sid-1").Turns())
}

func TestBusySessionRejected(t *testing.T) {
	svc := newTestService(&MockSTT{Text: "x"}, &MockChat{Response: "y"}, &MockTTS{Audio: []byte("z")})
	sess := svc.Sessions().Get("sid-1")
	require.NoError(t, sess.Begin())
	defer sess.End()

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	assert.ErrorIs(t, err, session.ErrBusy)
}

func TestNoMoreQuestionsBecomesClosing(t *testing.T) {
	chat := &MockChat{Response: "NO_MORE_QUESTIONS"}
	tts := &MockTTS{Audio: []byte("x")}
	svc := newTestService(&MockSTT{Text: "ok"}, chat, tts)

	res, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.NoError(t, err)
	assert.Equal(t, closingReply, res.ReplyText)
	assert.Equal(t, closingReply, tts.LastText)
}

func TestEmptyTranscriptStillReplies(t *testing.T) {
	chat := &MockChat{Response: "Could you repeat that?"}
	svc := newTestService(&MockSTT{Text: "   "}, chat, &MockTTS{Audio: []byte("x")})

	res, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.NoError(t, err)
	assert.Empty(t, res.Transcript)

	// Only the assistant turn is committed.
	turns := svc.Sessions().Get("sid-1").Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleAssistant, turns[0].Role)
}

func TestSystemPromptCarriesEMR(t *testing.T) {
	chat := &MockChat{Response: "q"}
	svc := newTestService(&MockSTT{Text: "hi there"}, chat, &MockTTS{Audio: []byte("x")})

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{})
	require.NoError(t, err)
	assert.Contains(t, chat.LastSystem, "Chronic Migraine")
}

func TestVoiceSettingsPassedThrough(t *testing.T) {
	tts := &MockTTS{Audio: []byte("x")}
	svc := newTestService(&MockSTT{Text: "hi"}, &MockChat{Response: "q"}, tts)

	_, err := svc.SubmitTurn(context.Background(), "sid-1", []byte("a"), Settings{VoiceID: "nova", Rate: 1.2})
	require.NoError(t, err)
	assert.Equal(t, "nova", tts.LastVoice)
	assert.Equal(t, 1.2, tts.LastSpeed)

	// Defaults apply when the client sends nothing.
	_, err = svc.SubmitTurn(context.Background(), "sid-2", []byte("a"), Settings{})
	require.NoError(t, err)
	assert.Equal(t, "alloy", tts.LastVoice)
	assert.Equal(t, 1.0, tts.LastSpeed)
}
