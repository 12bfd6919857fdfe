package explain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/previsit/internal/core/model"
)

func TestExplainReturnsProviderAnswer(t *testing.T) {
	mock := &MockChatClient{Response: "  The chronic migraine history documented in 2017 supports recurring headache patterns.  "}
	e := NewExplainer(mock, "")

	hits := []model.EvidenceHit{{Path: "emr.conditions.[0].name", Value: "Chronic Migraine"}}
	res := e.Explain(context.Background(), "Recurring headaches consistent with prior migraine history", hits)

	assert.Equal(t, "The chronic migraine history documented in 2017 supports recurring headache patterns.", res.Answer)
	assert.Equal(t, hits, res.UsedHits)

	// The grounding context must carry the enumerated hit.
	require.Len(t, mock.LastMessages, 1)
	assert.Contains(t, mock.LastMessages[0].Content, "(1) emr.conditions.[0].name: Chronic Migraine")
	assert.Contains(t, mock.LastSystem, "clinical copilot")
}

func TestExplainFallbackOnProviderError(t *testing.T) {
	mock := &MockChatClient{Err: errors.New("upstream timeout")}
	e := NewExplainer(mock, "")

	res := e.Explain(context.Background(), "some insight", nil)

	assert.NotEmpty(t, res.Answer)
	assert.Equal(t, fallbackAnswer, res.Answer)
	assert.Empty(t, res.UsedHits)
}

func TestExplainFallbackOnEmptyResponse(t *testing.T) {
	mock := &MockChatClient{Response: "   "}
	e := NewExplainer(mock, "")

	res := e.Explain(context.Background(), "some insight", nil)
	assert.Equal(t, fallbackAnswer, res.Answer)
}

func TestUsedHitsCap(t *testing.T) {
	var hits []model.EvidenceHit
	for i := 0; i < 10; i++ {
		hits = append(hits, model.EvidenceHit{
			Path:  fmt.Sprintf("emr.field%d", i),
			Value: "value",
		})
	}

	mock := &MockChatClient{Response: "answer"}
	e := NewExplainer(mock, "")
	res := e.Explain(context.Background(), "insight", hits)

	assert.Len(t, res.UsedHits, MaxUsedHits)
	// Only the first six hits reach the prompt.
	assert.Contains(t, mock.LastMessages[0].Content, "(6) emr.field5")
	assert.NotContains(t, mock.LastMessages[0].Content, "emr.field6")
}

func TestExplainNoHitsPrompt(t *testing.T) {
	mock := &MockChatClient{Response: "answer"}
	e := NewExplainer(mock, "")
	e.Explain(context.Background(), "insight", nil)
	assert.Contains(t, mock.LastMessages[0].Content, "(none provided)")
}

func TestLocalFallback(t *testing.T) {
	assert.Contains(t, LocalFallback("insight text", nil), "no specific single field stands out")

	var hits []model.EvidenceHit
	for i := 0; i < 6; i++ {
		hits = append(hits, model.EvidenceHit{Path: fmt.Sprintf("emr.f%d", i), Value: "v"})
	}
	out := LocalFallback("insight text", hits)
	assert.Contains(t, out, "emr.f0")
	assert.Contains(t, out, "emr.f3")
	assert.NotContains(t, out, "emr.f4")
	assert.Contains(t, out, `"insight text"`)
}
