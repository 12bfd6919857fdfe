// Package explain narrates why an EMR-driven insight is reasonable,
// grounded in the evidence hits found for it. The narration is
// supplementary context for a clinician, not a load-bearing fact, so
// provider failures degrade to deterministic fallback text instead of
// surfacing as errors.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/llm"
)

const (
	// MaxUsedHits bounds both the grounding context sent to the model and
	// the hits echoed back to the caller.
	MaxUsedHits = 6

	temperature = 0.2
	maxTokens   = 180
)

const defaultSystemPrompt = `You are a clinical copilot designed to explain to Health Care Professionals the WHY and HOW behind AI generated insights based on EMR. Explain briefly (2-3 sentences) *why this EMR-driven insight is reasonable*,
grounding the rationale in the provided EMR references. Avoid speculation and avoid repeating the insight verbatim.
Professional, concise tone. Output a single paragraph without bullets.`

// fallbackAnswer is returned whenever the provider errors or produces
// no usable text.
const fallbackAnswer = "Based on the referenced EMR details, this insight aligns with the patient's documented history and current findings."

type Result struct {
	Answer   string              `json:"answer"`
	UsedHits []model.EvidenceHit `json:"usedHits"`
}

type Explainer struct {
	chat   llm.ChatClient
	system string
}

func NewExplainer(chat llm.ChatClient, systemPrompt string) *Explainer {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Explainer{chat: chat, system: systemPrompt}
}

// Explain issues one chat-completion request and returns the rationale
// together with the hits actually supplied. Never returns an error:
// availability trumps wording here.
func (e *Explainer) Explain(ctx context.Context, insight string, hits []model.EvidenceHit) Result {
	used := hits
	if len(used) > MaxUsedHits {
		used = used[:MaxUsedHits]
	}

	refs := make([]string, 0, len(used))
	for i, h := range used {
		refs = append(refs, fmt.Sprintf("(%d) %s: %s", i+1, h.Path, h.Value))
	}
	refsBlock := strings.Join(refs, "\n")
	if refsBlock == "" {
		refsBlock = "(none provided)"
	}

	user := fmt.Sprintf("INSIGHT:\n%s\n\nEMR REFERENCES:\n%s", insight, refsBlock)

	answer, err := e.chat.Complete(ctx, e.system,
		[]llm.Message{{Role: model.RoleUser, Content: user}},
		temperature, maxTokens)
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		answer = fallbackAnswer
	}

	return Result{Answer: answer, UsedHits: used}
}

// LocalFallback formats an EMR-only explanation without any network
// round trip, for execution paths with no provider available.
func LocalFallback(insight string, hits []model.EvidenceHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("This insight appears consistent with the patient's EMR, but no specific single field stands out.\n\nInsight: %q", insight)
	}
	top := hits
	if len(top) > 4 {
		top = top[:4]
	}
	lines := make([]string, 0, len(top))
	for _, h := range top {
		lines = append(lines, fmt.Sprintf("- %s: %s", h.Path, h.Value))
	}
	return fmt.Sprintf("This insight is supported by the following EMR fields:\n%s\n\nInsight: %q",
		strings.Join(lines, "\n"), insight)
}
