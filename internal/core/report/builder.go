// Package report converts a finished intake transcript into the
// persisted, doctor-facing Report record.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/previsit/internal/core/common"
	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/llm"
	"github.com/carelane/previsit/internal/store"
)

const temperature = 0.3

const defaultSystemPrompt = `You are a medical AI assistant that creates structured intake reports for healthcare providers. Based on the conversation transcript between a patient and AI assistant, extract and organize the key medical information.

Create a comprehensive but concise report in the following JSON format:
{
  "chiefComplaint": "Patient's main concern in their own words",
  "symptoms": ["list", "of", "reported", "symptoms"],
  "duration": "How long symptoms have been present",
  "severity": "mild/moderate/severe based on patient description",
  "triggers": ["factors", "that", "worsen", "symptoms"],
  "relievingFactors": ["factors", "that", "help", "symptoms"],
  "associatedSymptoms": ["related", "symptoms"],
  "medicalHistory": ["relevant", "past", "medical", "history"],
  "currentMedications": ["medications", "patient", "is", "taking"],
  "allergies": ["known", "allergies"],
  "redFlags": ["concerning", "symptoms", "requiring", "immediate", "attention"],
  "functionalImpact": "How symptoms affect daily activities",
  "patientConcerns": ["specific", "worries", "expressed", "by", "patient"],
  "notes": "Additional important information from the conversation",
  "recommendedFollowUp": "Suggested next steps or areas for doctor to explore"
}

Guidelines:
- Only include information that was explicitly mentioned in the conversation
- Use "Not discussed" for sections where no information was provided
- Be objective and factual
- Highlight any red flag symptoms that need immediate attention
- Maintain patient's own language for chief complaint`

type Builder struct {
	chat   llm.ChatClient
	store  store.Store
	system string
}

func NewBuilder(chat llm.ChatClient, st store.Store, systemPrompt string) *Builder {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Builder{chat: chat, store: st, system: systemPrompt}
}

// RenderTranscript flattens the turns into the human-readable archival
// form, one "<Role>: <content>" line per turn.
func RenderTranscript(turns []model.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		role := "Patient"
		if t.Role == model.RoleAssistant {
			role = "AI"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, t.Content))
	}
	return strings.Join(lines, "\n")
}

// Build is create-only: every call produces a new report with a fresh
// id and CreatedAt; a second intake for the same patient yields a
// second, independent report.
//
// Provider failures propagate — a failed build must not persist a
// partial report. Unparseable LLM output does NOT fail the build: the
// raw text is wrapped and stored so a human can inspect it later.
func (b *Builder) Build(ctx context.Context, turns []model.Turn, patientID, patientName string,
	emrSnapshot map[string]interface{}, annotated *model.AnnotatedGraph) (*model.Report, error) {

	if len(turns) == 0 {
		return nil, fmt.Errorf("cannot build report from empty transcript")
	}

	transcript := RenderTranscript(turns)

	user := fmt.Sprintf("Conversation Transcript:\n%s\n\nPlease create a structured medical intake report based on this conversation.", transcript)
	raw, err := b.chat.Complete(ctx, b.system, []llm.Message{{Role: model.RoleUser, Content: user}}, temperature, 0)
	if err != nil {
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	rep := &model.Report{
		ReportID:    uuid.NewString(),
		PatientID:   patientID,
		PatientName: patientName,
		CreatedAt:   time.Now().UTC(),
		Transcript:  transcript,
		EMRTab:      emrSnapshot,
	}

	insights, perr := common.ParseJSON[map[string]interface{}](raw)
	if perr != nil {
		rep.InsightsReport = map[string]interface{}{
			"rawReport": raw,
			"note":      "Report generated but not in expected JSON format",
		}
		rep.Raw = true
	} else {
		rep.InsightsReport = insights
	}

	if annotated != nil {
		rep.AnnotatedGraph = annotated
	}

	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := b.store.Set(ctx, model.ReportKey(rep.ReportID), data); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	return rep, nil
}

// Load fetches a stored report by id. Missing ids surface
// store.ErrNotFound for the HTTP layer to map to 404.
func Load(ctx context.Context, st store.Store, reportID string) (*model.Report, error) {
	data, err := st.Get(ctx, model.ReportKey(reportID))
	if err != nil {
		return nil, err
	}
	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("stored report %s is corrupt: %w", reportID, err)
	}
	return &rep, nil
}
