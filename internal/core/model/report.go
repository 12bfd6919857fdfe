package model

import "time"

// Turn is one utterance in an intake conversation. Role is either
// "user" (the patient) or "assistant" (the AI interviewer).
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EvidenceHit is a single EMR leaf whose value overlaps with an insight
// statement. Path is a dotted/bracketed address into the record tree,
// e.g. "emr.conditions.[0].name".
type EvidenceHit struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Report is the persisted output of one completed intake session.
// Created exactly once per completion and never mutated afterwards.
type Report struct {
	ReportID       string                 `json:"reportId"`
	PatientID      string                 `json:"patientId"`
	PatientName    string                 `json:"patientName"`
	CreatedAt      time.Time              `json:"createdAt"`
	Transcript     string                 `json:"transcript"`
	InsightsReport map[string]interface{} `json:"insights_report"`
	EMRTab         map[string]interface{} `json:"emr_tab,omitempty"`
	AnnotatedGraph *AnnotatedGraph        `json:"annotated_graph,omitempty"`
	// Raw is set when the structured-report conversion did not return
	// parseable JSON and InsightsReport holds the wrapped raw text.
	Raw bool `json:"raw,omitempty"`
}

// ReportKeyPrefix is the key-value store namespace for reports.
// One record per report, keyed by ReportKeyPrefix + reportId.
const ReportKeyPrefix = "report:"

func ReportKey(reportID string) string {
	return ReportKeyPrefix + reportID
}
