//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/previsit/internal/core/dashboard"
	"github.com/carelane/previsit/internal/core/emr"
	"github.com/carelane/previsit/internal/core/evidence"
	"github.com/carelane/previsit/internal/core/explain"
	"github.com/carelane/previsit/internal/core/graph"
	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/core/report"
	"github.com/carelane/previsit/internal/driver"
	"github.com/carelane/previsit/internal/llm"
	"github.com/carelane/previsit/internal/store"
)

// TestIntakePipeline runs the explain -> graph -> report chain against a
// live LLM provider (and optionally Neo4j). Requires LLM_API_KEY or
// OPENAI_API_KEY; skips otherwise.
func TestIntakePipeline(t *testing.T) {
	_ = godotenv.Load("../../.env")

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		t.Skip("Skipping integration test: LLM_API_KEY not set")
	}

	llmCfg := llm.Config{
		Provider: os.Getenv("LLM_PROVIDER"),
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
		APIKey:   apiKey,
	}
	if llmCfg.Provider == "" {
		llmCfg.Provider = "openai"
	}
	if llmCfg.Model == "" {
		llmCfg.Model = "gpt-4o-mini"
	}

	ctx := context.Background()
	chat, err := llm.NewChatClient(ctx, llmCfg)
	require.NoError(t, err)

	var graphDriver driver.GraphDriver
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		d, err := driver.NewNeo4jDriver(uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"))
		require.NoError(t, err)
		defer d.Close(ctx)
		require.NoError(t, d.BuildIndices(ctx))
		graphDriver = d
	}

	record := emr.Demo()
	st := store.NewMemoryStore()

	// 1. Evidence + explanation for an insight.
	insight := "Recurring headaches consistent with chronic migraine history"
	hits := evidence.FindEvidence(record, insight)
	require.NotEmpty(t, hits)

	explainer := explain.NewExplainer(chat, "")
	res := explainer.Explain(ctx, insight, hits)
	assert.NotEmpty(t, res.Answer)

	// 2. Graph extraction from a short transcript.
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "I've been getting bad headaches most mornings for two weeks."},
		{Role: model.RoleAssistant, Content: "How would you rate the pain, and does light make it worse?"},
		{Role: model.RoleUser, Content: "Maybe a seven out of ten, and yes, bright light is awful."},
	}
	annotator := graph.NewAnnotator(chat, graphDriver, "", "", false)
	annotated, err := annotator.BuildAndStore(ctx, report.RenderTranscript(turns))
	require.NoError(t, err)
	assert.NotEmpty(t, annotated.Nodes)

	// 3. Report generation and dashboard reconciliation.
	builder := report.NewBuilder(chat, st, "")
	rep, err := builder.Build(ctx, turns, "2", "Michael Chen", record, annotated)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ReportID)

	recon := dashboard.NewReconciler(st, dashboard.SeedPatients())
	require.NoError(t, recon.ObserveCompletion(ctx, "2", rep.ReportID))
	p, err := recon.Patient("2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, p.Status)
	assert.Equal(t, rep.ReportID, p.ReportID)
}
