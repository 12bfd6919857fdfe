// Package graph extracts a clinical knowledge graph from the intake
// transcript and annotates it for visualization. The graph is
// supplementary report content: any failure here degrades to a nil
// graph and never blocks report creation.
package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carelane/previsit/internal/core/common"
	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/driver"
	"github.com/carelane/previsit/internal/llm"
)

// Node rendering parameters, shared with the frontend graph view.
const (
	baseSize        = 50.0
	importanceScale = 50.0
	defaultColor    = "#CCCCCC"
)

var nodeColors = map[string]string{
	"Symptom":    "#007BFF",
	"Condition":  "#D9534F",
	"Trigger":    "#F0AD4E",
	"Cause":      "#F0AD4E",
	"Medication": "#5CB85C",
}

const defaultExtractionPrompt = `Extract a structured medical knowledge graph from this patient intake conversation.
Identify clinical concepts (types: Symptom, Condition, Trigger, Cause, Medication) and the relations between them.
Respond with JSON only, in this shape:
{"nodes":[{"name":"...","type":"Symptom","importance":0.8,"aliases":[],"context":{}}],"edges":[{"from_node":"...","to_node":"...","type":"...","confidence":0.7}]}

Conversation:
%s`

const defaultSummaryPrompt = `Summarize, in one sentence for a clinician, what the conversation below says about the concept %q (type %s), connected to: %s.

Conversation:
%s`

type Annotator struct {
	chat             llm.ChatClient
	graphDriver      driver.GraphDriver // nil when graph persistence is disabled
	extractionPrompt string
	summaryPrompt    string
	summarizeNodes   bool
}

func NewAnnotator(chat llm.ChatClient, d driver.GraphDriver, extractionPrompt, summaryPrompt string, summarizeNodes bool) *Annotator {
	if extractionPrompt == "" {
		extractionPrompt = defaultExtractionPrompt
	}
	if summaryPrompt == "" {
		summaryPrompt = defaultSummaryPrompt
	}
	return &Annotator{
		chat:             chat,
		graphDriver:      d,
		extractionPrompt: extractionPrompt,
		summaryPrompt:    summaryPrompt,
		summarizeNodes:   summarizeNodes,
	}
}

// Extract runs one chat call over the transcript and decodes the
// node/edge structure.
func (a *Annotator) Extract(ctx context.Context, transcript string) (*model.AnnotatedGraph, error) {
	prompt := fmt.Sprintf(a.extractionPrompt, transcript)
	response, err := a.chat.Complete(ctx, "", []llm.Message{{Role: model.RoleUser, Content: prompt}}, 0.2, 0)
	if err != nil {
		return nil, fmt.Errorf("graph extraction failed: %w", err)
	}

	g, err := common.ParseJSON[model.AnnotatedGraph](response)
	if err != nil {
		return nil, fmt.Errorf("graph extraction returned unparseable output: %w", err)
	}
	return &g, nil
}

// Annotate fills in presentation attributes and, when enabled, a
// per-node clinical summary.
func (a *Annotator) Annotate(ctx context.Context, g *model.AnnotatedGraph, transcript string) *model.AnnotatedGraph {
	if g == nil {
		return nil
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		color, ok := nodeColors[n.Type]
		if !ok {
			color = defaultColor
		}
		n.Color = color
		n.Size = baseSize + importanceScale*n.Importance

		if a.summarizeNodes {
			if summary, err := a.summarizeNode(ctx, g, n, transcript); err == nil {
				n.Summary = summary
			}
		}
	}
	return g
}

func (a *Annotator) summarizeNode(ctx context.Context, g *model.AnnotatedGraph, n *model.GraphNode, transcript string) (string, error) {
	var connected []string
	for _, e := range g.Edges {
		if e.FromNode == n.Name {
			connected = append(connected, e.ToNode)
		}
	}
	connectedJSON, _ := json.Marshal(connected)

	prompt := fmt.Sprintf(a.summaryPrompt, n.Name, n.Type, string(connectedJSON), transcript)
	summary, err := a.chat.Complete(ctx, "", []llm.Message{{Role: model.RoleUser, Content: prompt}}, 0.2, 120)
	if err != nil {
		return "", err
	}
	return summary, nil
}

// BuildAndStore runs the full pipeline: extract, annotate, and persist
// to the graph database when one is configured.
func (a *Annotator) BuildAndStore(ctx context.Context, transcript string) (*model.AnnotatedGraph, error) {
	g, err := a.Extract(ctx, transcript)
	if err != nil {
		return nil, err
	}
	g = a.Annotate(ctx, g, transcript)

	if a.graphDriver != nil {
		if err := a.persist(ctx, g); err != nil {
			// Persistence is best-effort; the annotated graph still goes
			// into the report.
			return g, fmt.Errorf("graph persistence failed: %w", err)
		}
	}
	return g, nil
}

const mergeNodeQuery = `
	MERGE (n:Entity {name: $name})
	SET n.type = $type,
		n.color = $color,
		n.size = $size,
		n.confidence = coalesce(n.confidence, 0.0) + $confidence,
		n.llm_summary = $llm_summary,
		n.last_seen = timestamp()
`

const mergeEdgeQuery = `
	MATCH (a:Entity {name: $from_node}), (b:Entity {name: $to_node})
	MERGE (a)-[r:RELATION {type: $type}]->(b)
	SET r.confidence = coalesce(r.confidence, 0.0) + $confidence
`

func (a *Annotator) persist(ctx context.Context, g *model.AnnotatedGraph) error {
	for _, n := range g.Nodes {
		_, err := a.graphDriver.ExecuteQuery(ctx, mergeNodeQuery, map[string]interface{}{
			"name":        n.Name,
			"type":        n.Type,
			"color":       n.Color,
			"size":        n.Size,
			"confidence":  n.Confidence,
			"llm_summary": n.Summary,
		})
		if err != nil {
			return err
		}
	}
	for _, e := range g.Edges {
		_, err := a.graphDriver.ExecuteQuery(ctx, mergeEdgeQuery, map[string]interface{}{
			"from_node":  e.FromNode,
			"to_node":    e.ToNode,
			"type":       e.Type,
			"confidence": e.Confidence,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
