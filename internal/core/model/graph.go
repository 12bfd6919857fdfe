package model

// GraphNode is one clinical concept extracted from the intake
// conversation. Color and Size are presentation attributes computed from
// the node type and importance so the frontend can render the graph
// without its own scoring pass.
type GraphNode struct {
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Importance float64                `json:"importance"`
	Confidence float64                `json:"confidence,omitempty"`
	Aliases    []string               `json:"aliases,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Summary    string                 `json:"llm_summary,omitempty"`
	Color      string                 `json:"color,omitempty"`
	Size       float64                `json:"size,omitempty"`
}

type GraphEdge struct {
	FromNode   string  `json:"from_node"`
	ToNode     string  `json:"to_node"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

// AnnotatedGraph is the optional knowledge-graph view of a report,
// used for visualization only.
type AnnotatedGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
