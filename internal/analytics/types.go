package analytics

import (
	"time"

	"chaingraph-backend/graph"
)

// Filter narrows an analytics request to a subset of the graph
type Filter struct {
	NodeType graph.NodeType `json:"node_type,omitempty"`
	NodeID   string         `json:"node_id,omitempty"`
}

// DegreeMetric is the connectivity record of a single node
type DegreeMetric struct {
	NodeID      string         `json:"node_id"`
	NodeType    graph.NodeType `json:"node_type"`
	InDegree    int            `json:"in_degree"`
	OutDegree   int            `json:"out_degree"`
	TotalDegree int            `json:"total_degree"`
	TypeDegree  int            `json:"type_degree"`
}

// ActivityMetric is the normalized activity score and color of a single node
type ActivityMetric struct {
	NodeID          string         `json:"node_id"`
	NodeType        graph.NodeType `json:"node_type"`
	RawValue        float64        `json:"raw_value"`
	NormalizedValue float64        `json:"normalized_value"`
	ColorHex        string         `json:"color_hex"`
}

// ActivityResult is a full activity mapping pass over the graph
type ActivityResult struct {
	ColorScheme string           `json:"color_scheme"`
	Nodes       []ActivityMetric `json:"nodes"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// Stats summarizes the sample an anomaly detection pass ran against
type Stats struct {
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	Percentile5  float64 `json:"percentile_5"`
	Percentile95 float64 `json:"percentile_95"`
	SampleSize   int     `json:"sample_size"`
}

// Anomaly is a single flagged node
type Anomaly struct {
	NodeID       string         `json:"node_id"`
	NodeType     graph.NodeType `json:"node_type"`
	IsAnomaly    bool           `json:"is_anomaly"`
	AnomalyScore float64        `json:"anomaly_score"`
	AnomalyType  string         `json:"anomaly_type"`
	ActualValue  float64        `json:"actual_value"`
}

// AnomalyResult is one anomaly detection pass over a node group
type AnomalyResult struct {
	Method     string                   `json:"method"`
	Threshold  float64                  `json:"threshold"`
	Anomalies  []Anomaly                `json:"anomalies"`
	Statistics map[graph.NodeType]Stats `json:"statistics"`
	ComputedAt time.Time                `json:"computed_at"`
}

// Cluster is one detected community
type Cluster struct {
	ID       int      `json:"cluster_id"`
	NodeIDs  []string `json:"node_ids"`
	Size     int      `json:"size"`
	ColorHex string   `json:"color_hex"`
}

// ClusterResult is one community detection pass
type ClusterResult struct {
	ClusterType string    `json:"cluster_type"`
	Window      int       `json:"time_window_blocks"`
	Clusters    []Cluster `json:"clusters"`
	Unclustered []string  `json:"unclustered,omitempty"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
	ComputedAt  time.Time `json:"computed_at"`
}

// PathEdge is one hop of a flow path
type PathEdge struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Type   graph.EdgeType `json:"type"`
	Amount int64          `json:"amount"`
}

// FlowPath is one enumerated value flow through the transaction graph
type FlowPath struct {
	PathNodes  []string   `json:"path_nodes"`
	PathEdges  []PathEdge `json:"path_edges"`
	TotalValue int64      `json:"total_value"`
	PathLength int        `json:"path_length"`
	IsComplete bool       `json:"is_complete"`
}

// FlowResult is one flow path query
type FlowResult struct {
	StartNode  string     `json:"start_node"`
	MaxDepth   int        `json:"max_depth"`
	MaxBlocks  int        `json:"max_blocks"`
	Paths      []FlowPath `json:"paths"`
	Truncated  bool       `json:"truncated"`
	ComputedAt time.Time  `json:"computed_at"`
}
