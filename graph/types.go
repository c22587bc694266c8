package graph

import "time"

// NodeType identifies the kind of blockchain entity a node represents
type NodeType string

const (
	NodeBlock       NodeType = "block"
	NodeTransaction NodeType = "transaction"
	NodeAddress     NodeType = "address"
)

// Valid reports whether t is a known node type
func (t NodeType) Valid() bool {
	switch t {
	case NodeBlock, NodeTransaction, NodeAddress:
		return true
	}
	return false
}

// EdgeType identifies the relationship an edge represents
type EdgeType string

const (
	EdgeBlockContainsTx  EdgeType = "block_tx"
	EdgeAddressInputsTx  EdgeType = "tx_input"
	EdgeTxOutputsAddress EdgeType = "tx_output"
)

// Valid reports whether t is a known edge type
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeBlockContainsTx, EdgeAddressInputsTx, EdgeTxOutputsAddress:
		return true
	}
	return false
}

// Direction selects which edges Neighbors considers
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirBoth
)

// MetricFamily identifies a group of derived analytics attributes that are
// cached and invalidated together
type MetricFamily string

const (
	FamilyDegree   MetricFamily = "degree"
	FamilyActivity MetricFamily = "activity"
	FamilyAnomaly  MetricFamily = "anomaly"
	FamilyCluster  MetricFamily = "cluster"
	FamilyFlow     MetricFamily = "flow"
)

// AllFamilies returns every metric family
func AllFamilies() []MetricFamily {
	return []MetricFamily{FamilyDegree, FamilyActivity, FamilyAnomaly, FamilyCluster, FamilyFlow}
}

// Listener receives synchronous mutation notifications from the store
type Listener interface {
	GraphChanged(changed []string, families []MetricFamily)
}

// NodeAttrs is the tagged payload attached to a node; exactly one concrete
// attrs type exists per node type
type NodeAttrs interface {
	NodeType() NodeType
}

// BlockAttrs holds the payload of a block node
type BlockAttrs struct {
	Height    int64     `json:"block_height"`
	Timestamp time.Time `json:"timestamp"`
	Slot      int64     `json:"slot"`
	TxCount   int       `json:"tx_count"`
}

// NodeType implements NodeAttrs
func (BlockAttrs) NodeType() NodeType { return NodeBlock }

// TxAttrs holds the payload of a transaction node
type TxAttrs struct {
	BlockHeight int64 `json:"block_height"`
	Fee         int64 `json:"fee"`
	InputCount  int   `json:"input_count"`
	OutputCount int   `json:"output_count"`
}

// NodeType implements NodeAttrs
func (TxAttrs) NodeType() NodeType { return NodeTransaction }

// AddressAttrs holds the payload of an address node
type AddressAttrs struct {
	FirstSeen     time.Time `json:"first_seen"`
	TotalReceived int64     `json:"total_received"`
	TotalSent     int64     `json:"total_sent"`
	TxCount       int       `json:"transaction_count"`
	UTxOCount     int       `json:"utxo_count"`
}

// NodeType implements NodeAttrs
func (AddressAttrs) NodeType() NodeType { return NodeAddress }

// Derived holds analytics attributes computed by the analytics engine.
// The engine is the only writer; blockchain payload data is never touched.
type Derived struct {
	InDegree    int `json:"in_degree"`
	OutDegree   int `json:"out_degree"`
	TotalDegree int `json:"total_degree"`
	TypeDegree  int `json:"type_degree"`

	ActivityScore float64 `json:"activity_score"`
	Color         string  `json:"color,omitempty"`
	ColorScheme   string  `json:"color_scheme,omitempty"`

	IsAnomaly    bool    `json:"is_anomaly"`
	AnomalyScore float64 `json:"anomaly_score"`
	AnomalyType  string  `json:"anomaly_type,omitempty"`

	ClusterID    int    `json:"cluster_id"`
	ClusterType  string `json:"cluster_type,omitempty"`
	ClusterColor string `json:"cluster_color,omitempty"`
}

// Node is a typed graph node: an id, a tagged payload and a derived
// analytics record
type Node struct {
	ID      string        `json:"id"`
	Type    NodeType      `json:"type"`
	Block   *BlockAttrs   `json:"block,omitempty"`
	Tx      *TxAttrs      `json:"transaction,omitempty"`
	Address *AddressAttrs `json:"address,omitempty"`
	Derived Derived       `json:"derived"`
}

// Edge is a typed directed edge with an optional value weight in lovelace
type Edge struct {
	Source string   `json:"from"`
	Target string   `json:"to"`
	Type   EdgeType `json:"type"`
	Weight int64    `json:"weight"`
}
