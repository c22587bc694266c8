package models

import "time"

// UpdateKind distinguishes the payload carried by an Update
type UpdateKind string

const (
	UpdateBlock    UpdateKind = "block"
	UpdateSnapshot UpdateKind = "snapshot"
)

// Update is a live event pushed to websocket clients after the graph
// absorbs new chain data
type Update struct {
	Kind         UpdateKind    `json:"kind"`
	Block        *Block        `json:"block,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Snapshot     interface{}   `json:"snapshot,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
