package channels

import (
	"chaingraph-backend/internal/utils"
	"chaingraph-backend/models"
)

// Channels holds all communication channels for the pipeline
type Channels struct {
	// Ingest → Broadcaster: per-block graph updates
	GraphUpdates chan models.Update

	// Periodic graph metadata snapshots for connected clients
	Snapshots chan interface{}
}

// NewChannels creates and initializes all channels
func NewChannels() *Channels {
	return &Channels{
		GraphUpdates: make(chan models.Update,
			utils.DefaultGetChannelBufferSize("GraphUpdates", 2000)),

		Snapshots: make(chan interface{},
			utils.DefaultGetChannelBufferSize("Snapshots", 200)),
	}
}

// Close closes all channels
func (c *Channels) Close() {
	close(c.GraphUpdates)
	close(c.Snapshots)
}
