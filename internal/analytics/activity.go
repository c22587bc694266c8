package analytics

import (
	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// ActivityColorMapper normalizes a per-type activity metric to [0,100] and
// maps it to a display color
type ActivityColorMapper struct {
	store *graph.Store
}

// NewActivityColorMapper creates an activity mapper bound to the given store
func NewActivityColorMapper(store *graph.Store) *ActivityColorMapper {
	return &ActivityColorMapper{store: store}
}

// rawActivity extracts the metric each node type is scored by: tx count for
// blocks, input+output count for transactions, UTxO count for addresses
func rawActivity(n graph.Node) float64 {
	switch n.Type {
	case graph.NodeBlock:
		if n.Block != nil {
			return float64(n.Block.TxCount)
		}
	case graph.NodeTransaction:
		if n.Tx != nil {
			return float64(n.Tx.InputCount + n.Tx.OutputCount)
		}
	case graph.NodeAddress:
		if n.Address != nil {
			return float64(n.Address.UTxOCount)
		}
	}
	return 0
}

// Compute normalizes the raw metric min-max within each node-type group,
// maps it to a color under the given scheme and writes the results back as
// derived attributes. A group where every raw value is equal normalizes to
// exactly 50.
func (a *ActivityColorMapper) Compute(scheme string) []ActivityMetric {
	nodes := a.store.AllNodes()

	type bounds struct {
		min, max float64
		seen     bool
	}
	groups := make(map[graph.NodeType]*bounds)
	for _, n := range nodes {
		raw := rawActivity(n)
		b, ok := groups[n.Type]
		if !ok {
			b = &bounds{}
			groups[n.Type] = b
		}
		if !b.seen || raw < b.min {
			b.min = raw
		}
		if !b.seen || raw > b.max {
			b.max = raw
		}
		b.seen = true
	}

	metrics := make([]ActivityMetric, 0, len(nodes))
	ids := make([]string, 0, len(nodes))
	byID := make(map[string]ActivityMetric, len(nodes))
	for _, n := range nodes {
		raw := rawActivity(n)
		b := groups[n.Type]

		normalized := 50.0
		if b.max > b.min {
			normalized = (raw - b.min) / (b.max - b.min) * 100
		}

		m := ActivityMetric{
			NodeID:          n.ID,
			NodeType:        n.Type,
			RawValue:        raw,
			NormalizedValue: normalized,
			ColorHex:        scoreToColor(normalized, scheme),
		}
		metrics = append(metrics, m)
		ids = append(ids, n.ID)
		byID[n.ID] = m
	}

	a.store.MutateDerived(ids, func(id string, derived *graph.Derived) {
		m := byID[id]
		derived.ActivityScore = m.NormalizedValue
		derived.Color = m.ColorHex
		derived.ColorScheme = scheme
	})

	utils.LogDebug("ANALYTICS", "Computed %s activity colors for %d nodes", scheme, len(metrics))
	return metrics
}
