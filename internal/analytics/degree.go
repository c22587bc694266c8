package analytics

import (
	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// DegreeAnalyzer computes structural connectivity metrics in a single pass
// over the graph
type DegreeAnalyzer struct {
	store *graph.Store
}

// NewDegreeAnalyzer creates a degree analyzer bound to the given store
func NewDegreeAnalyzer(store *graph.Store) *DegreeAnalyzer {
	return &DegreeAnalyzer{store: store}
}

// Compute calculates in/out/total/type degree for every node and writes the
// results back as derived attributes. No node is skipped.
func (d *DegreeAnalyzer) Compute() []DegreeMetric {
	nodes := d.store.AllNodes()
	metrics := make([]DegreeMetric, 0, len(nodes))
	ids := make([]string, 0, len(nodes))
	byID := make(map[string]DegreeMetric, len(nodes))

	for _, node := range nodes {
		in := d.store.InEdges(node.ID)
		out := d.store.OutEdges(node.ID)

		m := DegreeMetric{
			NodeID:      node.ID,
			NodeType:    node.Type,
			InDegree:    len(in),
			OutDegree:   len(out),
			TotalDegree: len(in) + len(out),
			TypeDegree:  typeDegree(node.Type, in, out),
		}
		metrics = append(metrics, m)
		ids = append(ids, node.ID)
		byID[node.ID] = m
	}

	d.store.MutateDerived(ids, func(id string, derived *graph.Derived) {
		m := byID[id]
		derived.InDegree = m.InDegree
		derived.OutDegree = m.OutDegree
		derived.TotalDegree = m.TotalDegree
		derived.TypeDegree = m.TypeDegree
	})

	utils.LogDebug("ANALYTICS", "Computed degree metrics for %d nodes", len(metrics))
	return metrics
}

// typeDegree counts the edges that define a node's role: blocks by the
// transactions they contain, transactions by their funding inputs plus
// produced outputs, addresses by every incident edge
func typeDegree(nodeType graph.NodeType, in, out []graph.Edge) int {
	switch nodeType {
	case graph.NodeBlock:
		return countType(out, graph.EdgeBlockContainsTx)
	case graph.NodeTransaction:
		return countType(in, graph.EdgeAddressInputsTx) + countType(out, graph.EdgeTxOutputsAddress)
	default:
		return len(in) + len(out)
	}
}

func countType(edges []graph.Edge, typ graph.EdgeType) int {
	n := 0
	for _, e := range edges {
		if e.Type == typ {
			n++
		}
	}
	return n
}
