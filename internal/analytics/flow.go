package analytics

import (
	"sort"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// Depth and window bounds for flow queries
const (
	MinFlowDepth     = 1
	MaxFlowDepth     = 10
	DefaultFlowDepth = 5

	MinFlowBlocks     = 1
	MaxFlowBlocks     = 10
	DefaultFlowBlocks = 5
)

// FlowPathFinder enumerates bounded-depth value-flow paths through the
// address/transaction graph
type FlowPathFinder struct {
	store    *graph.Store
	maxPaths int
}

// NewFlowPathFinder creates a path finder bound to the given store. maxPaths
// caps the number of paths enumerated per query.
func NewFlowPathFinder(store *graph.Store, maxPaths int) *FlowPathFinder {
	return &FlowPathFinder{store: store, maxPaths: maxPaths}
}

type flowSearch struct {
	finder   *FlowPathFinder
	maxDepth int
	eligible map[string]struct{}
	onPath   map[string]struct{}
	paths    []FlowPath
	hitCap   bool
}

// Compute enumerates value flows from the seed node. Address seeds expand
// through the transactions they fund; transaction seeds expand through their
// outputs, and a seed transaction outside the trailing block window yields
// an empty result. An unknown seed is a NotFoundError.
func (f *FlowPathFinder) Compute(seed string, maxDepth, maxBlocks int) (*FlowResult, error) {
	node, ok := f.store.GetNode(seed)
	if !ok {
		return nil, &NotFoundError{ID: seed}
	}
	if node.Type == graph.NodeBlock {
		return nil, &InvalidParameterError{
			Param:  "seed",
			Value:  seed,
			Reason: "flow tracing starts from an address or transaction",
		}
	}

	result := &FlowResult{
		StartNode: seed,
		MaxDepth:  maxDepth,
		MaxBlocks: maxBlocks,
		Paths:     []FlowPath{},
	}

	search := &flowSearch{
		finder:   f,
		maxDepth: maxDepth,
		eligible: f.windowTxSet(maxBlocks),
		onPath:   make(map[string]struct{}),
	}

	// A transaction seed must itself sit in the window
	if node.Type == graph.NodeTransaction {
		if _, ok := search.eligible[seed]; !ok {
			return result, nil
		}
	}

	search.onPath[seed] = struct{}{}
	search.walk(node, []string{seed}, nil, 0)

	sort.Slice(search.paths, func(i, j int) bool {
		if search.paths[i].TotalValue != search.paths[j].TotalValue {
			return search.paths[i].TotalValue > search.paths[j].TotalValue
		}
		return search.paths[i].PathLength > search.paths[j].PathLength
	})
	result.Paths = search.paths
	result.Truncated = search.hitCap

	utils.LogDebug("ANALYTICS", "Flow query from %s found %d paths (depth %d, window %d)",
		seed, len(result.Paths), maxDepth, maxBlocks)
	return result, nil
}

// windowTxSet collects the transactions whose containing block height falls
// in the trailing window
func (f *FlowPathFinder) windowTxSet(maxBlocks int) map[string]struct{} {
	eligible := make(map[string]struct{})
	latest, ok := f.store.LatestBlockHeight()
	if !ok {
		return eligible
	}
	lowest := latest - int64(maxBlocks) + 1
	for _, n := range f.store.AllNodes(graph.NodeTransaction) {
		if n.Tx != nil && n.Tx.BlockHeight >= lowest && n.Tx.BlockHeight <= latest {
			eligible[n.ID] = struct{}{}
		}
	}
	return eligible
}

// nextHops returns the outgoing edges the walk may extend through: an
// address funds window transactions, a transaction pays its outputs
func (s *flowSearch) nextHops(n graph.Node) []graph.Edge {
	var hops []graph.Edge
	if n.Type == graph.NodeAddress {
		for _, e := range s.finder.store.OutEdges(n.ID, graph.EdgeAddressInputsTx) {
			if _, ok := s.eligible[e.Target]; !ok {
				continue
			}
			if _, cycle := s.onPath[e.Target]; cycle {
				continue
			}
			hops = append(hops, e)
		}
		return hops
	}
	for _, e := range s.finder.store.OutEdges(n.ID, graph.EdgeTxOutputsAddress) {
		if _, cycle := s.onPath[e.Target]; cycle {
			continue
		}
		hops = append(hops, e)
	}
	return hops
}

func (s *flowSearch) walk(n graph.Node, nodes []string, edges []PathEdge, depth int) {
	if len(s.paths) >= s.finder.maxPaths {
		s.hitCap = true
		return
	}

	hops := s.nextHops(n)
	if depth >= s.maxDepth || len(hops) == 0 {
		s.record(nodes, edges, len(hops) == 0)
		return
	}

	for _, hop := range hops {
		if len(s.paths) >= s.finder.maxPaths {
			s.hitCap = true
			return
		}
		next, ok := s.finder.store.GetNode(hop.Target)
		if !ok {
			continue
		}
		s.onPath[hop.Target] = struct{}{}
		s.walk(next,
			append(nodes, hop.Target),
			append(edges, PathEdge{From: hop.Source, To: hop.Target, Type: hop.Type, Amount: hop.Weight}),
			depth+1)
		delete(s.onPath, hop.Target)
	}
}

// record stores a finished path. Only output hops count toward total value;
// single-node paths are not reported.
func (s *flowSearch) record(nodes []string, edges []PathEdge, complete bool) {
	if len(edges) == 0 {
		return
	}
	var total int64
	for _, e := range edges {
		if e.Type == graph.EdgeTxOutputsAddress {
			total += e.Amount
		}
	}
	path := FlowPath{
		PathNodes:  append([]string(nil), nodes...),
		PathEdges:  append([]PathEdge(nil), edges...),
		TotalValue: total,
		PathLength: len(edges),
		IsComplete: complete,
	}
	s.paths = append(s.paths, path)
}
