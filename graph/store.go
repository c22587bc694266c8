package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metadata summarizes the current graph for status endpoints and snapshots
type Metadata struct {
	NodeCount         int              `json:"node_count"`
	EdgeCount         int              `json:"edge_count"`
	NodesByType       map[NodeType]int `json:"nodes_by_type"`
	LatestBlockHeight int64            `json:"latest_block_height"`
	LastUpdate        time.Time        `json:"last_update"`
}

type edgeKey struct {
	source string
	target string
	typ    EdgeType
}

// Store owns the directed graph of blocks, transactions and addresses.
// It is the single source of truth for topology. Mutation is single-writer
// (the ingestion loop); reads may run concurrently.
type Store struct {
	mu           sync.RWMutex
	nodes        map[string]*Node
	out          map[string][]Edge
	in           map[string][]Edge
	edges        map[edgeKey]struct{}
	edgeCount    int
	latestHeight int64
	lastUpdate   time.Time

	listenerMu sync.RWMutex
	listeners  []Listener
}

// NewStore creates an empty graph store
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*Node),
		out:   make(map[string][]Edge),
		in:    make(map[string][]Edge),
		edges: make(map[edgeKey]struct{}),
	}
}

// RegisterListener registers a listener for mutation notifications.
// Listeners are invoked synchronously, after the mutation is applied and
// before the mutation call returns.
func (s *Store) RegisterListener(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// notify runs outside the store lock so listeners may read the store
func (s *Store) notify(changed []string) {
	s.listenerMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.RUnlock()

	families := AllFamilies()
	for _, l := range listeners {
		l.GraphChanged(changed, families)
	}
}

// AddNode adds a node or, if the id already exists, replaces its payload
// attributes. The node type is taken from the attrs variant and may not
// change across re-adds.
func (s *Store) AddNode(id string, attrs NodeAttrs) error {
	if id == "" {
		return fmt.Errorf("graph: node id is required")
	}
	if attrs == nil {
		return fmt.Errorf("graph: node %s: attrs are required", id)
	}

	s.mu.Lock()
	existing, ok := s.nodes[id]
	if ok && existing.Type != attrs.NodeType() {
		s.mu.Unlock()
		return fmt.Errorf("graph: node %s: cannot change type %s to %s", id, existing.Type, attrs.NodeType())
	}

	node := existing
	if node == nil {
		node = &Node{ID: id, Type: attrs.NodeType()}
		s.nodes[id] = node
	}
	switch a := attrs.(type) {
	case BlockAttrs:
		cp := a
		node.Block = &cp
		if cp.Height > s.latestHeight {
			s.latestHeight = cp.Height
		}
	case *BlockAttrs:
		cp := *a
		node.Block = &cp
		if cp.Height > s.latestHeight {
			s.latestHeight = cp.Height
		}
	case TxAttrs:
		cp := a
		node.Tx = &cp
	case *TxAttrs:
		cp := *a
		node.Tx = &cp
	case AddressAttrs:
		cp := a
		node.Address = &cp
	case *AddressAttrs:
		cp := *a
		node.Address = &cp
	default:
		s.mu.Unlock()
		return fmt.Errorf("graph: node %s: unsupported attrs %T", id, attrs)
	}
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.notify([]string{id})
	return nil
}

// AddEdge adds a directed typed edge. Both endpoints must already exist or
// an IntegrityError is returned. A duplicate (source, target, type) tuple
// is ignored.
func (s *Store) AddEdge(source, target string, typ EdgeType, weight int64) error {
	if !typ.Valid() {
		return fmt.Errorf("graph: unknown edge type %q", typ)
	}

	s.mu.Lock()
	if _, ok := s.nodes[source]; !ok {
		s.mu.Unlock()
		return &IntegrityError{Source: source, Target: target, Type: typ, Missing: source}
	}
	if _, ok := s.nodes[target]; !ok {
		s.mu.Unlock()
		return &IntegrityError{Source: source, Target: target, Type: typ, Missing: target}
	}

	key := edgeKey{source: source, target: target, typ: typ}
	if _, ok := s.edges[key]; ok {
		s.mu.Unlock()
		return nil
	}

	edge := Edge{Source: source, Target: target, Type: typ, Weight: weight}
	s.edges[key] = struct{}{}
	s.out[source] = append(s.out[source], edge)
	s.in[target] = append(s.in[target], edge)
	s.edgeCount++
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.notify([]string{source, target})
	return nil
}

// GetNode returns a copy of the node with the given id
func (s *Store) GetNode(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(node), true
}

// HasNode reports whether a node with the given id exists
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Neighbors returns copies of the nodes adjacent to id in the given
// direction, optionally restricted to the listed edge types
func (s *Store) Neighbors(id string, dir Direction, types ...EdgeType) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var result []Node
	appendFrom := func(edges []Edge, pickSource bool) {
		for _, e := range edges {
			if !matchEdgeType(e.Type, types) {
				continue
			}
			other := e.Target
			if pickSource {
				other = e.Source
			}
			if _, dup := seen[other]; dup {
				continue
			}
			seen[other] = struct{}{}
			if n, ok := s.nodes[other]; ok {
				result = append(result, copyNode(n))
			}
		}
	}

	if dir == DirIn || dir == DirBoth {
		appendFrom(s.in[id], true)
	}
	if dir == DirOut || dir == DirBoth {
		appendFrom(s.out[id], false)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// OutEdges returns copies of the edges leaving id, optionally restricted to
// the listed edge types
func (s *Store) OutEdges(id string, types ...EdgeType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterEdges(s.out[id], types)
}

// InEdges returns copies of the edges entering id, optionally restricted to
// the listed edge types
func (s *Store) InEdges(id string, types ...EdgeType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterEdges(s.in[id], types)
}

// AllNodes returns copies of all nodes, optionally restricted to the listed
// node types, sorted by id for deterministic iteration
func (s *Store) AllNodes(types ...NodeType) []Node {
	s.mu.RLock()
	result := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if len(types) > 0 && !matchNodeType(n.Type, types) {
			continue
		}
		result = append(result, copyNode(n))
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// AllEdges returns copies of all edges, optionally restricted to the listed
// edge types
func (s *Store) AllEdges(types ...EdgeType) []Edge {
	s.mu.RLock()
	result := make([]Edge, 0, s.edgeCount)
	for _, edges := range s.out {
		for _, e := range edges {
			if matchEdgeType(e.Type, types) {
				result = append(result, e)
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		if result[i].Target != result[j].Target {
			return result[i].Target < result[j].Target
		}
		return result[i].Type < result[j].Type
	})
	return result
}

// SubgraphWhere returns the nodes satisfying pred together with the edges
// whose endpoints both satisfy it
func (s *Store) SubgraphWhere(pred func(Node) bool) ([]Node, []Edge) {
	nodes := s.AllNodes()
	keep := make(map[string]struct{}, len(nodes))
	var subNodes []Node
	for _, n := range nodes {
		if pred(n) {
			keep[n.ID] = struct{}{}
			subNodes = append(subNodes, n)
		}
	}

	var subEdges []Edge
	for _, e := range s.AllEdges() {
		if _, ok := keep[e.Source]; !ok {
			continue
		}
		if _, ok := keep[e.Target]; !ok {
			continue
		}
		subEdges = append(subEdges, e)
	}
	return subNodes, subEdges
}

// MutateDerived applies fn to the derived analytics record of each listed
// node under the write lock. Unknown ids are skipped. Derived writes do not
// trigger mutation notifications.
func (s *Store) MutateDerived(ids []string, fn func(id string, d *Derived)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			fn(id, &n.Derived)
		}
	}
}

// LatestBlockHeight returns the highest block height seen, if any
func (s *Store) LatestBlockHeight() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestHeight, s.latestHeight > 0
}

// NodeCount returns the number of nodes
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgeCount
}

// Snapshot returns current graph metadata
func (s *Store) Snapshot() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[NodeType]int)
	for _, n := range s.nodes {
		byType[n.Type]++
	}
	return Metadata{
		NodeCount:         len(s.nodes),
		EdgeCount:         s.edgeCount,
		NodesByType:       byType,
		LatestBlockHeight: s.latestHeight,
		LastUpdate:        s.lastUpdate,
	}
}

func copyNode(n *Node) Node {
	cp := Node{ID: n.ID, Type: n.Type, Derived: n.Derived}
	if n.Block != nil {
		b := *n.Block
		cp.Block = &b
	}
	if n.Tx != nil {
		t := *n.Tx
		cp.Tx = &t
	}
	if n.Address != nil {
		a := *n.Address
		cp.Address = &a
	}
	return cp
}

func filterEdges(edges []Edge, types []EdgeType) []Edge {
	result := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if matchEdgeType(e.Type, types) {
			result = append(result, e)
		}
	}
	return result
}

func matchEdgeType(t EdgeType, types []EdgeType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func matchNodeType(t NodeType, types []NodeType) bool {
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}
