package analytics

import (
	"sort"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// Cluster types accepted by the detector
const (
	ClusterAddress     = "address"
	ClusterTransaction = "transaction"
)

// Window bounds for cluster detection, in blocks
const (
	MinClusterWindow     = 20
	MaxClusterWindow     = 50
	DefaultClusterWindow = 30
)

// ClusterDetector partitions a windowed subgraph into communities of
// frequently co-occurring addresses or transactions
type ClusterDetector struct {
	store *graph.Store
}

// NewClusterDetector creates a cluster detector bound to the given store
func NewClusterDetector(store *graph.Store) *ClusterDetector {
	return &ClusterDetector{store: store}
}

// Compute detects communities among the addresses or transactions of the
// trailing block window. Nodes that end up alone are reported as unclustered
// with cluster id -1, not as clusters of size one.
func (c *ClusterDetector) Compute(clusterType string, window int) (*ClusterResult, error) {
	if clusterType != ClusterAddress && clusterType != ClusterTransaction {
		return nil, &InvalidParameterError{
			Param:  "cluster_type",
			Value:  clusterType,
			Reason: "must be address or transaction",
		}
	}

	result := &ClusterResult{
		ClusterType: clusterType,
		Window:      window,
		Clusters:    []Cluster{},
	}

	txs := c.windowTransactions(window)
	adj := c.project(clusterType, txs)

	members := make([]string, 0, len(adj))
	for id := range adj {
		members = append(members, id)
	}
	sort.Strings(members)
	result.NodeCount = len(members)
	for _, id := range members {
		result.EdgeCount += len(adj[id])
	}
	result.EdgeCount /= 2

	communities := greedyModularity(members, adj)

	// Size-descending ordering, ties broken by smallest member id
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i]) != len(communities[j]) {
			return len(communities[i]) > len(communities[j])
		}
		return communities[i][0] < communities[j][0]
	})

	assigned := make(map[string]Cluster)
	nextID := 0
	for _, community := range communities {
		if len(community) < 2 {
			result.Unclustered = append(result.Unclustered, community...)
			continue
		}
		cluster := Cluster{
			ID:       nextID,
			NodeIDs:  community,
			Size:     len(community),
			ColorHex: clusterColor(nextID),
		}
		result.Clusters = append(result.Clusters, cluster)
		for _, id := range community {
			assigned[id] = cluster
		}
		nextID++
	}
	sort.Strings(result.Unclustered)

	c.store.MutateDerived(members, func(id string, derived *graph.Derived) {
		if cluster, ok := assigned[id]; ok {
			derived.ClusterID = cluster.ID
			derived.ClusterType = clusterType
			derived.ClusterColor = cluster.ColorHex
		} else {
			derived.ClusterID = -1
			derived.ClusterType = clusterType
			derived.ClusterColor = clusterColor(-1)
		}
	})

	utils.LogDebug("ANALYTICS", "Clustered %d %s nodes into %d communities (%d unclustered)",
		result.NodeCount, clusterType, len(result.Clusters), len(result.Unclustered))
	return result, nil
}

// windowTransactions returns the transactions whose containing block height
// falls in the trailing window
func (c *ClusterDetector) windowTransactions(window int) []graph.Node {
	latest, ok := c.store.LatestBlockHeight()
	if !ok {
		return nil
	}
	lowest := latest - int64(window) + 1

	var txs []graph.Node
	for _, n := range c.store.AllNodes(graph.NodeTransaction) {
		if n.Tx != nil && n.Tx.BlockHeight >= lowest && n.Tx.BlockHeight <= latest {
			txs = append(txs, n)
		}
	}
	return txs
}

// project builds the undirected relationship graph the communities are
// detected on. Address mode links the addresses that co-occur on a
// transaction (input with input, or input with output); transaction mode
// links transactions sharing at least one address.
func (c *ClusterDetector) project(clusterType string, txs []graph.Node) map[string]map[string]float64 {
	adj := make(map[string]map[string]float64)
	link := func(a, b string) {
		if a == b {
			return
		}
		if adj[a] == nil {
			adj[a] = make(map[string]float64)
		}
		if adj[b] == nil {
			adj[b] = make(map[string]float64)
		}
		adj[a][b]++
		adj[b][a]++
	}
	touch := func(id string) {
		if adj[id] == nil {
			adj[id] = make(map[string]float64)
		}
	}

	if clusterType == ClusterAddress {
		for _, tx := range txs {
			var inputs, outputs []string
			for _, e := range c.store.InEdges(tx.ID, graph.EdgeAddressInputsTx) {
				inputs = append(inputs, e.Source)
				touch(e.Source)
			}
			for _, e := range c.store.OutEdges(tx.ID, graph.EdgeTxOutputsAddress) {
				outputs = append(outputs, e.Target)
				touch(e.Target)
			}
			for i := 0; i < len(inputs); i++ {
				for j := i + 1; j < len(inputs); j++ {
					link(inputs[i], inputs[j])
				}
				for _, out := range outputs {
					link(inputs[i], out)
				}
			}
		}
		return adj
	}

	// Transaction mode: index window transactions by the addresses they touch
	byAddress := make(map[string][]string)
	for _, tx := range txs {
		touch(tx.ID)
		seen := make(map[string]struct{})
		for _, e := range c.store.InEdges(tx.ID, graph.EdgeAddressInputsTx) {
			seen[e.Source] = struct{}{}
		}
		for _, e := range c.store.OutEdges(tx.ID, graph.EdgeTxOutputsAddress) {
			seen[e.Target] = struct{}{}
		}
		for addr := range seen {
			byAddress[addr] = append(byAddress[addr], tx.ID)
		}
	}
	for _, shared := range byAddress {
		sort.Strings(shared)
		for i := 0; i < len(shared); i++ {
			for j := i + 1; j < len(shared); j++ {
				link(shared[i], shared[j])
			}
		}
	}
	return adj
}

// greedyModularity merges communities pairwise while the merge with the
// best modularity gain is positive. Deterministic given the sorted member
// list. Fine at the target scale of about a thousand nodes.
func greedyModularity(members []string, adj map[string]map[string]float64) [][]string {
	if len(members) == 0 {
		return nil
	}

	index := make(map[string]int, len(members))
	for i, id := range members {
		index[id] = i
	}

	// Community state: weight between communities, total degree per
	// community, membership
	commEdges := make([]map[int]float64, len(members))
	commDeg := make([]float64, len(members))
	groups := make([][]string, len(members))
	alive := make([]bool, len(members))

	var m float64
	for i, id := range members {
		commEdges[i] = make(map[int]float64)
		groups[i] = []string{id}
		alive[i] = true
		for other, w := range adj[id] {
			j := index[other]
			commEdges[i][j] += w
			commDeg[i] += w
			if i < j {
				m += w
			}
		}
	}
	if m == 0 {
		return groups
	}

	for {
		bestGain := 0.0
		bestA, bestB := -1, -1
		for a := 0; a < len(members); a++ {
			if !alive[a] {
				continue
			}
			for b, w := range commEdges[a] {
				if b <= a || !alive[b] {
					continue
				}
				gain := w/m - commDeg[a]*commDeg[b]/(2*m*m)
				if gain > bestGain {
					bestGain = gain
					bestA, bestB = a, b
				}
			}
		}
		if bestA < 0 {
			break
		}

		// Merge bestB into bestA
		groups[bestA] = append(groups[bestA], groups[bestB]...)
		commDeg[bestA] += commDeg[bestB]
		for c, w := range commEdges[bestB] {
			if c == bestA {
				continue
			}
			commEdges[bestA][c] += w
			commEdges[c][bestA] += w
			delete(commEdges[c], bestB)
		}
		delete(commEdges[bestA], bestB)
		alive[bestB] = false
	}

	var result [][]string
	for i, ok := range alive {
		if !ok {
			continue
		}
		sort.Strings(groups[i])
		result = append(result, groups[i])
	}
	return result
}
