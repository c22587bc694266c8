package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaingraph-backend/graph"
)

// twoGroupStore builds two disjoint densely connected address groups inside
// the current block window
func twoGroupStore(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore()
	addBlock(t, store, 100, 6)

	group := func(prefix string, txOffset int) []string {
		addrs := []string{
			addAddr(t, store, prefix+"1", 1),
			addAddr(t, store, prefix+"2", 1),
			addAddr(t, store, prefix+"3", 1),
		}
		for i := 0; i < 3; i++ {
			tx := addTx(t, store, prefix+string(rune('1'+txOffset+i)), 100)
			spend(t, store, addrs[i], tx, 1000)
			pay(t, store, tx, addrs[(i+1)%3], 900)
		}
		return addrs
	}
	group("a", 0)
	group("b", 3)
	return store
}

func TestTwoDisjointGroupsYieldTwoClusters(t *testing.T) {
	store := twoGroupStore(t)

	result, err := NewClusterDetector(store).Compute(ClusterAddress, 30)
	require.NoError(t, err)

	require.Len(t, result.Clusters, 2)
	assert.Empty(t, result.Unclustered)

	var all []string
	seen := make(map[string]int)
	for _, cluster := range result.Clusters {
		assert.Equal(t, len(cluster.NodeIDs), cluster.Size)
		assert.NotEmpty(t, cluster.ColorHex)
		for _, id := range cluster.NodeIDs {
			seen[id]++
			all = append(all, id)
		}
	}
	assert.Len(t, all, 6, "every address in the window is covered")
	for id, n := range seen {
		assert.Equal(t, 1, n, "address %s appears in more than one cluster", id)
	}

	// No address of one group shares a cluster with the other group
	first := result.Clusters[0].NodeIDs
	prefix := first[0][:6]
	for _, id := range first {
		assert.Equal(t, prefix, id[:6])
	}
}

func TestClusterIDsOrderedBySize(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 5)

	// Big group: four addresses round-robin, small group: two addresses
	big := []string{
		addAddr(t, store, "a1", 1), addAddr(t, store, "a2", 1),
		addAddr(t, store, "a3", 1), addAddr(t, store, "a4", 1),
	}
	for i := 0; i < 4; i++ {
		tx := addTx(t, store, string(rune('1'+i)), 100)
		spend(t, store, big[i], tx, 100)
		pay(t, store, tx, big[(i+1)%4], 90)
	}
	small1 := addAddr(t, store, "z1", 1)
	small2 := addAddr(t, store, "z2", 1)
	tx := addTx(t, store, "9", 100)
	spend(t, store, small1, tx, 100)
	pay(t, store, tx, small2, 90)

	result, err := NewClusterDetector(store).Compute(ClusterAddress, 30)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, 0, result.Clusters[0].ID)
	assert.Equal(t, 4, result.Clusters[0].Size)
	assert.Equal(t, 1, result.Clusters[1].ID)
	assert.Equal(t, 2, result.Clusters[1].Size)
}

func TestSingletonAddressesAreUnclustered(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 2)

	// A lone address funds a transaction with no outputs: nothing to
	// co-occur with
	loner := addAddr(t, store, "loner", 1)
	tx := addTx(t, store, "1", 100)
	spend(t, store, loner, tx, 100)

	pair1 := addAddr(t, store, "p1", 1)
	pair2 := addAddr(t, store, "p2", 1)
	tx2 := addTx(t, store, "2", 100)
	spend(t, store, pair1, tx2, 100)
	pay(t, store, tx2, pair2, 90)

	result, err := NewClusterDetector(store).Compute(ClusterAddress, 30)
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.Equal(t, []string{loner}, result.Unclustered)

	node, _ := store.GetNode(loner)
	assert.Equal(t, -1, node.Derived.ClusterID)
}

func TestClusterWindowExcludesOldTransactions(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 10, 1)
	addBlock(t, store, 100, 1)

	// Old transaction far outside a 30-block trailing window
	oldA := addAddr(t, store, "old1", 1)
	oldB := addAddr(t, store, "old2", 1)
	oldTx := addTx(t, store, "old", 10)
	spend(t, store, oldA, oldTx, 100)
	pay(t, store, oldTx, oldB, 90)

	curA := addAddr(t, store, "cur1", 1)
	curB := addAddr(t, store, "cur2", 1)
	curTx := addTx(t, store, "cur", 100)
	spend(t, store, curA, curTx, 100)
	pay(t, store, curTx, curB, 90)

	result, err := NewClusterDetector(store).Compute(ClusterAddress, 30)
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{curA, curB}, result.Clusters[0].NodeIDs)
}

func TestTransactionClustering(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 3)

	shared := addAddr(t, store, "shared", 2)
	other := addAddr(t, store, "other", 1)
	tx1 := addTx(t, store, "1", 100)
	tx2 := addTx(t, store, "2", 100)
	tx3 := addTx(t, store, "3", 100)
	spend(t, store, shared, tx1, 100)
	spend(t, store, shared, tx2, 100)
	spend(t, store, other, tx3, 100)

	result, err := NewClusterDetector(store).Compute(ClusterTransaction, 30)
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{tx1, tx2}, result.Clusters[0].NodeIDs)
	assert.Equal(t, []string{tx3}, result.Unclustered)
}

func TestClusterInvalidType(t *testing.T) {
	store := graph.NewStore()
	_, err := NewClusterDetector(store).Compute("stake_pool", 30)

	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cluster_type", invalid.Param)
}

func TestClusterEmptyGraph(t *testing.T) {
	store := graph.NewStore()
	result, err := NewClusterDetector(store).Compute(ClusterAddress, 30)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.Zero(t, result.NodeCount)
}
