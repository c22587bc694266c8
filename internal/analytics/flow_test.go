package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaingraph-backend/graph"
)

func TestFlowFromAddress(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 1)
	a := addAddr(t, store, "a", 1)
	b := addAddr(t, store, "b", 1)
	tx := addTx(t, store, "1", 100)
	spend(t, store, a, tx, 1000)
	pay(t, store, tx, b, 950)

	result, err := NewFlowPathFinder(store, 1000).Compute(a, 5, 5)
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	path := result.Paths[0]
	assert.Equal(t, []string{a, tx, b}, path.PathNodes)
	assert.Equal(t, int64(950), path.TotalValue, "only output hops carry value")
	assert.Equal(t, 2, path.PathLength)
	assert.True(t, path.IsComplete)
}

func TestFlowFromTransactionWithTwoOutputs(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 1)
	funder := addAddr(t, store, "funder", 1)
	x := addAddr(t, store, "x", 1)
	y := addAddr(t, store, "y", 1)
	tx := addTx(t, store, "1", 100)
	spend(t, store, funder, tx, 1000)
	pay(t, store, tx, x, 300)
	pay(t, store, tx, y, 700)

	result, err := NewFlowPathFinder(store, 1000).Compute(tx, 5, 5)
	require.NoError(t, err)

	require.Len(t, result.Paths, 2)
	values := make(map[int64]bool)
	for _, path := range result.Paths {
		assert.LessOrEqual(t, path.TotalValue, int64(1000))
		values[path.TotalValue] = true
	}
	assert.Equal(t, map[int64]bool{300: true, 700: true}, values,
		"paths through different outputs carry different values")

	// Sorted by total value, highest first
	assert.Equal(t, int64(700), result.Paths[0].TotalValue)
}

func TestFlowDepthLimitMarksIncomplete(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 2)
	a := addAddr(t, store, "a", 1)
	b := addAddr(t, store, "b", 1)
	c := addAddr(t, store, "c", 1)
	tx1 := addTx(t, store, "1", 100)
	tx2 := addTx(t, store, "2", 100)
	spend(t, store, a, tx1, 1000)
	pay(t, store, tx1, b, 900)
	spend(t, store, b, tx2, 900)
	pay(t, store, tx2, c, 800)

	result, err := NewFlowPathFinder(store, 1000).Compute(a, 2, 5)
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	path := result.Paths[0]
	assert.Equal(t, []string{a, tx1, b}, path.PathNodes)
	assert.False(t, path.IsComplete, "the walk was cut by the depth limit")

	// With enough depth the same walk runs to the end
	result, err = NewFlowPathFinder(store, 1000).Compute(a, 5, 5)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{a, tx1, b, tx2, c}, result.Paths[0].PathNodes)
	assert.Equal(t, int64(1700), result.Paths[0].TotalValue)
	assert.True(t, result.Paths[0].IsComplete)
}

func TestFlowWindowExcludesOldTransactions(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 10, 1)
	addBlock(t, store, 100, 1)
	a := addAddr(t, store, "a", 1)
	b := addAddr(t, store, "b", 1)
	oldTx := addTx(t, store, "old", 10)
	spend(t, store, a, oldTx, 1000)
	pay(t, store, oldTx, b, 900)

	result, err := NewFlowPathFinder(store, 1000).Compute(a, 5, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Paths)

	// A transaction seed outside the window yields an empty result too
	result, err = NewFlowPathFinder(store, 1000).Compute(oldTx, 5, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Paths)
}

func TestFlowUnknownSeed(t *testing.T) {
	store := graph.NewStore()
	_, err := NewFlowPathFinder(store, 1000).Compute("addr_ghost", 5, 5)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "addr_ghost", notFound.ID)
}

func TestFlowBlockSeedRejected(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 0)

	_, err := NewFlowPathFinder(store, 1000).Compute("block_100", 5, 5)

	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
}

func TestFlowCycleGuard(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 1)
	a := addAddr(t, store, "a", 1)
	tx := addTx(t, store, "1", 100)
	spend(t, store, a, tx, 1000)
	pay(t, store, tx, a, 950) // change back to the funder

	result, err := NewFlowPathFinder(store, 1000).Compute(a, 5, 5)
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{a, tx}, result.Paths[0].PathNodes,
		"the walk must not revisit its own start")
}

func TestFlowPathCapTruncates(t *testing.T) {
	store := graph.NewStore()
	addBlock(t, store, 100, 1)
	a := addAddr(t, store, "a", 1)
	tx := addTx(t, store, "1", 100)
	spend(t, store, a, tx, 10000)
	for i := 0; i < 6; i++ {
		out := addAddr(t, store, string(rune('b'+i)), 1)
		pay(t, store, tx, out, int64((i+1)*100))
	}

	result, err := NewFlowPathFinder(store, 3).Compute(a, 5, 5)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Len(t, result.Paths, 3)
	// The highest-value paths found so far come back sorted descending
	for i := 1; i < len(result.Paths); i++ {
		assert.GreaterOrEqual(t, result.Paths[i-1].TotalValue, result.Paths[i].TotalValue)
	}
}
