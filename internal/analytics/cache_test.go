package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaingraph-backend/graph"
)

func TestCacheHitSkipsRecompute(t *testing.T) {
	cache := NewMetricsCache()
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "result", nil
	}

	first, err := cache.Get(graph.FamilyDegree, "all", compute)
	require.NoError(t, err)
	second, err := cache.Get(graph.FamilyDegree, "all", compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Recomputes(graph.FamilyDegree))
	assert.False(t, cache.IsDirty(graph.FamilyDegree))
}

func TestCacheKeysAreIndependent(t *testing.T) {
	cache := NewMetricsCache()
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	a, _ := cache.Get(graph.FamilyActivity, "heatmap", compute)
	b, _ := cache.Get(graph.FamilyActivity, "grayscale", compute)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestMutationInvalidatesEveryFamily(t *testing.T) {
	cache := NewMetricsCache()
	for _, family := range graph.AllFamilies() {
		_, err := cache.Get(family, "k", func() (interface{}, error) { return 1, nil })
		require.NoError(t, err)
		require.False(t, cache.IsDirty(family))
	}

	cache.GraphChanged([]string{"tx_1"}, graph.AllFamilies())

	for _, family := range graph.AllFamilies() {
		assert.True(t, cache.IsDirty(family))
		assert.Equal(t, []string{"tx_1"}, cache.AffectedIDs(family))
	}
}

func TestInvalidateAllForcesDirty(t *testing.T) {
	cache := NewMetricsCache()
	_, err := cache.Get(graph.FamilyCluster, "address|30", func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)

	cache.InvalidateAll()

	assert.True(t, cache.IsDirty(graph.FamilyCluster))
	calls := 0
	_, err = cache.Get(graph.FamilyCluster, "address|30", func() (interface{}, error) {
		calls++
		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "invalidation must drop the cached entry")
}

func TestComputeErrorIsNotCached(t *testing.T) {
	cache := NewMetricsCache()
	boom := &InsufficientDataError{NodeType: "block", SampleSize: 3, Required: 10}

	_, err := cache.Get(graph.FamilyAnomaly, "k", func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	calls := 0
	_, err = cache.Get(graph.FamilyAnomaly, "k", func() (interface{}, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "a failed compute must not poison the key")
}

func TestRecomputeRacingInvalidationIsDiscarded(t *testing.T) {
	cache := NewMetricsCache()

	// An invalidation arriving while compute runs must win: the stale
	// result is returned to this caller but never cached
	_, err := cache.Get(graph.FamilyDegree, "all", func() (interface{}, error) {
		cache.GraphChanged([]string{"block_1"}, []graph.MetricFamily{graph.FamilyDegree})
		return "stale", nil
	})
	require.NoError(t, err)

	assert.True(t, cache.IsDirty(graph.FamilyDegree))
	fresh := 0
	_, err = cache.Get(graph.FamilyDegree, "all", func() (interface{}, error) {
		fresh++
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fresh, "stale result must not have been stored")
}
