package analytics

import (
	"sync"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// MetricsCache tracks, per metric family, whether cached results are still
// valid and which node ids a mutation touched. It registers as a store
// listener: any graph mutation invalidates every family, since global
// normalization and statistics depend on the full sample and window
// membership can shift.
type MetricsCache struct {
	mu         sync.Mutex
	entries    map[graph.MetricFamily]map[string]interface{}
	dirty      map[graph.MetricFamily]bool
	affected   map[graph.MetricFamily]map[string]struct{}
	generation map[graph.MetricFamily]uint64
	recomputes map[graph.MetricFamily]int
}

// NewMetricsCache creates an empty cache with every family dirty
func NewMetricsCache() *MetricsCache {
	c := &MetricsCache{
		entries:    make(map[graph.MetricFamily]map[string]interface{}),
		dirty:      make(map[graph.MetricFamily]bool),
		affected:   make(map[graph.MetricFamily]map[string]struct{}),
		generation: make(map[graph.MetricFamily]uint64),
		recomputes: make(map[graph.MetricFamily]int),
	}
	for _, family := range graph.AllFamilies() {
		c.entries[family] = make(map[string]interface{})
		c.dirty[family] = true
		c.affected[family] = make(map[string]struct{})
	}
	return c
}

// GraphChanged implements graph.Listener
func (c *MetricsCache) GraphChanged(changed []string, families []graph.MetricFamily) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, family := range families {
		c.invalidateLocked(family, changed)
	}
}

func (c *MetricsCache) invalidateLocked(family graph.MetricFamily, changed []string) {
	c.dirty[family] = true
	c.generation[family]++
	c.entries[family] = make(map[string]interface{})
	for _, id := range changed {
		c.affected[family][id] = struct{}{}
	}
}

// InvalidateAll forces every family dirty regardless of current state
func (c *MetricsCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, family := range graph.AllFamilies() {
		c.invalidateLocked(family, nil)
	}
	utils.LogDebug("CACHE", "All metric families invalidated")
}

// Get returns the cached result for (family, key), or runs compute and
// caches its result. The compute function runs outside the cache lock;
// its result is only stored if no invalidation happened while it ran, so a
// reader never observes a recompute that raced a mutation.
func (c *MetricsCache) Get(family graph.MetricFamily, key string, compute func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if cached, ok := c.entries[family][key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	gen := c.generation[family]
	c.mu.Unlock()

	result, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.recomputes[family]++
	if c.generation[family] == gen {
		c.entries[family][key] = result
		c.dirty[family] = false
		c.affected[family] = make(map[string]struct{})
	}
	c.mu.Unlock()
	return result, nil
}

// IsDirty reports whether a family has pending invalidations
func (c *MetricsCache) IsDirty(family graph.MetricFamily) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[family]
}

// AffectedIDs returns the node ids touched since the family was last
// recomputed
func (c *MetricsCache) AffectedIDs(family graph.MetricFamily) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.affected[family]))
	for id := range c.affected[family] {
		ids = append(ids, id)
	}
	return ids
}

// Recomputes returns how many times a family's analyzer has been invoked
func (c *MetricsCache) Recomputes(family graph.MetricFamily) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputes[family]
}
