package analytics

import (
	"errors"
	"fmt"
	"time"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// Config holds analytics engine configuration
type Config struct {
	// MaxPathsPerQuery caps how many flow paths a single query enumerates
	MaxPathsPerQuery int
}

// DefaultConfig returns default analytics engine configuration
func DefaultConfig() Config {
	return Config{
		MaxPathsPerQuery: 1000,
	}
}

// Engine orchestrates the analyzers behind the metrics cache. It is the
// single entry point the transport layer queries; all derived attribute
// writes flow through it.
type Engine struct {
	store    *graph.Store
	cache    *MetricsCache
	degrees  *DegreeAnalyzer
	activity *ActivityColorMapper
	anomaly  *AnomalyDetector
	clusters *ClusterDetector
	flow     *FlowPathFinder
}

// NewEngine creates an analytics engine bound to the given store and
// registers its cache for mutation notifications
func NewEngine(store *graph.Store, config Config) *Engine {
	e := &Engine{
		store:    store,
		cache:    NewMetricsCache(),
		degrees:  NewDegreeAnalyzer(store),
		activity: NewActivityColorMapper(store),
		anomaly:  NewAnomalyDetector(store),
		clusters: NewClusterDetector(store),
		flow:     NewFlowPathFinder(store, config.MaxPathsPerQuery),
	}
	store.RegisterListener(e.cache)
	return e
}

// Cache exposes the metrics cache for status reporting
func (e *Engine) Cache() *MetricsCache {
	return e.cache
}

// Degrees returns degree metrics for the nodes selected by filter
func (e *Engine) Degrees(filter Filter) ([]DegreeMetric, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	cached, err := e.cache.Get(graph.FamilyDegree, "all", func() (interface{}, error) {
		return e.degrees.Compute(), nil
	})
	if err != nil {
		return nil, err
	}

	metrics := cached.([]DegreeMetric)
	result := make([]DegreeMetric, 0, len(metrics))
	for _, m := range metrics {
		if filter.NodeType != "" && m.NodeType != filter.NodeType {
			continue
		}
		if filter.NodeID != "" && m.NodeID != filter.NodeID {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

// Activity returns normalized activity scores and colors under the given
// scheme. An empty scheme defaults to heatmap.
func (e *Engine) Activity(filter Filter, scheme string) (*ActivityResult, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if scheme == "" {
		scheme = SchemeHeatmap
	}
	if !validScheme(scheme) {
		return nil, &InvalidParameterError{
			Param:  "color_scheme",
			Value:  scheme,
			Reason: "must be heatmap, activity or grayscale",
		}
	}

	cached, err := e.cache.Get(graph.FamilyActivity, scheme, func() (interface{}, error) {
		return &ActivityResult{
			ColorScheme: scheme,
			Nodes:       e.activity.Compute(scheme),
			ComputedAt:  time.Now(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	full := cached.(*ActivityResult)
	if filter.NodeType == "" && filter.NodeID == "" {
		return full, nil
	}
	filtered := &ActivityResult{ColorScheme: full.ColorScheme, ComputedAt: full.ComputedAt}
	for _, m := range full.Nodes {
		if filter.NodeType != "" && m.NodeType != filter.NodeType {
			continue
		}
		if filter.NodeID != "" && m.NodeID != filter.NodeID {
			continue
		}
		filtered.Nodes = append(filtered.Nodes, m)
	}
	return filtered, nil
}

// Anomalies runs anomaly detection over the filtered node groups. An empty
// method defaults to percentile, a zero threshold to 2.0.
func (e *Engine) Anomalies(filter Filter, method string, threshold float64) (*AnomalyResult, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if method == "" {
		method = MethodPercentile
	}
	if !validMethod(method) {
		return nil, &InvalidParameterError{
			Param:  "method",
			Value:  method,
			Reason: "must be zscore, percentile or threshold",
		}
	}
	if threshold == 0 {
		threshold = 2.0
	}
	if threshold < 0 {
		return nil, &InvalidParameterError{
			Param:  "threshold",
			Value:  threshold,
			Reason: "must be positive",
		}
	}

	key := fmt.Sprintf("%s|%s|%g", filter.NodeType, method, threshold)
	cached, err := e.cache.Get(graph.FamilyAnomaly, key, func() (interface{}, error) {
		result, err := e.anomaly.Compute(filter.NodeType, method, threshold)
		if err != nil {
			return nil, err
		}
		result.ComputedAt = time.Now()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.(*AnomalyResult), nil
}

// Clusters detects communities of the given type in the trailing block
// window. A zero window defaults to 30 blocks.
func (e *Engine) Clusters(clusterType string, window int) (*ClusterResult, error) {
	if window == 0 {
		window = DefaultClusterWindow
	}
	if window < MinClusterWindow || window > MaxClusterWindow {
		return nil, &InvalidParameterError{
			Param:  "time_window_blocks",
			Value:  window,
			Reason: fmt.Sprintf("must be between %d and %d", MinClusterWindow, MaxClusterWindow),
		}
	}

	key := fmt.Sprintf("%s|%d", clusterType, window)
	cached, err := e.cache.Get(graph.FamilyCluster, key, func() (interface{}, error) {
		result, err := e.clusters.Compute(clusterType, window)
		if err != nil {
			return nil, err
		}
		result.ComputedAt = time.Now()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.(*ClusterResult), nil
}

// Flow enumerates value-flow paths from the seed node. Zero depth and
// window default to 5.
func (e *Engine) Flow(seed string, maxDepth, maxBlocks int) (*FlowResult, error) {
	if seed == "" {
		return nil, &InvalidParameterError{
			Param:  "seed",
			Value:  seed,
			Reason: "start_address or transaction_id is required",
		}
	}
	if maxDepth == 0 {
		maxDepth = DefaultFlowDepth
	}
	if maxDepth < MinFlowDepth || maxDepth > MaxFlowDepth {
		return nil, &InvalidParameterError{
			Param:  "max_depth",
			Value:  maxDepth,
			Reason: fmt.Sprintf("must be between %d and %d", MinFlowDepth, MaxFlowDepth),
		}
	}
	if maxBlocks == 0 {
		maxBlocks = DefaultFlowBlocks
	}
	if maxBlocks < MinFlowBlocks || maxBlocks > MaxFlowBlocks {
		return nil, &InvalidParameterError{
			Param:  "max_blocks",
			Value:  maxBlocks,
			Reason: fmt.Sprintf("must be between %d and %d", MinFlowBlocks, MaxFlowBlocks),
		}
	}

	key := fmt.Sprintf("%s|%d|%d", seed, maxDepth, maxBlocks)
	cached, err := e.cache.Get(graph.FamilyFlow, key, func() (interface{}, error) {
		result, err := e.flow.Compute(seed, maxDepth, maxBlocks)
		if err != nil {
			return nil, err
		}
		result.ComputedAt = time.Now()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.(*FlowResult), nil
}

// RecalculateAll invalidates every metric family and synchronously
// recomputes the standing ones with default parameters. It blocks until
// every recompute finishes. Flow results are query-shaped, so that family
// is only cleared.
func (e *Engine) RecalculateAll() error {
	e.cache.InvalidateAll()

	if _, err := e.Degrees(Filter{}); err != nil {
		return err
	}
	if _, err := e.Activity(Filter{}, SchemeHeatmap); err != nil {
		return err
	}
	if _, err := e.Anomalies(Filter{}, MethodPercentile, 2.0); err != nil {
		var insufficient *InsufficientDataError
		if !errors.As(err, &insufficient) {
			return err
		}
		utils.LogDebug("ANALYTICS", "Recalculate skipped anomalies: %v", err)
	}
	if _, err := e.Clusters(ClusterAddress, DefaultClusterWindow); err != nil {
		return err
	}

	utils.LogInfo("ANALYTICS", "Full recalculation complete (%d nodes, %d edges)",
		e.store.NodeCount(), e.store.EdgeCount())
	return nil
}

func validateFilter(filter Filter) error {
	if filter.NodeType != "" && !filter.NodeType.Valid() {
		return &InvalidParameterError{
			Param:  "node_type",
			Value:  string(filter.NodeType),
			Reason: "must be block, transaction or address",
		}
	}
	return nil
}
