package analytics

import (
	"math"
	"sort"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/utils"
)

// Anomaly detection methods
const (
	MethodZScore     = "zscore"
	MethodPercentile = "percentile"
	MethodThreshold  = "threshold"
)

// minSampleSize is the smallest sample a detection pass will run against
const minSampleSize = 10

func validMethod(method string) bool {
	switch method {
	case MethodZScore, MethodPercentile, MethodThreshold:
		return true
	}
	return false
}

// AnomalyDetector flags statistically unusual blocks and transactions
type AnomalyDetector struct {
	store *graph.Store
}

// NewAnomalyDetector creates an anomaly detector bound to the given store
func NewAnomalyDetector(store *graph.Store) *AnomalyDetector {
	return &AnomalyDetector{store: store}
}

// anomalyMetric is the value a node group is tested on: tx count for blocks,
// total output value for transactions
func (a *AnomalyDetector) anomalyMetric(n graph.Node) float64 {
	switch n.Type {
	case graph.NodeBlock:
		if n.Block != nil {
			return float64(n.Block.TxCount)
		}
		return 0
	default:
		var total int64
		for _, e := range a.store.OutEdges(n.ID, graph.EdgeTxOutputsAddress) {
			total += e.Weight
		}
		return float64(total)
	}
}

// Compute runs one detection pass over the targeted node-type groups. Only
// blocks and transactions carry an anomaly metric; an address group is an
// InvalidParameterError. A targeted group with fewer than ten samples fails
// the whole pass with InsufficientDataError.
func (a *AnomalyDetector) Compute(nodeType graph.NodeType, method string, threshold float64) (*AnomalyResult, error) {
	groups := []graph.NodeType{graph.NodeBlock, graph.NodeTransaction}
	switch nodeType {
	case "":
	case graph.NodeBlock, graph.NodeTransaction:
		groups = []graph.NodeType{nodeType}
	default:
		return nil, &InvalidParameterError{
			Param:  "node_type",
			Value:  string(nodeType),
			Reason: "anomaly detection covers blocks and transactions only",
		}
	}

	result := &AnomalyResult{
		Method:     method,
		Threshold:  threshold,
		Anomalies:  []Anomaly{},
		Statistics: make(map[graph.NodeType]Stats),
	}

	var clearIDs []string
	flagged := make(map[string]Anomaly)

	for _, group := range groups {
		nodes := a.store.AllNodes(group)
		if len(nodes) < minSampleSize {
			return nil, &InsufficientDataError{
				NodeType:   string(group),
				SampleSize: len(nodes),
				Required:   minSampleSize,
			}
		}

		values := make([]float64, len(nodes))
		for i, n := range nodes {
			values[i] = a.anomalyMetric(n)
			clearIDs = append(clearIDs, n.ID)
		}
		result.Statistics[group] = sampleStats(values)

		for i, n := range nodes {
			score, isAnomaly := detect(values[i], values, method, threshold)
			if !isAnomaly {
				continue
			}
			anomaly := Anomaly{
				NodeID:       n.ID,
				NodeType:     group,
				IsAnomaly:    true,
				AnomalyScore: score,
				AnomalyType:  method,
				ActualValue:  values[i],
			}
			result.Anomalies = append(result.Anomalies, anomaly)
			flagged[n.ID] = anomaly
		}
	}

	sort.Slice(result.Anomalies, func(i, j int) bool {
		if result.Anomalies[i].AnomalyScore != result.Anomalies[j].AnomalyScore {
			return result.Anomalies[i].AnomalyScore > result.Anomalies[j].AnomalyScore
		}
		return result.Anomalies[i].NodeID < result.Anomalies[j].NodeID
	})

	a.store.MutateDerived(clearIDs, func(id string, derived *graph.Derived) {
		if anomaly, ok := flagged[id]; ok {
			derived.IsAnomaly = true
			derived.AnomalyScore = anomaly.AnomalyScore
			derived.AnomalyType = anomaly.AnomalyType
		} else {
			derived.IsAnomaly = false
			derived.AnomalyScore = 0
			derived.AnomalyType = ""
		}
	})

	utils.LogDebug("ANALYTICS", "Anomaly pass (%s, t=%.2f) flagged %d of %d nodes",
		method, threshold, len(result.Anomalies), len(clearIDs))
	return result, nil
}

// detect tests a single value against its sample under the given method
func detect(v float64, sample []float64, method string, threshold float64) (score float64, isAnomaly bool) {
	switch method {
	case MethodZScore:
		mu := mean(sample)
		sigma := stddev(sample)
		limit := threshold * sigma
		if limit <= 0 {
			return 0, false
		}
		dev := math.Abs(v - mu)
		if dev <= limit {
			return 0, false
		}
		return math.Min(100, 100*dev/limit), true

	case MethodThreshold:
		mu := mean(sample)
		limit := threshold * mu
		if v <= limit {
			return 0, false
		}
		return scaleScore(v, limit, maxOf(sample)), true

	default: // percentile
		p5, p95 := percentileBounds(sample)
		switch {
		case v >= p95:
			return scaleScore(v, p95, maxOf(sample)), true
		case v <= p5:
			lo := minOf(sample)
			if p5 <= lo {
				return 100, true
			}
			return math.Min(100, 50+50*(p5-v)/(p5-lo)), true
		}
		return 0, false
	}
}

// scaleScore maps the span [boundary, extreme] linearly onto [50, 100]
func scaleScore(v, boundary, extreme float64) float64 {
	if extreme <= boundary {
		return 100
	}
	score := 50 + 50*(v-boundary)/(extreme-boundary)
	return math.Min(100, math.Max(50, score))
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
