package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/analytics"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps analytics errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	var invalid *analytics.InvalidParameterError
	var notFound *analytics.NotFoundError
	var insufficient *analytics.InsufficientDataError

	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
			"code":  "INVALID_PARAMETER",
			"param": invalid.Param,
		})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
			"code":  "NOT_FOUND",
		})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":       err.Error(),
			"code":        "INSUFFICIENT_DATA",
			"sample_size": insufficient.SampleSize,
			"required":    insufficient.Required,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
			"code":  "INTERNAL",
		})
	}
}

func parseFilter(r *http.Request) analytics.Filter {
	return analytics.Filter{
		NodeType: graph.NodeType(r.URL.Query().Get("node_type")),
		NodeID:   r.URL.Query().Get("node_id"),
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.broadcaster.UpgradeConnection(w, r)
}

// handleGraph returns the full graph with derived attributes
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.store.AllNodes()
	edges := s.store.AllEdges()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	})
}

// handleStatus returns ingestion and graph status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graph":   s.store.Snapshot(),
		"ingest":  s.fetcher.Status(),
		"clients": s.broadcaster.GetClientCount(),
	})
}

// handleNodes browses nodes with optional type filter, substring search and
// pagination
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var nodes []graph.Node
	if typ := query.Get("node_type"); typ != "" {
		nodeType := graph.NodeType(typ)
		if !nodeType.Valid() {
			writeError(w, &analytics.InvalidParameterError{
				Param: "node_type", Value: typ,
				Reason: "must be block, transaction or address",
			})
			return
		}
		nodes = s.store.AllNodes(nodeType)
	} else {
		nodes = s.store.AllNodes()
	}

	if q := strings.ToLower(query.Get("q")); q != "" {
		matched := nodes[:0]
		for _, n := range nodes {
			if nodeMatches(n, q) {
				matched = append(matched, n)
			}
		}
		nodes = matched
	}

	limit, err := intParam(query.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	if limit == 0 {
		limit = 100
	}
	offset, err := intParam(query.Get("offset"), "offset")
	if err != nil {
		writeError(w, err)
		return
	}
	if limit < 0 {
		writeError(w, &analytics.InvalidParameterError{
			Param: "limit", Value: limit, Reason: "must not be negative",
		})
		return
	}
	if offset < 0 {
		writeError(w, &analytics.InvalidParameterError{
			Param: "offset", Value: offset, Reason: "must not be negative",
		})
		return
	}

	total := len(nodes)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes":    nodes[offset:end],
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": end < total,
	})
}

// nodeMatches reports whether the lowercased query hits the node id or, for
// blocks, the height
func nodeMatches(n graph.Node, q string) bool {
	if strings.Contains(strings.ToLower(n.ID), q) {
		return true
	}
	if n.Block != nil && strings.Contains(strconv.FormatInt(n.Block.Height, 10), q) {
		return true
	}
	return false
}

// handleNode returns a single node with its connected nodes and edges
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/nodes/")
	node, ok := s.store.GetNode(id)
	if !ok {
		writeError(w, &analytics.NotFoundError{ID: id})
		return
	}

	neighbors := s.store.Neighbors(id, graph.DirBoth)
	edges := append(s.store.InEdges(id), s.store.OutEdges(id)...)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"node":             node,
		"connected_nodes":  neighbors,
		"connected_edges":  edges,
		"connection_count": len(neighbors),
	})
}

// handleDegrees returns degree metrics
func (s *Server) handleDegrees(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.engine.Degrees(parseFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"degrees": metrics,
		"count":   len(metrics),
	})
}

// handleActivity returns activity scores and colors
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Activity(parseFilter(r), r.URL.Query().Get("color_scheme"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAnomalies returns detected anomalies
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, &analytics.InvalidParameterError{
				Param: "threshold", Value: raw, Reason: "not a number",
			})
			return
		}
		threshold = parsed
	}

	result, err := s.engine.Anomalies(parseFilter(r), r.URL.Query().Get("method"), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleClusters returns detected communities
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	window := 0
	if raw := r.URL.Query().Get("time_window_blocks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, &analytics.InvalidParameterError{
				Param: "time_window_blocks", Value: raw, Reason: "not an integer",
			})
			return
		}
		window = parsed
	}

	result, err := s.engine.Clusters(r.URL.Query().Get("cluster_type"), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFlow returns value-flow paths from a seed node
func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	seed := query.Get("start_address")
	if seed == "" {
		seed = query.Get("transaction_id")
	}

	maxDepth, err := intParam(query.Get("max_depth"), "max_depth")
	if err != nil {
		writeError(w, err)
		return
	}
	maxBlocks, err := intParam(query.Get("max_blocks"), "max_blocks")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.engine.Flow(seed, maxDepth, maxBlocks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRecalculate forces a full synchronous recomputation
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error": "recalculation requires POST",
			"code":  "METHOD_NOT_ALLOWED",
		})
		return
	}
	if err := s.engine.RecalculateAll(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "recalculated",
		"graph":  s.store.Snapshot(),
	})
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"nodes":   s.store.NodeCount(),
		"edges":   s.store.EdgeCount(),
		"clients": s.broadcaster.GetClientCount(),
	})
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &analytics.InvalidParameterError{Param: name, Value: raw, Reason: "not an integer"}
	}
	return v, nil
}
