package server

import (
	"context"
	"net/http"

	"chaingraph-backend/graph"
	"chaingraph-backend/internal/analytics"
	"chaingraph-backend/internal/broadcaster"
	"chaingraph-backend/internal/ingest"
	"chaingraph-backend/internal/utils"
)

// Server represents the HTTP server
type Server struct {
	store       *graph.Store
	engine      *analytics.Engine
	broadcaster *broadcaster.Broadcaster
	fetcher     *ingest.Fetcher
}

// NewServer creates a new server
func NewServer(store *graph.Store, engine *analytics.Engine, b *broadcaster.Broadcaster, f *ingest.Fetcher) *Server {
	return &Server{
		store:       store,
		engine:      engine,
		broadcaster: b,
		fetcher:     f,
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Graph endpoints
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/nodes", s.handleNodes)
	mux.HandleFunc("/api/nodes/", s.handleNode)

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/degrees", s.handleDegrees)
	mux.HandleFunc("/api/analytics/activity", s.handleActivity)
	mux.HandleFunc("/api/analytics/anomalies", s.handleAnomalies)
	mux.HandleFunc("/api/analytics/clusters", s.handleClusters)
	mux.HandleFunc("/api/analytics/flow", s.handleFlow)
	mux.HandleFunc("/api/analytics/recalculate", s.handleRecalculate)

	// Health check endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	utils.LogInfo("SERVER", "HTTP server listening on %s", addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.LogError("SERVER", "HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("SERVER", "Shutting down HTTP server")
	return server.Shutdown(context.Background())
}
