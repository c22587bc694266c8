package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chaingraph-backend/api/blockfrost"
	"chaingraph-backend/config"
	"chaingraph-backend/graph"
	"chaingraph-backend/internal/analytics"
	"chaingraph-backend/internal/broadcaster"
	"chaingraph-backend/internal/channels"
	"chaingraph-backend/internal/ingest"
	"chaingraph-backend/internal/server"
	"chaingraph-backend/internal/utils"
)

func main() {
	utils.LogInfo("MAIN", "Starting chain graph backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appConfig := config.Load()
	if appConfig.Blockfrost.ProjectID == "" {
		utils.LogError("MAIN", "BLOCKFROST_PROJECT_ID is required")
		os.Exit(1)
	}

	store := graph.NewStore()
	engine := analytics.NewEngine(store, appConfig.Analytics)
	ch := channels.NewChannels()

	client := blockfrost.NewClient(appConfig.Blockfrost)
	fetcher := ingest.NewFetcher(appConfig.Ingest, client, store, ch)

	bcaster := broadcaster.NewBroadcaster(appConfig.Broadcaster, ch, snapshotProvider{store})
	srv := server.NewServer(store, engine, bcaster, fetcher)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		fetcher.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		bcaster.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx, appConfig.Server.Port); err != nil {
			utils.LogError("MAIN", "Server error: %v", err)
		}
	}()

	utils.LogInfo("MAIN", "Backend started on %s", appConfig.Server.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	utils.LogInfo("MAIN", "Shutdown signal received")

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		utils.LogInfo("MAIN", "Graceful shutdown completed")
	case <-time.After(10 * time.Second):
		utils.LogWarn("MAIN", "Shutdown timeout reached")
	}
}

// snapshotProvider adapts the store to the broadcaster's snapshot interface
type snapshotProvider struct {
	store *graph.Store
}

func (p snapshotProvider) Snapshot() interface{} {
	return p.store.Snapshot()
}
