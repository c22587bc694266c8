package ingest

import (
	"context"
	"sync"
	"time"

	"chaingraph-backend/api/blockfrost"
	"chaingraph-backend/graph"
	"chaingraph-backend/internal/channels"
	"chaingraph-backend/internal/utils"
	"chaingraph-backend/models"
)

// Node id prefixes, shared with the frontend
const (
	blockPrefix = "block_"
	txPrefix    = "tx_"
	addrPrefix  = "addr_"
)

// Config holds fetcher configuration
type Config struct {
	PollInterval time.Duration `json:"pollInterval"` // How often to poll the chain tip (default: 20s)
	MaxTxPerPoll int           `json:"maxTxPerPoll"` // Cap on transactions ingested per block (default: 25)
}

// DefaultConfig returns default fetcher configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: 20 * time.Second,
		MaxTxPerPoll: 25,
	}
}

// ChainClient is the slice of the Blockfrost API the fetcher uses
type ChainClient interface {
	LatestBlock(ctx context.Context) (*blockfrost.Block, error)
	BlockTxs(ctx context.Context, blockHash string) ([]string, error)
	Tx(ctx context.Context, hash string) (*blockfrost.TxDetails, error)
	TxUTxOs(ctx context.Context, hash string) (*blockfrost.TxUTxOs, error)
}

// Status reports the fetcher's view of ingestion progress
type Status struct {
	Running         bool      `json:"running"`
	LastBlockHash   string    `json:"last_block_hash"`
	LastBlockHeight int64     `json:"last_block_height"`
	LastPollAt      time.Time `json:"last_poll_at"`
	BlocksIngested  int64     `json:"blocks_ingested"`
	TxsIngested     int64     `json:"txs_ingested"`
	UniqueAddresses uint64    `json:"unique_addresses"`
	UniqueTxs       uint64    `json:"unique_txs"`
	LastError       string    `json:"last_error,omitempty"`
}

// Fetcher polls the chain tip and feeds new blocks into the graph store.
// It is the single writer: every node and edge enters the graph here.
type Fetcher struct {
	config   Config
	client   ChainClient
	store    *graph.Store
	channels *channels.Channels
	tracker  *UniqueTracker

	mu     sync.RWMutex
	status Status
}

// NewFetcher creates a new fetcher
func NewFetcher(config Config, client ChainClient, store *graph.Store, ch *channels.Channels) *Fetcher {
	return &Fetcher{
		config:   config,
		client:   client,
		store:    store,
		channels: ch,
		tracker:  NewUniqueTracker(),
	}
}

// Status returns a copy of the current ingestion status
func (f *Fetcher) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s := f.status
	s.UniqueAddresses = f.tracker.UniqueAddresses()
	s.UniqueTxs = f.tracker.UniqueTxs()
	return s
}

// Start begins the polling loop. It polls once immediately so the graph is
// not empty until the first tick.
func (f *Fetcher) Start(ctx context.Context) {
	utils.LogInfo("FETCHER", "Starting chain poller (interval %v)", f.config.PollInterval)
	f.setRunning(true)
	defer f.setRunning(false)

	f.poll(ctx)

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("FETCHER", "Stopping chain poller")
			return
		case <-ticker.C:
			f.poll(ctx)
		}
	}
}

func (f *Fetcher) setRunning(running bool) {
	f.mu.Lock()
	f.status.Running = running
	f.mu.Unlock()
}

func (f *Fetcher) setError(err error) {
	f.mu.Lock()
	if err != nil {
		f.status.LastError = err.Error()
	} else {
		f.status.LastError = ""
	}
	f.mu.Unlock()
}

// poll checks the chain tip and ingests the block if it is new
func (f *Fetcher) poll(ctx context.Context) {
	f.mu.Lock()
	f.status.LastPollAt = time.Now()
	lastHash := f.status.LastBlockHash
	f.mu.Unlock()

	tip, err := f.client.LatestBlock(ctx)
	if err != nil {
		utils.LogWarn("FETCHER", "Failed to fetch chain tip: %v", err)
		f.setError(err)
		return
	}
	if tip.Hash == lastHash {
		return
	}

	block, txs, err := f.fetchBlock(ctx, tip)
	if err != nil {
		utils.LogWarn("FETCHER", "Failed to fetch block %s: %v", tip.Hash, err)
		f.setError(err)
		return
	}

	ingested := f.apply(block, txs)
	f.setError(nil)

	f.mu.Lock()
	f.status.LastBlockHash = block.Hash
	f.status.LastBlockHeight = block.Height
	f.status.BlocksIngested++
	f.status.TxsIngested += int64(ingested)
	f.mu.Unlock()

	utils.LogInfo("FETCHER", "Ingested block %d (%s) with %d transactions",
		block.Height, block.Hash, ingested)

	update := models.Update{
		Kind:         models.UpdateBlock,
		Block:        block,
		Transactions: txs,
		Timestamp:    time.Now(),
	}
	select {
	case f.channels.GraphUpdates <- update:
	default:
		utils.LogWarn("FETCHER", "Graph update channel full, dropping block %d event", block.Height)
	}
}

// fetchBlock resolves a tip into a block and its transactions
func (f *Fetcher) fetchBlock(ctx context.Context, tip *blockfrost.Block) (*models.Block, []models.Transaction, error) {
	block := &models.Block{
		Hash:      tip.Hash,
		Height:    tip.Height,
		Slot:      tip.Slot,
		Timestamp: time.Unix(tip.Time, 0).UTC(),
		TxCount:   tip.TxCount,
	}
	if err := block.Validate(); err != nil {
		return nil, nil, err
	}

	hashes, err := f.client.BlockTxs(ctx, tip.Hash)
	if err != nil {
		return nil, nil, err
	}
	if len(hashes) > f.config.MaxTxPerPoll {
		hashes = hashes[:f.config.MaxTxPerPoll]
	}
	block.TxHashes = hashes

	txs := make([]models.Transaction, 0, len(hashes))
	for _, hash := range hashes {
		tx, err := f.fetchTransaction(ctx, hash, block)
		if err != nil {
			utils.LogWarn("FETCHER", "Skipping transaction %s: %v", hash, err)
			continue
		}
		txs = append(txs, *tx)
	}
	return block, txs, nil
}

func (f *Fetcher) fetchTransaction(ctx context.Context, hash string, block *models.Block) (*models.Transaction, error) {
	details, err := f.client.Tx(ctx, hash)
	if err != nil {
		return nil, err
	}
	utxos, err := f.client.TxUTxOs(ctx, hash)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Hash:        hash,
		BlockHash:   block.Hash,
		BlockHeight: block.Height,
		Fee:         parseLovelace(details.Fees),
	}
	for _, in := range utxos.Inputs {
		if in.Collateral || in.Address == "" {
			continue
		}
		tx.Inputs = append(tx.Inputs, models.TxInput{
			Address: in.Address,
			TxHash:  in.TxHash,
			Index:   in.OutputIndex,
			Amount:  in.Lovelace(),
		})
	}
	for _, out := range utxos.Outputs {
		if out.Address == "" {
			continue
		}
		tx.Outputs = append(tx.Outputs, models.TxOutput{
			Address: out.Address,
			Index:   out.OutputIndex,
			Amount:  out.Lovelace(),
		})
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// apply writes a block and its transactions into the graph. A transaction
// that trips a graph integrity check is logged and skipped; it never aborts
// the block.
func (f *Fetcher) apply(block *models.Block, txs []models.Transaction) int {
	blockID := blockPrefix + block.Hash
	if err := f.store.AddNode(blockID, graph.BlockAttrs{
		Height:    block.Height,
		Timestamp: block.Timestamp,
		Slot:      block.Slot,
		TxCount:   block.TxCount,
	}); err != nil {
		utils.LogError("FETCHER", "Failed to add block node %s: %v", blockID, err)
		return 0
	}

	ingested := 0
	for i := range txs {
		if err := f.applyTransaction(blockID, &txs[i]); err != nil {
			utils.LogWarn("FETCHER", "Skipping transaction %s: %v", txs[i].Hash, err)
			continue
		}
		f.tracker.ObserveTx(txs[i].Hash)
		ingested++
	}
	return ingested
}

func (f *Fetcher) applyTransaction(blockID string, tx *models.Transaction) error {
	txID := txPrefix + tx.Hash
	if err := f.store.AddNode(txID, graph.TxAttrs{
		BlockHeight: tx.BlockHeight,
		Fee:         tx.Fee,
		InputCount:  len(tx.Inputs),
		OutputCount: len(tx.Outputs),
	}); err != nil {
		return err
	}
	if err := f.store.AddEdge(blockID, txID, graph.EdgeBlockContainsTx, 0); err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		addrID := f.upsertAddress(in.Address, 0, in.Amount)
		if err := f.store.AddEdge(addrID, txID, graph.EdgeAddressInputsTx, in.Amount); err != nil {
			return err
		}
	}
	for _, out := range tx.Outputs {
		addrID := f.upsertAddress(out.Address, out.Amount, 0)
		if err := f.store.AddEdge(txID, addrID, graph.EdgeTxOutputsAddress, out.Amount); err != nil {
			return err
		}
	}
	return nil
}

// upsertAddress creates or updates an address node, aggregating totals
// across sightings
func (f *Fetcher) upsertAddress(addr string, received, sent int64) string {
	addrID := addrPrefix + addr
	attrs := graph.AddressAttrs{FirstSeen: time.Now().UTC()}
	if node, ok := f.store.GetNode(addrID); ok && node.Address != nil {
		attrs = *node.Address
	}
	attrs.TotalReceived += received
	attrs.TotalSent += sent
	attrs.TxCount++
	if received > 0 {
		attrs.UTxOCount++
	}
	if sent > 0 && attrs.UTxOCount > 0 {
		attrs.UTxOCount--
	}
	if err := f.store.AddNode(addrID, attrs); err != nil {
		utils.LogError("FETCHER", "Failed to upsert address %s: %v", addrID, err)
	}
	f.tracker.ObserveAddress(addr)
	return addrID
}

func parseLovelace(s string) int64 {
	var v int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + int64(r-'0')
	}
	return v
}
