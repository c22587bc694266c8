package ingest

import (
	"sync"

	"github.com/axiomhq/hyperloglog"
)

// UniqueTracker estimates the number of distinct addresses and transactions
// seen since startup. HyperLogLog keeps this constant-memory no matter how
// long the poller runs.
type UniqueTracker struct {
	mu        sync.Mutex
	addresses *hyperloglog.Sketch
	txs       *hyperloglog.Sketch
}

// NewUniqueTracker creates an empty tracker
func NewUniqueTracker() *UniqueTracker {
	return &UniqueTracker{
		addresses: hyperloglog.New14(),
		txs:       hyperloglog.New14(),
	}
}

// ObserveAddress records an address sighting
func (t *UniqueTracker) ObserveAddress(addr string) {
	t.mu.Lock()
	t.addresses.Insert([]byte(addr))
	t.mu.Unlock()
}

// ObserveTx records a transaction sighting
func (t *UniqueTracker) ObserveTx(hash string) {
	t.mu.Lock()
	t.txs.Insert([]byte(hash))
	t.mu.Unlock()
}

// UniqueAddresses returns the estimated distinct address count
func (t *UniqueTracker) UniqueAddresses() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addresses.Estimate()
}

// UniqueTxs returns the estimated distinct transaction count
func (t *UniqueTracker) UniqueTxs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txs.Estimate()
}
