package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chaingraph-backend/graph"
)

// Test graph builders shared across the analytics tests

func addBlock(t *testing.T, s *graph.Store, height int64, txCount int) string {
	t.Helper()
	id := fmt.Sprintf("block_%03d", height)
	require.NoError(t, s.AddNode(id, graph.BlockAttrs{
		Height:    height,
		Timestamp: time.Unix(1700000000+height*20, 0),
		TxCount:   txCount,
	}))
	return id
}

func addTx(t *testing.T, s *graph.Store, id string, height int64) string {
	t.Helper()
	txID := "tx_" + id
	require.NoError(t, s.AddNode(txID, graph.TxAttrs{BlockHeight: height}))
	blockID := fmt.Sprintf("block_%03d", height)
	if s.HasNode(blockID) {
		require.NoError(t, s.AddEdge(blockID, txID, graph.EdgeBlockContainsTx, 0))
	}
	return txID
}

func addAddr(t *testing.T, s *graph.Store, id string, utxos int) string {
	t.Helper()
	addrID := "addr_" + id
	require.NoError(t, s.AddNode(addrID, graph.AddressAttrs{UTxOCount: utxos}))
	return addrID
}

func spend(t *testing.T, s *graph.Store, addr, tx string, amount int64) {
	t.Helper()
	require.NoError(t, s.AddEdge(addr, tx, graph.EdgeAddressInputsTx, amount))
}

func pay(t *testing.T, s *graph.Store, tx, addr string, amount int64) {
	t.Helper()
	require.NoError(t, s.AddEdge(tx, addr, graph.EdgeTxOutputsAddress, amount))
}
