package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	calls    int
	changed  [][]string
	families [][]MetricFamily
}

func (r *recordingListener) GraphChanged(changed []string, families []MetricFamily) {
	r.calls++
	r.changed = append(r.changed, changed)
	r.families = append(r.families, families)
}

func TestAddNodeAndGet(t *testing.T) {
	store := NewStore()

	err := store.AddNode("block_abc", BlockAttrs{Height: 100, Timestamp: time.Unix(1700000000, 0), TxCount: 3})
	require.NoError(t, err)

	node, ok := store.GetNode("block_abc")
	require.True(t, ok)
	assert.Equal(t, NodeBlock, node.Type)
	require.NotNil(t, node.Block)
	assert.Equal(t, int64(100), node.Block.Height)

	height, ok := store.LatestBlockHeight()
	require.True(t, ok)
	assert.Equal(t, int64(100), height)
}

func TestAddNodeUpsertKeepsDerived(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.AddNode("addr_1", AddressAttrs{TxCount: 1}))
	store.MutateDerived([]string{"addr_1"}, func(id string, d *Derived) {
		d.ActivityScore = 75
	})

	require.NoError(t, store.AddNode("addr_1", AddressAttrs{TxCount: 2}))

	node, ok := store.GetNode("addr_1")
	require.True(t, ok)
	assert.Equal(t, 2, node.Address.TxCount)
	assert.Equal(t, float64(75), node.Derived.ActivityScore)
	assert.Equal(t, 1, store.NodeCount())
}

func TestAddNodeTypeMismatch(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.AddNode("x", BlockAttrs{Height: 1}))
	err := store.AddNode("x", TxAttrs{BlockHeight: 1})
	assert.Error(t, err)
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("tx_1", TxAttrs{}))

	err := store.AddEdge("tx_1", "addr_missing", EdgeTxOutputsAddress, 500)
	require.Error(t, err)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "addr_missing", integrity.Missing)
	assert.Equal(t, 0, store.EdgeCount())
}

func TestAddEdgeDuplicateIgnored(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("block_1", BlockAttrs{Height: 1}))
	require.NoError(t, store.AddNode("tx_1", TxAttrs{BlockHeight: 1}))

	require.NoError(t, store.AddEdge("block_1", "tx_1", EdgeBlockContainsTx, 0))
	require.NoError(t, store.AddEdge("block_1", "tx_1", EdgeBlockContainsTx, 0))

	assert.Equal(t, 1, store.EdgeCount())
}

func TestNeighborsDirectionAndType(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("addr_a", AddressAttrs{}))
	require.NoError(t, store.AddNode("addr_b", AddressAttrs{}))
	require.NoError(t, store.AddNode("tx_1", TxAttrs{}))
	require.NoError(t, store.AddEdge("addr_a", "tx_1", EdgeAddressInputsTx, 1000))
	require.NoError(t, store.AddEdge("tx_1", "addr_b", EdgeTxOutputsAddress, 900))

	out := store.Neighbors("tx_1", DirOut)
	require.Len(t, out, 1)
	assert.Equal(t, "addr_b", out[0].ID)

	in := store.Neighbors("tx_1", DirIn)
	require.Len(t, in, 1)
	assert.Equal(t, "addr_a", in[0].ID)

	both := store.Neighbors("tx_1", DirBoth)
	assert.Len(t, both, 2)

	onlyOutputs := store.Neighbors("tx_1", DirBoth, EdgeTxOutputsAddress)
	require.Len(t, onlyOutputs, 1)
	assert.Equal(t, "addr_b", onlyOutputs[0].ID)
}

func TestSubgraphWhere(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("block_1", BlockAttrs{Height: 1}))
	require.NoError(t, store.AddNode("block_2", BlockAttrs{Height: 2}))
	require.NoError(t, store.AddNode("tx_1", TxAttrs{BlockHeight: 1}))
	require.NoError(t, store.AddEdge("block_1", "tx_1", EdgeBlockContainsTx, 0))

	nodes, edges := store.SubgraphWhere(func(n Node) bool {
		return n.Type == NodeBlock
	})
	assert.Len(t, nodes, 2)
	assert.Empty(t, edges, "edges with a non-matching endpoint are dropped")

	nodes, edges = store.SubgraphWhere(func(n Node) bool { return true })
	assert.Len(t, nodes, 3)
	assert.Len(t, edges, 1)
}

func TestListenerNotifiedAfterMutation(t *testing.T) {
	store := NewStore()
	listener := &recordingListener{}
	store.RegisterListener(listener)

	require.NoError(t, store.AddNode("addr_1", AddressAttrs{}))
	require.Equal(t, 1, listener.calls)
	assert.Equal(t, []string{"addr_1"}, listener.changed[0])
	assert.Equal(t, AllFamilies(), listener.families[0])

	require.NoError(t, store.AddNode("tx_1", TxAttrs{}))
	require.NoError(t, store.AddEdge("addr_1", "tx_1", EdgeAddressInputsTx, 1))
	assert.Equal(t, 3, listener.calls)
	assert.Equal(t, []string{"addr_1", "tx_1"}, listener.changed[2])
}

func TestListenerMayReadStore(t *testing.T) {
	store := NewStore()
	var seen int
	store.RegisterListener(listenerFunc(func(changed []string, families []MetricFamily) {
		// must not deadlock
		seen = store.NodeCount()
	}))

	require.NoError(t, store.AddNode("block_1", BlockAttrs{Height: 1}))
	assert.Equal(t, 1, seen)
}

type listenerFunc func(changed []string, families []MetricFamily)

func (f listenerFunc) GraphChanged(changed []string, families []MetricFamily) { f(changed, families) }

func TestGetNodeReturnsCopy(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("block_1", BlockAttrs{Height: 5}))

	node, _ := store.GetNode("block_1")
	node.Block.Height = 999

	again, _ := store.GetNode("block_1")
	assert.Equal(t, int64(5), again.Block.Height)
}

func TestSnapshot(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddNode("block_1", BlockAttrs{Height: 7}))
	require.NoError(t, store.AddNode("tx_1", TxAttrs{BlockHeight: 7}))
	require.NoError(t, store.AddEdge("block_1", "tx_1", EdgeBlockContainsTx, 0))

	meta := store.Snapshot()
	assert.Equal(t, 2, meta.NodeCount)
	assert.Equal(t, 1, meta.EdgeCount)
	assert.Equal(t, int64(7), meta.LatestBlockHeight)
	assert.Equal(t, 1, meta.NodesByType[NodeBlock])
	assert.Equal(t, 1, meta.NodesByType[NodeTransaction])
	assert.False(t, meta.LastUpdate.IsZero())
}
