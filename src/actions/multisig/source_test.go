package multisig

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/multisig-comms/src/multisig"
	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
	"github.com/stake-plus/multisig-comms/src/polkadot-go/polkadottest"
)

type fakeChain struct {
	head   uint64
	blocks []polkadot.BlockEvents
	from   uint64
}

func (f *fakeChain) Head(ctx context.Context) (uint64, error) { return f.head, nil }

func (f *fakeChain) Follow(ctx context.Context, from uint64, handle func(context.Context, polkadot.BlockEvents) error) error {
	f.from = from
	for _, b := range f.blocks {
		if err := handle(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func testRuntime(t *testing.T) *polkadot.Runtime {
	t.Helper()
	rt, err := polkadot.NewRuntime(1, polkadottest.Metadata())
	require.NoError(t, err)
	return rt
}

func decodedBlock(t *testing.T, rt *polkadot.Runtime, number uint64, records ...[]byte) polkadot.BlockEvents {
	t.Helper()
	events, err := rt.DecodeEvents(polkadottest.Events(records...))
	require.NoError(t, err)
	return polkadot.BlockEvents{Number: number, Runtime: rt, Events: events}
}

func collect(t *testing.T, chain *fakeChain, from uint64) []multisig.Block {
	t.Helper()
	src := &chainSource{client: chain, pallet: "INV4"}
	var got []multisig.Block
	require.NoError(t, src.Follow(context.Background(), from, func(_ context.Context, b multisig.Block) error {
		got = append(got, b)
		return nil
	}))
	return got
}

func TestSourceNormalizesLifecycleEvents(t *testing.T) {
	rt := testRuntime(t)
	hash := polkadottest.Account(0xaa)
	weight := big.NewInt(5_000_000)
	chain := &fakeChain{blocks: []polkadot.BlockEvents{
		decodedBlock(t, rt, 10,
			polkadottest.ExtrinsicSuccess(),
			polkadottest.Started(3, polkadottest.Account(1), polkadottest.Account(2), hash,
				polkadottest.Vote(true, weight), polkadottest.Remark("hi")),
		),
		decodedBlock(t, rt, 11,
			polkadottest.Added(3, polkadottest.Account(1), polkadottest.Account(4), hash,
				polkadottest.Vote(false, big.NewInt(2)), weight, big.NewInt(2), polkadottest.Remark("hi")),
			polkadottest.Executed(3, polkadottest.Account(1), polkadottest.Account(4), hash,
				polkadottest.Remark("hi"), false),
		),
	}}

	blocks := collect(t, chain, 10)
	assert.Equal(t, uint64(10), chain.from)
	require.Len(t, blocks, 2)
	require.Len(t, blocks[0].Events, 2)
	assert.Equal(t, "System", blocks[0].Events[0].Pallet)
	assert.Nil(t, blocks[0].Events[0].Fields)

	filter := multisig.Filter{Pallet: "INV4", CoreID: 3}
	ev, err := filter.Apply(blocks[0].Events[1])
	require.NoError(t, err)
	started, ok := ev.(multisig.Started)
	require.True(t, ok)
	assert.Equal(t, polkadot.EncodeSS58(polkadottest.Account(2), polkadottest.SS58Prefix), started.Proposer)
	assert.Equal(t, hex.EncodeToString(hash), started.CallHash.Hex())
	assert.True(t, started.Vote.Equal(multisig.NewAye(weight)))
	assert.Equal(t, polkadottest.Remark("hi"), started.Call.Raw)
	assert.Equal(t, "System.remark { remark: 0x6869 }", started.Call.Decoded)

	ev, err = filter.Apply(blocks[1].Events[0])
	require.NoError(t, err)
	added := ev.(multisig.VoteAdded)
	assert.True(t, added.Vote.Equal(multisig.NewNay(big.NewInt(2))))
	assert.Equal(t, 0, weight.Cmp(added.Ayes))
	assert.Equal(t, int64(2), added.Nays.Int64())

	ev, err = filter.Apply(blocks[1].Events[1])
	require.NoError(t, err)
	executed := ev.(multisig.Executed)
	assert.False(t, executed.Outcome.OK)
	assert.Equal(t, "BadOrigin", executed.Outcome.Error)
}

func TestSourceKeepsOpaqueCallBytes(t *testing.T) {
	rt := testRuntime(t)
	junk := []byte{0xfe, 0x01}
	chain := &fakeChain{blocks: []polkadot.BlockEvents{
		decodedBlock(t, rt, 5, polkadottest.Started(0, polkadottest.Account(1), polkadottest.Account(2),
			polkadottest.Account(0xbb), polkadottest.Vote(true, big.NewInt(1)), junk)),
	}}

	blocks := collect(t, chain, 0)
	call, ok := blocks[0].Events[0].Fields["call"].(multisig.Call)
	require.True(t, ok)
	assert.Equal(t, junk, call.Raw)
	assert.Empty(t, call.Decoded)
}

func TestSourceDeliversUndecodedBlocks(t *testing.T) {
	chain := &fakeChain{blocks: []polkadot.BlockEvents{{Number: 8}}}
	blocks := collect(t, chain, 0)
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(8), blocks[0].Number)
	assert.Empty(t, blocks[0].Events)
}

func TestNormalizeLeavesUnexpectedShapes(t *testing.T) {
	fields := normalizeFields(registry.DecodedFields{
		{Name: "core_id", Value: "x"},
		{Name: "primitive_types.H256.call_hash", Value: []any{types.U8(1)}},
		{Name: "pallet_inv4.voting.Vote.votes_added", Value: polkadot.Variant{Name: "Abstain"}},
	}, nil)

	assert.Equal(t, "x", fields["core_id"])
	assert.Equal(t, []any{types.U8(1)}, fields["call_hash"])
	assert.IsType(t, polkadot.Variant{}, fields["votes_added"])

	_, err := multisig.Filter{Pallet: "INV4"}.Apply(multisig.RawEvent{Pallet: "INV4", Name: multisig.EventStarted, Fields: fields})
	assert.Error(t, err)
}

func TestNormalizeDecodedRuntimeCall(t *testing.T) {
	remark := polkadot.Variant{Name: "remark", Named: true, Fields: registry.DecodedFields{
		{Name: "remark", Value: []any{types.U8('h'), types.U8('i')}},
	}}
	outer := polkadot.Variant{Name: "System", Fields: registry.DecodedFields{{Name: "lookup_index_15", Value: remark}}}

	fields := normalizeFields(registry.DecodedFields{{Name: "call", Value: outer}}, nil)
	call, ok := fields["call"].(multisig.Call)
	require.True(t, ok)
	assert.Equal(t, "System.remark { remark: 0x6869 }", call.Decoded)
	assert.Empty(t, call.Raw)
}

func TestVoteURL(t *testing.T) {
	rt := testRuntime(t)
	var hash multisig.CallHash
	hash[0] = 0xcc

	u, err := VoteURL("https://polkadot.js.org/apps", "wss://rpc.example/ws", "INV4", 1, rt, hash)
	require.NoError(t, err)

	prefix := "https://polkadot.js.org/apps/?rpc=wss%3A%2F%2Frpc.example%2Fws#/extrinsics/decode/0x"
	require.True(t, strings.HasPrefix(u, prefix), u)

	call, err := hex.DecodeString(strings.TrimPrefix(u, prefix))
	require.NoError(t, err)
	assert.Equal(t, []byte{polkadottest.INV4Idx, polkadottest.VoteMultisigIdx, 1, 0, 0, 0}, call[:6])
	assert.Equal(t, hash[:], call[6:38])
	assert.Equal(t, byte(1), call[38])

	_, err = VoteURL("https://apps", "wss://x", "Missing", 1, rt, hash)
	assert.Error(t, err)
}
