package polkadot_test

import (
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
	"github.com/stake-plus/multisig-comms/src/polkadot-go/polkadottest"
)

func runtime(t *testing.T) *polkadot.Runtime {
	t.Helper()
	rt, err := polkadot.NewRuntime(1, polkadottest.Metadata())
	require.NoError(t, err)
	return rt
}

func hash32(b byte) []byte {
	return polkadottest.Account(b)
}

func field(t *testing.T, ev polkadot.EventRecord, name string) any {
	t.Helper()
	v, ok := ev.Field(name)
	require.True(t, ok, "field %s missing from %s.%s", name, ev.Pallet, ev.Name)
	return v
}

func TestNewRuntimeReadsConstants(t *testing.T) {
	rt := runtime(t)
	assert.Equal(t, uint16(polkadottest.SS58Prefix), rt.SS58Prefix)
	assert.True(t, rt.HasPallet("INV4"))
	assert.False(t, rt.HasPallet("Referenda"))
	assert.Contains(t, rt.Events, types.EventID{polkadottest.INV4Idx, polkadottest.MultisigExecuted})
	assert.Contains(t, rt.Calls, types.CallIndex{SectionIndex: polkadottest.INV4Idx, MethodIndex: polkadottest.VoteMultisigIdx})
}

func TestNewRuntimeRejectsOldMetadata(t *testing.T) {
	_, err := polkadot.NewRuntime(1, types.NewMetadataV13())
	assert.Error(t, err)
}

func TestDecodeEvents(t *testing.T) {
	rt := runtime(t)
	weight := big.NewInt(5_000_000)
	raw := polkadottest.Events(
		polkadottest.ExtrinsicSuccess(),
		polkadottest.Started(0, polkadottest.Account(1), polkadottest.Account(2), hash32(0xaa),
			polkadottest.Vote(true, weight), polkadottest.Remark("hi")),
		polkadottest.Added(0, polkadottest.Account(1), polkadottest.Account(3), hash32(0xaa),
			polkadottest.Vote(false, big.NewInt(2_000_000)), weight, big.NewInt(2_000_000), polkadottest.Remark("hi")),
		polkadottest.Executed(0, polkadottest.Account(1), polkadottest.Account(3), hash32(0xaa),
			polkadottest.Remark("hi"), false),
	)

	events, err := rt.DecodeEvents(raw)
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, "System", events[0].Pallet)
	assert.Equal(t, "ExtrinsicSuccess", events[0].Name)
	assert.Equal(t, "ApplyExtrinsic", events[0].Phase)

	started := events[1]
	assert.Equal(t, "INV4", started.Pallet)
	assert.Equal(t, "MultisigVoteStarted", started.Name)
	assert.Equal(t, 1, started.Index)

	core, ok := polkadot.BigInt(field(t, started, "core_id"))
	require.True(t, ok)
	assert.Equal(t, int64(0), core.Int64())

	voter, ok := polkadot.Bytes(field(t, started, "voter"))
	require.True(t, ok)
	assert.Equal(t, polkadottest.Account(2), voter)

	vote, ok := field(t, started, "votes_added").(polkadot.Variant)
	require.True(t, ok)
	assert.Equal(t, "Aye", vote.Name)
	require.Len(t, vote.Fields, 1)
	votes, ok := polkadot.BigInt(vote.Fields[0].Value)
	require.True(t, ok)
	assert.Equal(t, 0, weight.Cmp(votes))

	hash, ok := polkadot.Bytes(field(t, started, "call_hash"))
	require.True(t, ok)
	assert.Equal(t, hash32(0xaa), hash)

	call, ok := field(t, started, "call").(polkadot.OpaqueCall)
	require.True(t, ok)
	assert.Equal(t, polkadottest.Remark("hi"), []byte(call))

	nay, ok := field(t, events[2], "votes_added").(polkadot.Variant)
	require.True(t, ok)
	assert.Equal(t, "Nay", nay.Name)

	tally := field(t, events[2], "current_votes")
	assert.Equal(t, "{ ayes: 5000000, nays: 2000000 }", polkadot.Describe(tally))

	result, ok := field(t, events[3], "result").(polkadot.Variant)
	require.True(t, ok)
	assert.Equal(t, "Err", result.Name)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "BadOrigin", polkadot.Describe(result.Fields[0].Value))
}

func TestDecodeEventsOkResult(t *testing.T) {
	rt := runtime(t)
	events, err := rt.DecodeEvents(polkadottest.Events(
		polkadottest.Executed(0, polkadottest.Account(1), polkadottest.Account(3), hash32(0xaa),
			polkadottest.Remark("hi"), true),
	))
	require.NoError(t, err)
	require.Len(t, events, 1)

	result, ok := field(t, events[0], "result").(polkadot.Variant)
	require.True(t, ok)
	assert.Equal(t, "Ok", result.Name)
}

func TestDecodeEventsKeepsUndecodableCallOpaque(t *testing.T) {
	rt := runtime(t)
	junk := []byte{0xfe, 0x01, 0x02}
	raw := polkadottest.Events(
		polkadottest.Started(7, polkadottest.Account(1), polkadottest.Account(2), hash32(0xbb),
			polkadottest.Vote(true, big.NewInt(1)), junk),
	)

	events, err := rt.DecodeEvents(raw)
	require.NoError(t, err)
	require.Len(t, events, 1)

	call, ok := field(t, events[0], "call").(polkadot.OpaqueCall)
	require.True(t, ok)
	assert.Equal(t, junk, []byte(call))

	_, err = rt.DecodeCall(call)
	assert.Error(t, err)
}

func TestDecodeEventsRejectsTruncatedInput(t *testing.T) {
	rt := runtime(t)
	raw := polkadottest.Events(polkadottest.ExtrinsicSuccess(), polkadottest.ExtrinsicSuccess())

	_, err := rt.DecodeEvents(raw[:len(raw)-3])
	assert.Error(t, err)
}

func TestDecodeEventsUnknownEvent(t *testing.T) {
	rt := runtime(t)
	raw := polkadottest.Events(polkadottest.Record(polkadottest.INV4Idx, 9))

	_, err := rt.DecodeEvents(raw)
	assert.ErrorIs(t, err, parser.ErrEventDecoderNotFound)
}

func TestDecodeEventsEmpty(t *testing.T) {
	rt := runtime(t)
	events, err := rt.DecodeEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEncodeAndDecodeCall(t *testing.T) {
	rt := runtime(t)
	hash := hash32(0xcc)

	encoded, err := rt.EncodeCall("INV4.vote_multisig", types.NewU32(0), types.NewH256(hash), types.NewBool(true))
	require.NoError(t, err)
	assert.Equal(t, byte(polkadottest.INV4Idx), encoded[0])
	assert.Equal(t, byte(polkadottest.VoteMultisigIdx), encoded[1])
	assert.Len(t, encoded, 2+4+32+1)

	decoded, err := rt.DecodeCall(encoded)
	require.NoError(t, err)
	assert.Equal(t, "INV4.vote_multisig", decoded.Name)
	aye, ok := polkadot.Lookup(decoded.Fields, "aye")
	require.True(t, ok)
	assert.Equal(t, true, aye)

	_, err = rt.DecodeCall(append(encoded, 0))
	assert.ErrorContains(t, err, "trailing")

	_, err = rt.EncodeCall("INV4.no_such_call")
	assert.Error(t, err)
	_, err = rt.EncodeCall("Nope.vote_multisig")
	assert.Error(t, err)
	_, err = rt.EncodeCall("vote_multisig")
	assert.Error(t, err)
}

func TestDescribeCall(t *testing.T) {
	rt := runtime(t)
	call, err := rt.DecodeCall(polkadottest.Remark("hi"))
	require.NoError(t, err)
	assert.Equal(t, "System.remark { remark: 0x6869 }", polkadot.Describe(call))
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "voter", polkadot.FieldName("sp_core.crypto.AccountId32.voter"))
	assert.Equal(t, "core_id", polkadot.FieldName("core_id"))
}

func TestMapKeyUsesDeclaredHasher(t *testing.T) {
	rt := runtime(t)
	key, err := rt.MapKey("INV4", "CoreStorage", []byte{1, 0, 0, 0})
	require.NoError(t, err)

	want := polkadot.StorageKeyUint32("INV4", "CoreStorage", 1, polkadot.Blake2_128Concat{})
	assert.Equal(t, want, key)

	_, err = rt.MapKey("System", "Events", nil)
	assert.Error(t, err)
}
