package multisig_test

import (
	"math/big"
	"testing"

	"github.com/stake-plus/multisig-comms/src/multisig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawStarted(coreID uint32) multisig.RawEvent {
	return multisig.RawEvent{
		Pallet: "INV4",
		Name:   multisig.EventStarted,
		Fields: map[string]any{
			"core_id":          coreID,
			"executor_account": "core-account",
			"voter":            "Alice",
			"votes_added":      multisig.NewAye(units(5)),
			"call_hash":        [32]byte(hashOf(0xaa)),
			"call":             multisig.Call{Raw: []byte{1, 2}},
		},
	}
}

func TestFilter_Started(t *testing.T) {
	ev, err := multisig.Filter{CoreID: 0}.Apply(rawStarted(0))
	require.NoError(t, err)
	s, ok := ev.(multisig.Started)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, hashOf(0xaa), s.CallHash)
	assert.Equal(t, "Alice", s.Proposer)
	assert.Equal(t, "core-account", s.Executor)
	assert.True(t, s.Vote.Equal(multisig.NewAye(units(5))))
	assert.Equal(t, []byte{1, 2}, s.Call.Raw)
}

func TestFilter_Discards(t *testing.T) {
	otherPallet := rawStarted(0)
	otherPallet.Pallet = "Balances"

	otherEvent := rawStarted(0)
	otherEvent.Name = "CoreCreated"

	tests := []struct {
		name   string
		filter multisig.Filter
		event  multisig.RawEvent
	}{
		{"other core", multisig.Filter{CoreID: 1}, rawStarted(0)},
		{"other pallet", multisig.Filter{}, otherPallet},
		{"other event", multisig.Filter{}, otherEvent},
		{"custom pallet name", multisig.Filter{Pallet: "INV4Legacy"}, rawStarted(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.filter.Apply(tt.event)
			require.NoError(t, err)
			assert.Nil(t, ev)
		})
	}
}

func TestFilter_VoteAdded(t *testing.T) {
	raw := multisig.RawEvent{
		Pallet: "INV4",
		Name:   multisig.EventVoteAdded,
		Fields: map[string]any{
			"core_id":          uint32(3),
			"executor_account": "core-account",
			"voter":            "Bob",
			"votes_added":      multisig.NewNay(units(2)),
			"current_votes":    multisig.Tally{Ayes: units(5), Nays: units(2)},
			"call_hash":        hashOf(0xbb),
			"call":             []byte{9},
		},
	}
	ev, err := multisig.Filter{CoreID: 3}.Apply(raw)
	require.NoError(t, err)
	v, ok := ev.(multisig.VoteAdded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "Bob", v.Voter)
	assert.Equal(t, 0, v.Ayes.Cmp(units(5)))
	assert.Equal(t, 0, v.Nays.Cmp(units(2)))
	assert.Equal(t, []byte{9}, v.Call.Raw)
}

func TestFilter_Executed(t *testing.T) {
	raw := multisig.RawEvent{
		Pallet: "INV4",
		Name:   multisig.EventExecuted,
		Fields: map[string]any{
			"core_id":          uint32(0),
			"executor_account": "core-account",
			"voter":            "Bob",
			"call_hash":        hashOf(0xcc),
			"call":             multisig.Call{Decoded: "System.remark"},
			"result":           multisig.Outcome{OK: false, Error: "BadOrigin"},
		},
	}
	ev, err := multisig.Filter{}.Apply(raw)
	require.NoError(t, err)
	e, ok := ev.(multisig.Executed)
	require.True(t, ok, "got %T", ev)
	assert.False(t, e.Outcome.OK)
	assert.Equal(t, "BadOrigin", e.Outcome.Error)
}

func TestFilter_Malformed(t *testing.T) {
	missing := rawStarted(0)
	delete(missing.Fields, "voter")

	wrongType := rawStarted(0)
	wrongType.Fields["votes_added"] = big.NewInt(5)

	badCore := rawStarted(0)
	badCore.Fields["core_id"] = "zero"

	for name, raw := range map[string]multisig.RawEvent{"missing": missing, "wrong type": wrongType, "bad core": badCore} {
		t.Run(name, func(t *testing.T) {
			_, err := multisig.Filter{}.Apply(raw)
			assert.ErrorIs(t, err, multisig.ErrMalformedEvent)
		})
	}
}
