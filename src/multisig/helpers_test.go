package multisig_test

import (
	"context"
	"math/big"

	"github.com/stake-plus/multisig-comms/src/multisig"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) CreateThread(ctx context.Context, cmd multisig.CreateThread) (multisig.ThreadHandle, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(multisig.ThreadHandle), args.Error(1)
}

func (m *mockNotifier) UpdateThread(ctx context.Context, cmd multisig.UpdateThread) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *mockNotifier) CloseThread(ctx context.Context, cmd multisig.CloseThread) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *mockNotifier) DeleteThread(ctx context.Context, thread multisig.ThreadHandle) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func hashOf(b byte) multisig.CallHash {
	var h multisig.CallHash
	for i := range h {
		h[i] = b
	}
	return h
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func started(h multisig.CallHash, proposer string, vote multisig.Vote) multisig.Started {
	return multisig.Started{
		CallHash: h,
		Executor: "core-account",
		Proposer: proposer,
		Vote:     vote,
		Call:     multisig.Call{Raw: []byte{0x47, 0x01}, Decoded: "System.remark { remark: 0x01 }"},
	}
}

func voteAdded(h multisig.CallHash, voter string, vote multisig.Vote, ayes, nays *big.Int) multisig.VoteAdded {
	return multisig.VoteAdded{
		CallHash: h,
		Executor: "core-account",
		Voter:    voter,
		Vote:     vote,
		Ayes:     ayes,
		Nays:     nays,
		Call:     multisig.Call{Raw: []byte{0x47, 0x01}},
	}
}

func executed(h multisig.CallHash, voter string, ok bool) multisig.Executed {
	out := multisig.Outcome{OK: ok}
	if !ok {
		out.Error = "Module(BadOrigin)"
	}
	return multisig.Executed{CallHash: h, Executor: "core-account", Voter: voter, Outcome: out}
}
