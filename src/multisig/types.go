package multisig

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// CallHash identifies a pending multisig call.
type CallHash [32]byte

// Hex returns the hash as lowercase hex without prefix.
func (h CallHash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h CallHash) String() string {
	return "0x" + h.Hex()
}

// ParseCallHash accepts a 0x-prefixed or bare hex string.
func ParseCallHash(s string) (CallHash, error) {
	var h CallHash
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return h, fmt.Errorf("decode call hash: %w", err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("call hash must be %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// ThreadHandle is the chat-side id of the thread representing a call.
type ThreadHandle string

type VoteKind uint8

const (
	Aye VoteKind = iota
	Nay
)

func (k VoteKind) String() string {
	if k == Nay {
		return "Nay"
	}
	return "Aye"
}

// Vote is a single voter's choice and raw token weight.
type Vote struct {
	Kind   VoteKind
	Weight *big.Int
}

func NewAye(weight *big.Int) Vote { return Vote{Kind: Aye, Weight: weight} }
func NewNay(weight *big.Int) Vote { return Vote{Kind: Nay, Weight: weight} }

// Equal compares kind and weight; a nil weight equals zero.
func (v Vote) Equal(o Vote) bool {
	return v.Kind == o.Kind && weightOf(v).Cmp(weightOf(o)) == 0
}

func weightOf(v Vote) *big.Int {
	if v.Weight == nil {
		return new(big.Int)
	}
	return v.Weight
}

// Tally is the on-chain aggregate for a call.
type Tally struct {
	Ayes *big.Int
	Nays *big.Int
}

// Call is the proposed runtime call as carried by the event.
type Call struct {
	Raw     []byte
	Decoded string
}

// Outcome is the dispatch result of an executed call.
type Outcome struct {
	OK    bool
	Error string
}

// CallState is the local projection of one open call.
type CallState struct {
	CallHash CallHash
	Thread   ThreadHandle
	Proposer string
	Voters   map[string]Vote
}

// Clone returns a deep copy so callers can mutate voters freely.
func (s CallState) Clone() CallState {
	out := s
	out.Voters = make(map[string]Vote, len(s.Voters))
	for who, v := range s.Voters {
		if v.Weight != nil {
			v.Weight = new(big.Int).Set(v.Weight)
		}
		out.Voters[who] = v
	}
	return out
}

// Event is one of Started, VoteAdded or Executed.
type Event interface {
	Hash() CallHash
	kind() string
}

// Started is emitted when a call is first proposed.
type Started struct {
	CallHash CallHash
	CoreID   uint32
	Executor string
	Proposer string
	Vote     Vote
	Call     Call
}

// VoteAdded is emitted for each additional vote on an open call.
type VoteAdded struct {
	CallHash CallHash
	CoreID   uint32
	Executor string
	Voter    string
	Vote     Vote
	Ayes     *big.Int
	Nays     *big.Int
	Call     Call
}

// Executed is emitted once the call has been dispatched.
type Executed struct {
	CallHash CallHash
	CoreID   uint32
	Executor string
	Voter    string
	Call     Call
	Outcome  Outcome
}

func (e Started) Hash() CallHash   { return e.CallHash }
func (e VoteAdded) Hash() CallHash { return e.CallHash }
func (e Executed) Hash() CallHash  { return e.CallHash }

func (Started) kind() string   { return EventStarted }
func (VoteAdded) kind() string { return EventVoteAdded }
func (Executed) kind() string  { return EventExecuted }

// KindOf returns the on-chain event name for ev.
func KindOf(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.kind()
}
