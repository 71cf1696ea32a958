package multisig

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	DefaultPallet = "INV4"

	EventStarted   = "MultisigVoteStarted"
	EventVoteAdded = "MultisigVoteAdded"
	EventExecuted  = "MultisigExecuted"
)

// ErrMalformedEvent marks a lifecycle event whose fields could not be read.
var ErrMalformedEvent = errors.New("malformed multisig event")

// RawEvent is a runtime event with its fields already normalized by the chain adapter.
type RawEvent struct {
	Pallet string
	Name   string
	Fields map[string]any
}

// Filter selects the lifecycle events of one core.
type Filter struct {
	Pallet string
	CoreID uint32
}

// Apply returns nil, nil for events outside the configured pallet, core or lifecycle kinds.
func (f Filter) Apply(ev RawEvent) (Event, error) {
	pallet := f.Pallet
	if pallet == "" {
		pallet = DefaultPallet
	}
	if ev.Pallet != pallet {
		return nil, nil
	}
	switch ev.Name {
	case EventStarted, EventVoteAdded, EventExecuted:
	default:
		return nil, nil
	}

	r := fieldReader{event: ev}
	coreID := r.uint32("core_id")
	if r.err != nil {
		return nil, r.err
	}
	if coreID != f.CoreID {
		return nil, nil
	}

	var out Event
	switch ev.Name {
	case EventStarted:
		out = Started{
			CallHash: r.hash("call_hash"),
			CoreID:   coreID,
			Executor: r.account("executor_account"),
			Proposer: r.account("voter"),
			Vote:     r.vote("votes_added"),
			Call:     r.call("call"),
		}
	case EventVoteAdded:
		tally := r.tally("current_votes")
		out = VoteAdded{
			CallHash: r.hash("call_hash"),
			CoreID:   coreID,
			Executor: r.account("executor_account"),
			Voter:    r.account("voter"),
			Vote:     r.vote("votes_added"),
			Ayes:     tally.Ayes,
			Nays:     tally.Nays,
			Call:     r.call("call"),
		}
	case EventExecuted:
		out = Executed{
			CallHash: r.hash("call_hash"),
			CoreID:   coreID,
			Executor: r.account("executor_account"),
			Voter:    r.account("voter"),
			Call:     r.call("call"),
			Outcome:  r.outcome("result"),
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// fieldReader records the first failure so the caller checks once.
type fieldReader struct {
	event RawEvent
	err   error
}

func (r *fieldReader) get(name string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.event.Fields[name]
	if !ok {
		r.err = fmt.Errorf("%w: %s.%s missing %q", ErrMalformedEvent, r.event.Pallet, r.event.Name, name)
		return nil, false
	}
	return v, true
}

func (r *fieldReader) fail(name string, v any) {
	r.err = fmt.Errorf("%w: %s.%s field %q has type %T", ErrMalformedEvent, r.event.Pallet, r.event.Name, name, v)
}

func (r *fieldReader) uint32(name string) uint32 {
	v, ok := r.get(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case uint32:
		return n
	case uint64:
		if n <= 0xffffffff {
			return uint32(n)
		}
	case int:
		if n >= 0 && n <= 0xffffffff {
			return uint32(n)
		}
	}
	r.fail(name, v)
	return 0
}

func (r *fieldReader) account(name string) string {
	v, ok := r.get(name)
	if !ok {
		return ""
	}
	s, isString := v.(string)
	if !isString || s == "" {
		r.fail(name, v)
		return ""
	}
	return s
}

func (r *fieldReader) hash(name string) CallHash {
	v, ok := r.get(name)
	if !ok {
		return CallHash{}
	}
	switch h := v.(type) {
	case CallHash:
		return h
	case [32]byte:
		return CallHash(h)
	case []byte:
		if len(h) == 32 {
			var out CallHash
			copy(out[:], h)
			return out
		}
	}
	r.fail(name, v)
	return CallHash{}
}

func (r *fieldReader) vote(name string) Vote {
	v, ok := r.get(name)
	if !ok {
		return Vote{}
	}
	vote, isVote := v.(Vote)
	if !isVote || vote.Weight == nil {
		r.fail(name, v)
		return Vote{}
	}
	return vote
}

func (r *fieldReader) tally(name string) Tally {
	v, ok := r.get(name)
	if !ok {
		return Tally{}
	}
	t, isTally := v.(Tally)
	if !isTally {
		r.fail(name, v)
		return Tally{}
	}
	if t.Ayes == nil {
		t.Ayes = new(big.Int)
	}
	if t.Nays == nil {
		t.Nays = new(big.Int)
	}
	return t
}

func (r *fieldReader) call(name string) Call {
	v, ok := r.get(name)
	if !ok {
		return Call{}
	}
	switch c := v.(type) {
	case Call:
		return c
	case []byte:
		return Call{Raw: c}
	}
	r.fail(name, v)
	return Call{}
}

func (r *fieldReader) outcome(name string) Outcome {
	v, ok := r.get(name)
	if !ok {
		return Outcome{}
	}
	o, isOutcome := v.(Outcome)
	if !isOutcome {
		r.fail(name, v)
		return Outcome{}
	}
	return o
}
