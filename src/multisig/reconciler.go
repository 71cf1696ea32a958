package multisig

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
)

type ResultKind string

const (
	ResultCreated   ResultKind = "created"
	ResultDuplicate ResultKind = "duplicate"
	ResultUpdated   ResultKind = "updated"
	ResultClosed    ResultKind = "closed"
	// ResultGap means the event referenced a call with no local state.
	ResultGap ResultKind = "gap"
)

// Result describes what one event did to the projection.
type Result struct {
	Kind     ResultKind
	Event    string
	CallHash CallHash
	Thread   ThreadHandle
	// NotifyErr is set when state changed but the chat side could not be updated.
	NotifyErr error
}

type Options struct {
	DisplayScale *big.Int
	VoteURL      func(hash CallHash) string
}

// Reconciler applies lifecycle events to the store and drives the notifier.
// It is not safe for concurrent use; events must be applied in chain order.
type Reconciler struct {
	store    Store
	notifier Notifier
	render   Renderer
}

func NewReconciler(store Store, notifier Notifier, opts Options) *Reconciler {
	return &Reconciler{
		store:    store,
		notifier: notifier,
		render:   Renderer{Scale: opts.DisplayScale, VoteURL: opts.VoteURL},
	}
}

// Apply performs the transition for ev. A returned error means the event was not
// applied; the caller logs it and moves on.
func (r *Reconciler) Apply(ctx context.Context, ev Event) (Result, error) {
	switch e := ev.(type) {
	case Started:
		return r.started(ctx, e)
	case VoteAdded:
		return r.voteAdded(ctx, e)
	case Executed:
		return r.executed(ctx, e)
	default:
		return Result{}, fmt.Errorf("multisig: unsupported event %T", ev)
	}
}

func (r *Reconciler) started(ctx context.Context, e Started) (Result, error) {
	res := Result{Event: EventStarted, CallHash: e.CallHash}

	existing, found, err := r.load(ctx, e.CallHash)
	if err != nil {
		return res, err
	}
	if found {
		res.Kind = ResultDuplicate
		res.Thread = existing.Thread
		return res, nil
	}

	voters := map[string]Vote{e.Proposer: e.Vote}
	card := r.render.OpenCard(e.CoreID, e.Executor, e.Proposer, e.CallHash, e.Call, startTally(e.Vote), voters)
	thread, err := r.notifier.CreateThread(ctx, CreateThread{Topic: e.CallHash.Hex(), Card: card})
	if err != nil {
		return res, fmt.Errorf("create thread for %s: %w", e.CallHash, err)
	}
	if thread == "" {
		return res, fmt.Errorf("create thread for %s: notifier returned empty handle", e.CallHash)
	}

	state := CallState{
		CallHash: e.CallHash,
		Thread:   thread,
		Proposer: e.Proposer,
		Voters:   voters,
	}
	if err := r.store.Put(ctx, state); err != nil {
		// Without a record a replay would open a second thread.
		if derr := r.notifier.DeleteThread(ctx, thread); derr != nil {
			log.Printf("multisig: thread %s for %s left orphaned: %v", thread, e.CallHash, derr)
		}
		return res, fmt.Errorf("persist %s (thread %s): %w", e.CallHash, thread, err)
	}

	res.Kind = ResultCreated
	res.Thread = thread
	return res, nil
}

func (r *Reconciler) voteAdded(ctx context.Context, e VoteAdded) (Result, error) {
	res := Result{Event: EventVoteAdded, CallHash: e.CallHash}

	state, found, err := r.load(ctx, e.CallHash)
	if err != nil {
		return res, err
	}
	if !found {
		log.Printf("multisig: vote by %s on %s has no local state, ignoring", e.Voter, e.CallHash)
		res.Kind = ResultGap
		return res, nil
	}

	state = state.Clone()
	state.Voters[e.Voter] = e.Vote
	if err := r.store.Put(ctx, state); err != nil {
		return res, fmt.Errorf("persist %s: %w", e.CallHash, err)
	}

	res.Kind = ResultUpdated
	res.Thread = state.Thread

	card := r.render.OpenCard(e.CoreID, e.Executor, state.Proposer, e.CallHash, e.Call, Tally{Ayes: e.Ayes, Nays: e.Nays}, state.Voters)
	if err := r.notifier.UpdateThread(ctx, UpdateThread{Thread: state.Thread, Card: card}); err != nil {
		log.Printf("multisig: update thread %s for %s failed: %v", state.Thread, e.CallHash, err)
		res.NotifyErr = err
	}
	return res, nil
}

func (r *Reconciler) executed(ctx context.Context, e Executed) (Result, error) {
	res := Result{Event: EventExecuted, CallHash: e.CallHash}

	state, found, err := r.load(ctx, e.CallHash)
	if err != nil {
		return res, err
	}
	if !found {
		log.Printf("multisig: execution of %s has no local state, ignoring", e.CallHash)
		res.Kind = ResultGap
		return res, nil
	}

	res.Thread = state.Thread
	cmd := CloseThread{Thread: state.Thread, Card: r.render.ClosedCard(e), Outcome: e.Outcome}
	if err := r.notifier.CloseThread(ctx, cmd); err != nil {
		log.Printf("multisig: close thread %s for %s failed: %v", state.Thread, e.CallHash, err)
		res.NotifyErr = err
	}

	if err := r.store.Delete(ctx, e.CallHash); err != nil {
		return res, fmt.Errorf("delete %s: %w", e.CallHash, err)
	}
	res.Kind = ResultClosed
	return res, nil
}

func (r *Reconciler) load(ctx context.Context, hash CallHash) (CallState, bool, error) {
	state, err := r.store.Get(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return CallState{}, false, nil
	}
	if err != nil {
		return CallState{}, false, fmt.Errorf("load %s: %w", hash, err)
	}
	if state.Voters == nil {
		state.Voters = make(map[string]Vote)
	}
	return state, true, nil
}
