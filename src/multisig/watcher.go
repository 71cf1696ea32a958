package multisig

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Block is one finalized block's worth of runtime events, in emission order.
type Block struct {
	Number uint64
	Hash   string
	Events []RawEvent
}

// Source delivers finalized blocks in order starting at from (the current head when
// from is zero). Follow blocks until ctx ends, handle fails, or the subscription drops.
type Source interface {
	Head(ctx context.Context) (uint64, error)
	Follow(ctx context.Context, from uint64, handle func(context.Context, Block) error) error
}

// Sink receives every reconciliation outcome, e.g. a Redis stream.
type Sink interface {
	Publish(ctx context.Context, block uint64, res Result, applyErr error) error
}

// Watcher is the single consumer connecting a Source to the Reconciler.
type Watcher struct {
	Source     Source
	Filter     Filter
	Reconciler *Reconciler
	Cursor     CursorStore
	Sink       Sink
	// MaxBackfill bounds how many blocks behind head a restart may resume.
	// Zero always resumes at head.
	MaxBackfill uint64

	// resume holds the stored position while its block is replayed.
	resume Position
}

// Run follows the chain until ctx is cancelled or the source fails.
func (w *Watcher) Run(ctx context.Context) error {
	start, err := w.startPosition(ctx)
	if err != nil {
		return err
	}
	w.resume = start
	if start.Block > 0 {
		log.Printf("multisig: resuming at %s", start)
	} else {
		log.Printf("multisig: following from current finalized head")
	}
	return w.Source.Follow(ctx, start.Block, w.HandleBlock)
}

// startPosition returns where to resume, or the zero Position to follow from head.
func (w *Watcher) startPosition(ctx context.Context) (Position, error) {
	if w.Cursor == nil || w.MaxBackfill == 0 {
		return Position{}, nil
	}
	pos, ok, err := w.Cursor.Cursor(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("read cursor: %w", err)
	}
	if !ok || pos.Block == 0 {
		return Position{}, nil
	}
	head, err := w.Source.Head(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("read finalized head: %w", err)
	}
	if pos.Block > head {
		return Position{}, nil
	}
	if head-pos.Block > w.MaxBackfill {
		next := Position{Block: head - w.MaxBackfill}
		log.Printf("multisig: cursor %s is %d blocks behind head %d, skipping to %d", pos, head-pos.Block, head, next.Block)
		return next, nil
	}
	return pos, nil
}

// HandleBlock applies every matching event of b. Per-event failures are logged and
// skipped; only a cursor write failure is returned. The cursor moves after each
// applied event, so a restart mid-block does not apply an event twice.
func (w *Watcher) HandleBlock(ctx context.Context, b Block) error {
	skip := 0
	if w.resume.Block != 0 && w.resume.Block == b.Number {
		skip = w.resume.Event
		w.resume = Position{}
		if skip > 0 {
			log.Printf("multisig: block %d: %d events already applied", b.Number, skip)
		}
	}

	for i, raw := range b.Events {
		if i < skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := w.Filter.Apply(raw)
		if err != nil {
			log.Printf("multisig: block %d event %d skipped: %v", b.Number, i, err)
			continue
		}
		if ev == nil {
			continue
		}

		res, err := w.Reconciler.Apply(ctx, ev)
		switch {
		case err != nil:
			log.Printf("multisig: block %d %s %s failed: %v", b.Number, KindOf(ev), ev.Hash(), err)
		case res.Kind == ResultGap:
			log.Printf("multisig: WARNING block %d %s %s: no open call in local state", b.Number, KindOf(ev), ev.Hash())
		default:
			log.Printf("multisig: block %d %s %s -> %s (thread %s)", b.Number, KindOf(ev), ev.Hash(), res.Kind, res.Thread)
		}
		if w.Sink != nil {
			if perr := w.Sink.Publish(ctx, b.Number, res, err); perr != nil && !errors.Is(perr, context.Canceled) {
				log.Printf("multisig: publish result for %s failed: %v", ev.Hash(), perr)
			}
		}
		if err := w.setCursor(ctx, Position{Block: b.Number, Event: i + 1}); err != nil {
			return err
		}
	}

	return w.setCursor(ctx, Position{Block: b.Number + 1})
}

func (w *Watcher) setCursor(ctx context.Context, pos Position) error {
	if w.Cursor == nil {
		return nil
	}
	if err := w.Cursor.SetCursor(ctx, pos); err != nil {
		return fmt.Errorf("store cursor %s: %w", pos, err)
	}
	return nil
}
