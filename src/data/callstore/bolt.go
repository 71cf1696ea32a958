package callstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stake-plus/multisig-comms/src/multisig"
	"go.etcd.io/bbolt"
)

const (
	callsBucket = "calls"
	metaBucket  = "meta"
	cursorKey   = "cursor"
)

// Bolt stores call states in a bbolt file. Every Put/Delete is its own
// fsynced transaction, so a returned nil error means the write is on disk.
type Bolt struct {
	db *bbolt.DB
}

var (
	_ multisig.Store       = (*Bolt)(nil)
	_ multisig.CursorStore = (*Bolt)(nil)
)

// OpenBolt opens or creates the store file at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("callstore: path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("callstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{callsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("callstore: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) Get(ctx context.Context, hash multisig.CallHash) (multisig.CallState, error) {
	if err := ctx.Err(); err != nil {
		return multisig.CallState{}, err
	}
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(callsBucket)).Get(hash[:])
		if v == nil {
			return multisig.ErrNotFound
		}
		raw = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return multisig.CallState{}, err
	}
	return decodeRecord(hash, raw)
}

func (s *Bolt) Put(ctx context.Context, state multisig.CallState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := multisig.EncodeState(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(callsBucket)).Put(state.CallHash[:], raw)
	})
}

func (s *Bolt) Delete(ctx context.Context, hash multisig.CallHash) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(callsBucket)).Delete(hash[:])
	})
}

func (s *Bolt) List(ctx context.Context) ([]multisig.CallState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []multisig.CallState
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(callsBucket)).ForEach(func(k, v []byte) error {
			state, err := multisig.DecodeState(v)
			if err != nil {
				return fmt.Errorf("callstore: 0x%x: %w", k, err)
			}
			out = append(out, state)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortStates(out)
	return out, nil
}

// Cursor reads the stored position. An 8-byte value is the older
// last-finished-block format and resumes at the following block.
func (s *Bolt) Cursor(ctx context.Context) (multisig.Position, bool, error) {
	var (
		pos multisig.Position
		ok  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(metaBucket)).Get([]byte(cursorKey))
		switch len(v) {
		case 0:
			return nil
		case 8:
			pos = multisig.Position{Block: binary.BigEndian.Uint64(v) + 1}
		case 12:
			pos = multisig.Position{
				Block: binary.BigEndian.Uint64(v[:8]),
				Event: int(binary.BigEndian.Uint32(v[8:])),
			}
		default:
			return fmt.Errorf("callstore: cursor is %d bytes", len(v))
		}
		ok = true
		return nil
	})
	return pos, ok, err
}

func (s *Bolt) SetCursor(ctx context.Context, pos multisig.Position) error {
	if pos.Event < 0 || pos.Event > math.MaxUint32 {
		return fmt.Errorf("callstore: cursor event %d out of range", pos.Event)
	}
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], pos.Block)
	binary.BigEndian.PutUint32(buf[8:], uint32(pos.Event))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).Put([]byte(cursorKey), buf[:])
	})
}

func sortStates(states []multisig.CallState) {
	sort.Slice(states, func(i, j int) bool {
		return bytes.Compare(states[i].CallHash[:], states[j].CallHash[:]) < 0
	})
}
