package callstore

import (
	"fmt"
	"io"
	"strings"

	"github.com/stake-plus/multisig-comms/src/multisig"
	"gorm.io/gorm"
)

// Backend is a call store that also tracks the block cursor.
type Backend interface {
	multisig.Store
	multisig.CursorStore
	io.Closer
}

// Open selects a backend by name: "bolt" (default), "mysql" or "memory".
func Open(kind, path string, db *gorm.DB) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "bolt", "bbolt":
		return OpenBolt(path)
	case "mysql", "sql":
		return NewSQL(db)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("callstore: unknown backend %q", kind)
	}
}

// decodeRecord decodes the state stored under hash. Every backend reads
// through it, so a record that names another call is ErrCorruptState everywhere.
func decodeRecord(hash multisig.CallHash, raw []byte) (multisig.CallState, error) {
	state, err := multisig.DecodeState(raw)
	if err != nil {
		return multisig.CallState{}, fmt.Errorf("callstore: %s: %w", hash, err)
	}
	if state.CallHash != hash {
		return multisig.CallState{}, fmt.Errorf("callstore: %s: %w: record holds %s", hash, multisig.ErrCorruptState, state.CallHash)
	}
	return state, nil
}
