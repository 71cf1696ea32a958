package callstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stake-plus/multisig-comms/src/multisig"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MultisigCall is one encoded call state row.
type MultisigCall struct {
	CallHash  []byte `gorm:"primaryKey;type:varbinary(32)"`
	State     []byte `gorm:"type:blob;not null"`
	UpdatedAt time.Time
}

// MultisigCursor holds the watcher position. There is a single row; a row
// with no next block is treated as unset.
type MultisigCursor struct {
	ID        uint8 `gorm:"primaryKey;autoIncrement:false"`
	NextBlock uint64
	NextEvent int
	UpdatedAt time.Time
}

const cursorRowID = 1

// SQL stores call states through gorm, normally against the shared MySQL database.
type SQL struct {
	db *gorm.DB
}

var (
	_ multisig.Store       = (*SQL)(nil)
	_ multisig.CursorStore = (*SQL)(nil)
)

// NewSQL migrates the call tables and returns the store.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("callstore: database is required")
	}
	if err := db.AutoMigrate(&MultisigCall{}, &MultisigCursor{}); err != nil {
		return nil, fmt.Errorf("callstore: migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, hash multisig.CallHash) (multisig.CallState, error) {
	var row MultisigCall
	err := s.db.WithContext(ctx).Where("call_hash = ?", hash[:]).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return multisig.CallState{}, multisig.ErrNotFound
	}
	if err != nil {
		return multisig.CallState{}, fmt.Errorf("callstore: get %s: %w", hash, err)
	}
	return decodeRecord(hash, row.State)
}

func (s *SQL) Put(ctx context.Context, state multisig.CallState) error {
	raw, err := multisig.EncodeState(state)
	if err != nil {
		return err
	}
	row := MultisigCall{CallHash: state.CallHash[:], State: raw, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("callstore: put %s: %w", state.CallHash, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, hash multisig.CallHash) error {
	err := s.db.WithContext(ctx).Where("call_hash = ?", hash[:]).Delete(&MultisigCall{}).Error
	if err != nil {
		return fmt.Errorf("callstore: delete %s: %w", hash, err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context) ([]multisig.CallState, error) {
	var rows []MultisigCall
	if err := s.db.WithContext(ctx).Order("call_hash").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("callstore: list: %w", err)
	}
	out := make([]multisig.CallState, 0, len(rows))
	for _, row := range rows {
		state, err := multisig.DecodeState(row.State)
		if err != nil {
			return nil, fmt.Errorf("callstore: 0x%x: %w", row.CallHash, err)
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *SQL) Cursor(ctx context.Context) (multisig.Position, bool, error) {
	var row MultisigCursor
	err := s.db.WithContext(ctx).First(&row, cursorRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return multisig.Position{}, false, nil
	}
	if err != nil {
		return multisig.Position{}, false, fmt.Errorf("callstore: cursor: %w", err)
	}
	if row.NextBlock == 0 {
		return multisig.Position{}, false, nil
	}
	return multisig.Position{Block: row.NextBlock, Event: row.NextEvent}, true, nil
}

func (s *SQL) SetCursor(ctx context.Context, pos multisig.Position) error {
	row := MultisigCursor{ID: cursorRowID, NextBlock: pos.Block, NextEvent: pos.Event, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.AssignmentColumns([]string{"next_block", "next_event", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("callstore: set cursor: %w", err)
	}
	return nil
}

// Close is a no-op; the shared connection is owned by the caller.
func (s *SQL) Close() error { return nil }
