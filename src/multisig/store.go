package multisig

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrNotFound           = errors.New("call state not found")
	ErrCorruptState       = errors.New("corrupt call state")
	ErrUnsupportedVersion = errors.New("unsupported call state version")
)

// Store is the durable projection of open calls, keyed by call hash.
type Store interface {
	Get(ctx context.Context, hash CallHash) (CallState, error)
	Put(ctx context.Context, state CallState) error
	Delete(ctx context.Context, hash CallHash) error
	List(ctx context.Context) ([]CallState, error)
}

// Position is where the watcher resumes: Event is the index of the next
// unapplied event of Block. A finished block n is recorded as {n+1, 0}.
type Position struct {
	Block uint64
	Event int
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d", p.Block, p.Event)
}

// CursorStore persists the watcher's position in the finalized chain.
type CursorStore interface {
	Cursor(ctx context.Context) (pos Position, ok bool, err error)
	SetCursor(ctx context.Context, pos Position) error
}

const stateVersion byte = 1

type stateRecord struct {
	CallHash []byte        `cbor:"1,keyasint"`
	Thread   string        `cbor:"2,keyasint"`
	Proposer string        `cbor:"3,keyasint"`
	Voters   []voterRecord `cbor:"4,keyasint"`
}

type voterRecord struct {
	Voter  string `cbor:"1,keyasint"`
	Kind   uint8  `cbor:"2,keyasint"`
	Weight []byte `cbor:"3,keyasint"`
}

var (
	stateEnc cbor.EncMode
	stateDec cbor.DecMode
)

func init() {
	var err error
	stateEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("multisig: cbor encoder: " + err.Error())
	}
	stateDec, err = cbor.DecOptions{MaxArrayElements: 1 << 16}.DecMode()
	if err != nil {
		panic("multisig: cbor decoder: " + err.Error())
	}
}

// EncodeState writes a version byte followed by a deterministic CBOR record.
// Voters are ordered by identity so equal states encode to equal bytes.
func EncodeState(s CallState) ([]byte, error) {
	rec := stateRecord{
		CallHash: s.CallHash[:],
		Thread:   string(s.Thread),
		Proposer: s.Proposer,
		Voters:   make([]voterRecord, 0, len(s.Voters)),
	}
	for _, who := range SortedVoters(s.Voters) {
		v := s.Voters[who]
		rec.Voters = append(rec.Voters, voterRecord{
			Voter:  who,
			Kind:   uint8(v.Kind),
			Weight: weightOf(v).Bytes(),
		})
	}
	body, err := stateEnc.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode call state: %w", err)
	}
	return append([]byte{stateVersion}, body...), nil
}

// DecodeState reverses EncodeState.
func DecodeState(data []byte) (CallState, error) {
	if len(data) == 0 {
		return CallState{}, fmt.Errorf("%w: empty value", ErrCorruptState)
	}
	if data[0] != stateVersion {
		return CallState{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}
	var rec stateRecord
	if err := stateDec.Unmarshal(data[1:], &rec); err != nil {
		return CallState{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if len(rec.CallHash) != len(CallHash{}) {
		return CallState{}, fmt.Errorf("%w: call hash is %d bytes", ErrCorruptState, len(rec.CallHash))
	}
	if rec.Thread == "" {
		return CallState{}, fmt.Errorf("%w: missing thread handle", ErrCorruptState)
	}

	s := CallState{
		Thread:   ThreadHandle(rec.Thread),
		Proposer: rec.Proposer,
		Voters:   make(map[string]Vote, len(rec.Voters)),
	}
	copy(s.CallHash[:], rec.CallHash)
	for _, v := range rec.Voters {
		if v.Kind > uint8(Nay) {
			return CallState{}, fmt.Errorf("%w: vote kind %d", ErrCorruptState, v.Kind)
		}
		s.Voters[v.Voter] = Vote{Kind: VoteKind(v.Kind), Weight: new(big.Int).SetBytes(v.Weight)}
	}
	return s, nil
}

// SortedVoters returns voter identities in ascending order.
func SortedVoters(voters map[string]Vote) []string {
	out := make([]string, 0, len(voters))
	for who := range voters {
		out = append(out, who)
	}
	sort.Strings(out)
	return out
}
