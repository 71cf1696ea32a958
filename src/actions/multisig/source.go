package multisig

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stake-plus/multisig-comms/src/multisig"
	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
)

// chainClient is the part of *polkadot.Client the source needs.
type chainClient interface {
	Head(ctx context.Context) (uint64, error)
	Follow(ctx context.Context, from uint64, handle func(context.Context, polkadot.BlockEvents) error) error
}

// chainSource adapts the polkadot client to multisig.Source, turning decoded
// event values into the plain types the filter expects.
type chainSource struct {
	client chainClient
	pallet string
}

var _ multisig.Source = (*chainSource)(nil)

func (s *chainSource) Head(ctx context.Context) (uint64, error) {
	return s.client.Head(ctx)
}

func (s *chainSource) Follow(ctx context.Context, from uint64, handle func(context.Context, multisig.Block) error) error {
	return s.client.Follow(ctx, from, func(ctx context.Context, b polkadot.BlockEvents) error {
		return handle(ctx, s.block(b))
	})
}

func (s *chainSource) block(b polkadot.BlockEvents) multisig.Block {
	out := multisig.Block{Number: b.Number, Hash: b.HashHex()}
	for _, rec := range b.Events {
		raw := multisig.RawEvent{Pallet: rec.Pallet, Name: rec.Name}
		if rec.Pallet == s.pallet {
			raw.Fields = normalizeFields(rec.Fields, b.Runtime)
		}
		out.Events = append(out.Events, raw)
	}
	return out
}

// normalizeFields converts known INV4 event arguments. Anything it does not
// recognise is passed through as decoded so the filter reports it.
func normalizeFields(fields registry.DecodedFields, rt *polkadot.Runtime) map[string]any {
	prefix := polkadot.DefaultSS58Prefix
	if rt != nil {
		prefix = rt.SS58Prefix
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		name := polkadot.FieldName(f.Name)
		v := f.Value
		var norm any
		switch name {
		case "core_id":
			norm = normalizeUint32(v)
		case "executor_account", "voter":
			norm = normalizeAccount(v, prefix)
		case "votes_added":
			norm = normalizeVote(v)
		case "current_votes":
			norm = normalizeTally(v)
		case "call_hash":
			norm = normalizeHash(v)
		case "call":
			norm = normalizeCall(v, rt)
		case "result":
			norm = normalizeOutcome(v)
		}
		if norm == nil {
			norm = v
		}
		out[name] = norm
	}
	return out
}

func normalizeUint32(v any) any {
	n, ok := polkadot.BigInt(v)
	if !ok || !n.IsUint64() || n.Uint64() > 0xffffffff {
		return nil
	}
	return uint32(n.Uint64())
}

func normalizeAccount(v any, prefix uint16) any {
	b, ok := polkadot.Bytes(v)
	if !ok || len(b) != 32 {
		return nil
	}
	return polkadot.EncodeSS58(b, prefix)
}

func normalizeHash(v any) any {
	b, ok := polkadot.Bytes(v)
	if !ok || len(b) != 32 {
		return nil
	}
	var h [32]byte
	copy(h[:], b)
	return h
}

func balance(v any) *big.Int {
	n, ok := polkadot.BigInt(v)
	if !ok {
		return nil
	}
	return n
}

func normalizeVote(v any) any {
	vote, ok := v.(polkadot.Variant)
	if !ok || len(vote.Fields) != 1 {
		return nil
	}
	weight := balance(vote.Fields[0].Value)
	if weight == nil {
		return nil
	}
	switch vote.Name {
	case "Aye":
		return multisig.NewAye(weight)
	case "Nay":
		return multisig.NewNay(weight)
	}
	return nil
}

func normalizeTally(v any) any {
	fields, ok := v.(registry.DecodedFields)
	if !ok {
		return nil
	}
	ayes, okA := polkadot.Lookup(fields, "ayes")
	nays, okN := polkadot.Lookup(fields, "nays")
	if !okA || !okN {
		return nil
	}
	t := multisig.Tally{Ayes: balance(ayes), Nays: balance(nays)}
	if t.Ayes == nil || t.Nays == nil {
		return nil
	}
	return t
}

// normalizeCall keeps the raw bytes of an opaque call and adds a readable
// rendering when the runtime can decode it.
func normalizeCall(v any, rt *polkadot.Runtime) any {
	switch c := v.(type) {
	case polkadot.OpaqueCall:
		call := multisig.Call{Raw: []byte(c)}
		if rt != nil {
			if decoded, err := rt.DecodeCall(c); err == nil {
				call.Decoded = polkadot.Describe(decoded)
			}
		}
		return call
	case polkadot.Variant:
		if decoded, ok := polkadot.AsCall(c); ok {
			return multisig.Call{Decoded: polkadot.Describe(decoded)}
		}
	}
	return nil
}

func normalizeOutcome(v any) any {
	result, ok := v.(polkadot.Variant)
	if !ok {
		return nil
	}
	switch result.Name {
	case "Ok":
		return multisig.Outcome{OK: true}
	case "Err":
		msg := "unknown error"
		if len(result.Fields) == 1 {
			msg = polkadot.Describe(result.Fields[0].Value)
		}
		return multisig.Outcome{Error: msg}
	}
	return nil
}

// voteCallEncoder is satisfied by *polkadot.Runtime.
type voteCallEncoder interface {
	EncodeCall(call string, args ...any) ([]byte, error)
}

// VoteURL builds the polkadot.js extrinsic decoder link pre-filled with an aye
// vote on hash.
func VoteURL(appsURL, rpcURL, pallet string, coreID uint32, rt voteCallEncoder, hash multisig.CallHash) (string, error) {
	call, err := rt.EncodeCall(pallet+".vote_multisig", types.NewU32(coreID), types.NewH256(hash[:]), types.NewBool(true))
	if err != nil {
		return "", fmt.Errorf("encode vote call: %w", err)
	}
	base := strings.TrimRight(appsURL, "/") + "/"
	return fmt.Sprintf("%s?rpc=%s#/extrinsics/decode/0x%s", base, url.QueryEscape(rpcURL), hex.EncodeToString(call)), nil
}
