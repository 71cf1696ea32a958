// Package polkadottest provides a small synthetic runtime with System and INV4
// pallets, and encoders for the events it declares.
package polkadottest

import (
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

const (
	SS58Prefix = 117
	SystemIdx  = 0
	INV4Idx    = 71
	// VoteMultisigIdx is the call index of INV4.vote_multisig.
	VoteMultisigIdx = 2
)

// Event variant indices of the INV4 pallet.
const (
	MultisigVoteStarted = 0
	MultisigVoteAdded   = 1
	MultisigExecuted    = 2
)

const (
	tU8 = iota
	tU16
	tU32
	tU128
	tBool
	tBytes32
	tAccount
	tH256
	tVote
	tTally
	tUnit
	tDispatchError
	tDispatchResult
	tCompactU32
	tVecU8
	tSystemCall
	tINV4Call
	tRuntimeCall
	tOpaqueCall
	tINV4Event
	tSystemEvent
	tRuntimeEvent
	tPhase
	tTopics
	tEventRecord
	tEvents
	typeCount
)

func id(n int) types.Si1LookupTypeID {
	return types.NewSi1LookupTypeIDFromUInt(uint64(n))
}

func path(parts ...string) types.Si1Path {
	out := make(types.Si1Path, len(parts))
	for i, p := range parts {
		out[i] = types.Text(p)
	}
	return out
}

func named(name string, t int) types.Si1Field {
	return types.Si1Field{HasName: true, Name: types.Text(name), Type: id(t)}
}

func unnamed(t int) types.Si1Field {
	return types.Si1Field{Type: id(t)}
}

func typeNamed(typeName string, t int) types.Si1Field {
	return types.Si1Field{HasTypeName: true, TypeName: types.Text(typeName), Type: id(t)}
}

func primitive(p types.Si0TypeDefPrimitive) types.Si1Type {
	return types.Si1Type{Def: types.Si1TypeDef{
		IsPrimitive: true,
		Primitive:   types.Si1TypeDefPrimitive{Si0TypeDefPrimitive: p},
	}}
}

func composite(p types.Si1Path, fields ...types.Si1Field) types.Si1Type {
	return types.Si1Type{Path: p, Def: types.Si1TypeDef{
		IsComposite: true,
		Composite:   types.Si1TypeDefComposite{Fields: fields},
	}}
}

func variant(name string, index int, fields ...types.Si1Field) types.Si1Variant {
	return types.Si1Variant{Name: types.Text(name), Index: types.U8(index), Fields: fields}
}

func enum(p types.Si1Path, variants ...types.Si1Variant) types.Si1Type {
	return types.Si1Type{Path: p, Def: types.Si1TypeDef{
		IsVariant: true,
		Variant:   types.Si1TypeDefVariant{Variants: variants},
	}}
}

func sequence(elem int) types.Si1Type {
	return types.Si1Type{Def: types.Si1TypeDef{
		IsSequence: true,
		Sequence:   types.Si1TypeDefSequence{Type: id(elem)},
	}}
}

func lookup() map[int]types.Si1Type {
	return map[int]types.Si1Type{
		tU8:      primitive(types.IsU8),
		tU16:     primitive(types.IsU16),
		tU32:     primitive(types.IsU32),
		tU128:    primitive(types.IsU128),
		tBool:    primitive(types.IsBool),
		tBytes32: {Def: types.Si1TypeDef{IsArray: true, Array: types.Si1TypeDefArray{Len: 32, Type: id(tU8)}}},
		tAccount: composite(path("sp_core", "crypto", "AccountId32"), typeNamed("[u8; 32]", tBytes32)),
		tH256:    composite(path("primitive_types", "H256"), typeNamed("[u8; 32]", tBytes32)),
		tVote: enum(path("pallet_inv4", "voting", "Vote"),
			variant("Aye", 0, typeNamed("Balance", tU128)),
			variant("Nay", 1, typeNamed("Balance", tU128)),
		),
		tTally: composite(path("pallet_inv4", "voting", "Tally"), named("ayes", tU128), named("nays", tU128)),
		tUnit:  {Def: types.Si1TypeDef{IsTuple: true}},
		tDispatchError: enum(path("sp_runtime", "DispatchError"),
			variant("Other", 0),
			variant("CannotLookup", 1),
			variant("BadOrigin", 2),
		),
		tDispatchResult: enum(path("Result"),
			variant("Ok", 0, unnamed(tUnit)),
			variant("Err", 1, unnamed(tDispatchError)),
		),
		tCompactU32: {Def: types.Si1TypeDef{IsCompact: true, Compact: types.Si1TypeDefCompact{Type: id(tU32)}}},
		tVecU8:      sequence(tU8),
		tSystemCall: enum(path("frame_system", "pallet", "Call"),
			variant("remark", 0, named("remark", tVecU8)),
		),
		tINV4Call: enum(path("pallet_inv4", "pallet", "Call"),
			variant("vote_multisig", VoteMultisigIdx,
				named("core_id", tU32),
				named("call_hash", tH256),
				named("aye", tBool),
			),
		),
		tRuntimeCall: enum(path("tinkernet_runtime", "RuntimeCall"),
			variant("System", SystemIdx, unnamed(tSystemCall)),
			variant("INV4", INV4Idx, unnamed(tINV4Call)),
		),
		tOpaqueCall: composite(path("frame_support", "traits", "misc", "WrapperKeepOpaque"),
			unnamed(tCompactU32),
			unnamed(tRuntimeCall),
		),
		tINV4Event: enum(path("pallet_inv4", "pallet", "Event"),
			variant("MultisigVoteStarted", MultisigVoteStarted,
				named("core_id", tU32),
				named("executor_account", tAccount),
				named("voter", tAccount),
				named("votes_added", tVote),
				named("call_hash", tH256),
				named("call", tOpaqueCall),
			),
			variant("MultisigVoteAdded", MultisigVoteAdded,
				named("core_id", tU32),
				named("executor_account", tAccount),
				named("voter", tAccount),
				named("votes_added", tVote),
				named("current_votes", tTally),
				named("call_hash", tH256),
				named("call", tOpaqueCall),
			),
			variant("MultisigExecuted", MultisigExecuted,
				named("core_id", tU32),
				named("executor_account", tAccount),
				named("voter", tAccount),
				named("call_hash", tH256),
				named("call", tOpaqueCall),
				named("result", tDispatchResult),
			),
		),
		tSystemEvent: enum(path("frame_system", "pallet", "Event"),
			variant("ExtrinsicSuccess", 0),
		),
		tRuntimeEvent: enum(path("tinkernet_runtime", "RuntimeEvent"),
			variant("System", SystemIdx, unnamed(tSystemEvent)),
			variant("INV4", INV4Idx, unnamed(tINV4Event)),
		),
		tPhase: enum(path("frame_system", "Phase"),
			variant("ApplyExtrinsic", 0, unnamed(tU32)),
			variant("Finalization", 1),
			variant("Initialization", 2),
		),
		tTopics: sequence(tH256),
		tEventRecord: composite(path("frame_system", "EventRecord"),
			named("phase", tPhase),
			named("event", tRuntimeEvent),
			named("topics", tTopics),
		),
		tEvents: sequence(tEventRecord),
	}
}

// Metadata returns V14 metadata for the synthetic runtime.
func Metadata() *types.Metadata {
	types14 := lookup()
	portable := make([]types.PortableTypeV14, 0, typeCount)
	efficient := make(map[int64]*types.Si1Type, typeCount)
	for i := 0; i < typeCount; i++ {
		portable = append(portable, types.PortableTypeV14{ID: id(i), Type: types14[i]})
		efficient[int64(i)] = &portable[i].Type
	}

	meta := types.NewMetadataV14()
	meta.MagicNumber = types.MagicNumber
	meta.AsMetadataV14.Lookup = types.PortableRegistryV14{Types: portable}
	meta.AsMetadataV14.EfficientLookup = efficient
	meta.AsMetadataV14.Pallets = []types.PalletMetadataV14{
		{
			Name:       "System",
			Index:      SystemIdx,
			HasStorage: true,
			Storage: types.StorageMetadataV14{
				Prefix: "System",
				Items: []types.StorageEntryMetadataV14{{
					Name: "Events",
					Type: types.StorageEntryTypeV14{IsPlainType: true, AsPlainType: id(tEvents)},
				}},
			},
			HasCalls:  true,
			Calls:     types.FunctionMetadataV14{Type: id(tSystemCall)},
			HasEvents: true,
			Events:    types.EventMetadataV14{Type: id(tSystemEvent)},
			Constants: []types.ConstantMetadataV14{{
				Name:  "SS58Prefix",
				Type:  id(tU16),
				Value: mustEncode(types.NewU16(SS58Prefix)),
			}},
		},
		{
			Name:       "INV4",
			Index:      INV4Idx,
			HasStorage: true,
			Storage: types.StorageMetadataV14{
				Prefix: "INV4",
				Items: []types.StorageEntryMetadataV14{{
					Name: "CoreStorage",
					Type: types.StorageEntryTypeV14{IsMap: true, AsMap: types.MapTypeV14{
						Hashers: []types.StorageHasherV10{{IsBlake2_128Concat: true}},
						Key:     id(tU32),
						Value:   id(tAccount),
					}},
				}},
			},
			HasCalls:  true,
			Calls:     types.FunctionMetadataV14{Type: id(tINV4Call)},
			HasEvents: true,
			Events:    types.EventMetadataV14{Type: id(tINV4Event)},
		},
	}
	return meta
}

func mustEncode(v any) []byte {
	out, err := codec.Encode(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Account returns a deterministic 32-byte account id filled with b.
func Account(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func u32(v uint32) []byte {
	return mustEncode(types.NewU32(v))
}

// U128 encodes v little-endian in 16 bytes.
func U128(v *big.Int) []byte {
	return mustEncode(types.NewU128(*v))
}

func compact(n int) []byte {
	return mustEncode(types.NewUCompactFromUInt(uint64(n)))
}

// Vote encodes a Vote enum.
func Vote(aye bool, weight *big.Int) []byte {
	idx := byte(0)
	if !aye {
		idx = 1
	}
	return append([]byte{idx}, U128(weight)...)
}

// Remark encodes RuntimeCall::System(remark { remark }).
func Remark(text string) []byte {
	out := []byte{SystemIdx, 0}
	out = append(out, compact(len(text))...)
	return append(out, text...)
}

// Opaque wraps an encoded call in its length prefix.
func Opaque(call []byte) []byte {
	return append(compact(len(call)), call...)
}

// Record encodes an EventRecord in the ApplyExtrinsic(1) phase.
func Record(palletIdx, eventIdx byte, fields ...[]byte) []byte {
	out := []byte{0}
	out = append(out, u32(1)...)
	out = append(out, palletIdx, eventIdx)
	for _, f := range fields {
		out = append(out, f...)
	}
	return append(out, 0) // no topics
}

// Started encodes an INV4.MultisigVoteStarted record.
func Started(core uint32, executor, voter, hash []byte, vote, call []byte) []byte {
	return Record(INV4Idx, MultisigVoteStarted, u32(core), executor, voter, vote, hash, Opaque(call))
}

// Added encodes an INV4.MultisigVoteAdded record.
func Added(core uint32, executor, voter, hash []byte, vote []byte, ayes, nays *big.Int, call []byte) []byte {
	tally := append(U128(ayes), U128(nays)...)
	return Record(INV4Idx, MultisigVoteAdded, u32(core), executor, voter, vote, tally, hash, Opaque(call))
}

// Executed encodes an INV4.MultisigExecuted record; ok false encodes Err(BadOrigin).
func Executed(core uint32, executor, voter, hash []byte, call []byte, ok bool) []byte {
	result := []byte{0}
	if !ok {
		result = []byte{1, 2}
	}
	return Record(INV4Idx, MultisigExecuted, u32(core), executor, voter, hash, Opaque(call), result)
}

// ExtrinsicSuccess encodes a System.ExtrinsicSuccess record.
func ExtrinsicSuccess() []byte {
	return Record(SystemIdx, 0)
}

// Events encodes a Vec<EventRecord>.
func Events(records ...[]byte) []byte {
	out := compact(len(records))
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}
