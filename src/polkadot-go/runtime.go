package polkadot

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// Runtime holds the metadata of one runtime spec version and the gsrpc
// registries built from it.
type Runtime struct {
	SpecVersion uint32
	Meta        *types.Metadata
	SS58Prefix  uint16

	Events registry.EventRegistry
	Calls  registry.CallRegistry
}

// NewRuntime builds the event and call registries for meta.
func NewRuntime(specVersion uint32, meta *types.Metadata) (*Runtime, error) {
	if meta.Version < 14 {
		return nil, fmt.Errorf("metadata v%d not supported", meta.Version)
	}
	if !meta.AsMetadataV14.ExistsModuleMetadata("System") {
		return nil, fmt.Errorf("metadata has no System pallet")
	}

	factory := registry.NewFactory(opaqueCallOverrides(meta)...)
	events, err := factory.CreateEventRegistry(meta)
	if err != nil {
		return nil, fmt.Errorf("event registry: %w", err)
	}
	calls, err := factory.CreateCallRegistry(meta)
	if err != nil {
		return nil, fmt.Errorf("call registry: %w", err)
	}

	names := newVariantNamer(meta)
	for _, td := range events {
		names.fields(td.Fields)
	}
	for _, td := range calls {
		names.fields(td.Fields)
	}

	rt := &Runtime{
		SpecVersion: specVersion,
		Meta:        meta,
		SS58Prefix:  DefaultSS58Prefix,
		Events:      events,
		Calls:       calls,
	}
	if raw, err := meta.AsMetadataV14.FindConstantValue("System", "SS58Prefix"); err == nil {
		var prefix types.U16
		if err := codec.Decode(raw, &prefix); err == nil {
			rt.SS58Prefix = uint16(prefix)
		}
	}
	return rt, nil
}

func (rt *Runtime) pallet(name string) (types.PalletMetadataV14, bool) {
	for _, p := range rt.Meta.AsMetadataV14.Pallets {
		if string(p.Name) == name {
			return p, true
		}
	}
	return types.PalletMetadataV14{}, false
}

// HasPallet reports whether the runtime includes the named pallet.
func (rt *Runtime) HasPallet(name string) bool {
	return rt.Meta.AsMetadataV14.ExistsModuleMetadata(name)
}

// MapKey builds the storage key of a single-key map entry using the hasher the
// runtime declares for it.
func (rt *Runtime) MapKey(pallet, item string, keyData []byte) ([]byte, error) {
	p, ok := rt.pallet(pallet)
	if !ok || !p.HasStorage {
		return nil, fmt.Errorf("pallet %s has no storage", pallet)
	}
	for _, entry := range p.Storage.Items {
		if string(entry.Name) != item {
			continue
		}
		if !entry.Type.IsMap || len(entry.Type.AsMap.Hashers) != 1 {
			return nil, fmt.Errorf("%s.%s is not a single-key map", pallet, item)
		}
		hasher, err := hasherFor(entry.Type.AsMap.Hashers[0])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", pallet, item, err)
		}
		key := StorageKey(string(p.Storage.Prefix), item)
		return append(key, hasher.Hash(keyData)...), nil
	}
	return nil, fmt.Errorf("%s.%s not in metadata", pallet, item)
}

func hasherFor(h types.StorageHasherV10) (Hasher, error) {
	switch {
	case h.IsBlake2_128Concat:
		return Blake2_128Concat{}, nil
	case h.IsTwox64Concat:
		return Twox64Concat{}, nil
	case h.IsIdentity:
		return Identity{}, nil
	}
	return nil, fmt.Errorf("non-concat hasher not supported")
}

// EncodeCall SCALE-encodes the call named "Pallet.call" with args, e.g.
// EncodeCall("INV4.vote_multisig", types.NewU32(0), types.NewH256(hash), types.NewBool(true)).
func (rt *Runtime) EncodeCall(call string, args ...any) ([]byte, error) {
	if !validCallName(call) {
		return nil, fmt.Errorf("call name %q is not Pallet.call", call)
	}
	c, err := types.NewCall(rt.Meta, call, args...)
	if err != nil {
		return nil, err
	}
	return codec.Encode(c)
}

func validCallName(call string) bool {
	dot := strings.IndexByte(call, '.')
	return dot > 0 && dot < len(call)-1
}

// DecodeCall decodes an encoded RuntimeCall with the call registry. The
// whole input must be consumed.
func (rt *Runtime) DecodeCall(raw []byte) (Call, error) {
	r := bytes.NewReader(raw)
	decoder := scale.NewDecoder(r)

	var index types.CallIndex
	if err := decoder.Decode(&index); err != nil {
		return Call{}, fmt.Errorf("decode call index: %w", err)
	}
	td, ok := rt.Calls[index]
	if !ok {
		return Call{}, fmt.Errorf("unknown call index %d.%d", index.SectionIndex, index.MethodIndex)
	}
	fields, err := td.Decode(decoder)
	if err != nil {
		return Call{}, fmt.Errorf("decode %s: %w", td.Name, err)
	}
	if r.Len() != 0 {
		return Call{}, fmt.Errorf("decode %s: %d trailing bytes", td.Name, r.Len())
	}
	return Call{Name: td.Name, Fields: fields}, nil
}
