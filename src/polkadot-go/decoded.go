package polkadot

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// maxOpaqueLen bounds the length prefix of an opaque call.
const maxOpaqueLen = 4 << 20

// Variant is a decoded enum value. The registry's own variant decoder only
// returns the inner fields, so the runtime wraps it to keep the name.
type Variant struct {
	Name   string
	Index  uint8
	Named  bool
	Fields registry.DecodedFields
}

// OpaqueCall is the payload of a WrapperKeepOpaque<Call> field, left encoded
// so that an undecodable call does not fail the whole event.
type OpaqueCall []byte

// Call is a decoded runtime call, named "Pallet.call".
type Call struct {
	Name   string
	Fields registry.DecodedFields
}

type variantInfo struct {
	name  string
	named bool
}

type namedVariantDecoder struct {
	inner    *registry.VariantDecoder
	variants map[byte]variantInfo
}

func (d *namedVariantDecoder) Decode(decoder *scale.Decoder) (any, error) {
	index, err := decoder.ReadOneByte()
	if err != nil {
		return nil, fmt.Errorf("variant byte: %w", err)
	}
	info, ok := d.variants[index]
	fieldDecoder, found := d.inner.FieldDecoderMap[index]
	if !ok || !found {
		return nil, fmt.Errorf("unknown variant index %d", index)
	}
	v := Variant{Name: info.name, Index: index, Named: info.named}
	if _, noop := fieldDecoder.(*registry.NoopDecoder); noop {
		return v, nil
	}
	value, err := fieldDecoder.Decode(decoder)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", info.name, err)
	}
	fields, ok := value.(registry.DecodedFields)
	if !ok {
		return nil, fmt.Errorf("variant %s: unexpected %T", info.name, value)
	}
	v.Fields = fields
	return v, nil
}

// variantNamer swaps the registry's variant decoders for ones that report the
// variant name, walking composite and variant fields where the lookup index
// is known.
type variantNamer struct {
	lookup   map[int64]*types.Si1Type
	wrapped  map[*registry.VariantDecoder]*namedVariantDecoder
	visiting map[*registry.CompositeDecoder]bool
}

func newVariantNamer(meta *types.Metadata) *variantNamer {
	return &variantNamer{
		lookup:   meta.AsMetadataV14.EfficientLookup,
		wrapped:  make(map[*registry.VariantDecoder]*namedVariantDecoder),
		visiting: make(map[*registry.CompositeDecoder]bool),
	}
}

func (n *variantNamer) fields(fields []*registry.Field) {
	for _, f := range fields {
		f.FieldDecoder = n.wrap(f.FieldDecoder, f.LookupIndex)
	}
}

func (n *variantNamer) wrap(d registry.FieldDecoder, lookupIndex int64) registry.FieldDecoder {
	switch d := d.(type) {
	case *registry.CompositeDecoder:
		if !n.visiting[d] {
			n.visiting[d] = true
			n.fields(d.Fields)
		}
		return d
	case *registry.VariantDecoder:
		if w, ok := n.wrapped[d]; ok {
			return w
		}
		t, ok := n.lookup[lookupIndex]
		if !ok || !t.Def.IsVariant {
			return d
		}
		w := &namedVariantDecoder{inner: d, variants: make(map[byte]variantInfo)}
		for _, v := range t.Def.Variant.Variants {
			named := len(v.Fields) > 0
			for _, f := range v.Fields {
				named = named && f.HasName
			}
			w.variants[byte(v.Index)] = variantInfo{name: string(v.Name), named: named}
		}
		n.wrapped[d] = w
		for _, inner := range d.FieldDecoderMap {
			n.wrap(inner, -1)
		}
		return w
	}
	return d
}

type opaqueCallDecoder struct{}

func (opaqueCallDecoder) Decode(decoder *scale.Decoder) (any, error) {
	size, err := decoder.DecodeUintCompact()
	if err != nil {
		return nil, fmt.Errorf("opaque call length: %w", err)
	}
	if !size.IsUint64() || size.Uint64() > maxOpaqueLen {
		return nil, fmt.Errorf("opaque call length %s too large", size)
	}
	buf := make([]byte, size.Uint64())
	if err := decoder.Read(buf); err != nil {
		return nil, fmt.Errorf("opaque call: %w", err)
	}
	return OpaqueCall(buf), nil
}

// opaqueCallOverrides decodes every WrapperKeepOpaque type as raw bytes.
func opaqueCallOverrides(meta *types.Metadata) []registry.FieldOverride {
	var out []registry.FieldOverride
	for id, t := range meta.AsMetadataV14.EfficientLookup {
		if len(t.Path) > 0 && t.Path[len(t.Path)-1] == "WrapperKeepOpaque" {
			out = append(out, registry.FieldOverride{FieldLookupIndex: id, FieldDecoder: opaqueCallDecoder{}})
		}
	}
	return out
}

// FieldName strips the type path the registry prefixes to field names, so
// "sp_core.crypto.AccountId32.voter" becomes "voter".
func FieldName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Lookup returns the value of the field called name.
func Lookup(fields registry.DecodedFields, name string) (any, bool) {
	for _, f := range fields {
		if FieldName(f.Name) == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Unwrap descends through single-field composites such as AccountId32 or H256.
func Unwrap(v any) any {
	for {
		fields, ok := v.(registry.DecodedFields)
		if !ok || len(fields) != 1 {
			return v
		}
		v = fields[0].Value
	}
}

// Bytes returns the byte content of a decoded u8 array or sequence.
func Bytes(v any) ([]byte, bool) {
	switch v := Unwrap(v).(type) {
	case OpaqueCall:
		return []byte(v), true
	case []any:
		out := make([]byte, len(v))
		for i, item := range v {
			b, ok := item.(types.U8)
			if !ok {
				return nil, false
			}
			out[i] = byte(b)
		}
		return out, true
	}
	return nil, false
}

// BigInt returns the value of a decoded unsigned integer.
func BigInt(v any) (*big.Int, bool) {
	switch v := Unwrap(v).(type) {
	case types.U8:
		return new(big.Int).SetUint64(uint64(v)), true
	case types.U16:
		return new(big.Int).SetUint64(uint64(v)), true
	case types.U32:
		return new(big.Int).SetUint64(uint64(v)), true
	case types.U64:
		return new(big.Int).SetUint64(uint64(v)), true
	case types.U128:
		if v.Int == nil {
			return nil, false
		}
		return new(big.Int).Set(v.Int), true
	case types.U256:
		if v.Int == nil {
			return nil, false
		}
		return new(big.Int).Set(v.Int), true
	case types.UCompact:
		return new(big.Int).Set((*big.Int)(&v)), true
	}
	return nil, false
}

// Describe renders a decoded value for humans, e.g.
// System.remark { remark: 0x6869 }.
func Describe(v any) string {
	var b strings.Builder
	describe(&b, v)
	return b.String()
}

func describe(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("()")
	case Call:
		b.WriteString(v.Name)
		if len(v.Fields) > 0 {
			b.WriteString(" ")
			describeFields(b, v.Fields, true)
		}
	case Variant:
		b.WriteString(v.Name)
		switch {
		case len(v.Fields) == 0:
		case v.Named:
			b.WriteString(" ")
			describeFields(b, v.Fields, true)
		default:
			describeFields(b, v.Fields, false)
		}
	case registry.DecodedFields:
		switch len(v) {
		case 0:
			b.WriteString("()")
			return
		case 1:
			describe(b, v[0].Value)
			return
		}
		describeFields(b, v, !strings.HasPrefix(FieldName(v[0].Name), "tuple_item_"))
	case OpaqueCall:
		b.WriteString("0x" + hex.EncodeToString(v))
	case []any:
		if raw, ok := Bytes(v); ok && len(v) > 0 {
			b.WriteString("0x" + hex.EncodeToString(raw))
			return
		}
		b.WriteString("[")
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, item)
		}
		b.WriteString("]")
	case string:
		fmt.Fprintf(b, "%q", v)
	default:
		if n, ok := BigInt(v); ok {
			b.WriteString(n.String())
			return
		}
		fmt.Fprintf(b, "%v", v)
	}
}

func describeFields(b *strings.Builder, fields registry.DecodedFields, named bool) {
	if named {
		b.WriteString("{ ")
	} else {
		b.WriteString("(")
	}
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if named {
			b.WriteString(FieldName(f.Name) + ": ")
		}
		describe(b, f.Value)
	}
	if named {
		b.WriteString(" }")
	} else {
		b.WriteString(")")
	}
}

// AsCall reads an outer RuntimeCall variant, Pallet(call { .. }), as a Call.
func AsCall(v Variant) (Call, bool) {
	if len(v.Fields) != 1 {
		return Call{}, false
	}
	inner, ok := v.Fields[0].Value.(Variant)
	if !ok {
		return Call{}, false
	}
	return Call{Name: v.Name + "." + inner.Name, Fields: inner.Fields}, true
}
