package polkadot

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DefaultSS58Prefix is the generic substrate prefix.
const DefaultSS58Prefix uint16 = 42

var ErrInvalidAddress = errors.New("invalid ss58 address")

func ss58PrefixBytes(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	return []byte{
		0x40 | byte(prefix>>2)&0x3f,
		byte(prefix>>8) | byte(prefix&0x03)<<6,
	}
}

func ss58Checksum(prefixed []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write([]byte("SS58PRE"))
	h.Write(prefixed)
	return h.Sum(nil)[:2]
}

// EncodeSS58 encodes a 32-byte public key as an SS58 address.
func EncodeSS58(pubKey []byte, prefix uint16) string {
	payload := append(ss58PrefixBytes(prefix), pubKey...)
	payload = append(payload, ss58Checksum(payload)...)
	return base58.Encode(payload)
}

// DecodeSS58 converts an SS58 (or 0x hex) address to the raw 32-byte public key
// and the network prefix it was encoded with.
func DecodeSS58(addr string) ([]byte, uint16, error) {
	if strings.HasPrefix(addr, "0x") {
		raw, err := hex.DecodeString(addr[2:])
		if err != nil || len(raw) != 32 {
			return nil, 0, ErrInvalidAddress
		}
		return raw, 0, nil
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) < 35 {
		return nil, 0, ErrInvalidAddress
	}

	var prefix uint16
	var prefixLen int
	if raw[0] < 64 {
		prefix, prefixLen = uint16(raw[0]), 1
	} else {
		if len(raw) != 36 {
			return nil, 0, ErrInvalidAddress
		}
		lower := uint16(raw[0]&0x3f)<<2 | uint16(raw[1]>>6)
		upper := uint16(raw[1] & 0x3f)
		prefix, prefixLen = lower|upper<<8, 2
	}
	if len(raw) != prefixLen+34 {
		return nil, 0, ErrInvalidAddress
	}

	body := raw[:prefixLen+32]
	if !bytes.Equal(ss58Checksum(body), raw[prefixLen+32:]) {
		return nil, 0, fmt.Errorf("%w: bad checksum", ErrInvalidAddress)
	}
	return bytes.Clone(raw[prefixLen : prefixLen+32]), prefix, nil
}
