package polkadot

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// StorageKey creates a storage key for a pallet and item
func StorageKey(pallet, item string) []byte {
	key := make([]byte, 0, 32)
	key = append(key, Twox128([]byte(pallet))...)
	return append(key, Twox128([]byte(item))...)
}

// StorageKeyWithHashedKey creates a storage map key using the Blake2_128Concat hasher
func StorageKeyWithHashedKey(pallet, item string, keyData []byte) []byte {
	key := StorageKey(pallet, item)
	return append(key, Blake2_128Concat{}.Hash(keyData)...)
}

// StorageKeyTwox64 creates a storage map key using the Twox64Concat hasher
func StorageKeyTwox64(pallet, item string, keyData []byte) []byte {
	key := StorageKey(pallet, item)
	return append(key, Twox64Concat{}.Hash(keyData)...)
}

// StorageKeyUint32 creates a storage key for a uint32 parameter
func StorageKeyUint32(pallet, item string, value uint32, hasher Hasher) []byte {
	keyData := make([]byte, 4)
	binary.LittleEndian.PutUint32(keyData, value)
	return append(StorageKey(pallet, item), hasher.Hash(keyData)...)
}

// Twox128 implements the TwoX 128-bit hash
func Twox128(data []byte) []byte {
	hash1 := xxhash.NewS64(0)
	hash1.Write(data)
	hash2 := xxhash.NewS64(1)
	hash2.Write(data)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:], hash1.Sum64())
	binary.LittleEndian.PutUint64(out[8:], hash2.Sum64())
	return out
}

// Twox64 implements the TwoX 64-bit hash
func Twox64(data []byte) []byte {
	hash := xxhash.NewS64(0)
	hash.Write(data)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, hash.Sum64())
	return out
}

// Blake2_128 implements Blake2b 128-bit hash
func Blake2_128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// only reachable with an invalid size
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// Blake2_256 implements Blake2b 256-bit hash
func Blake2_256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// HexEncode encodes bytes to a 0x-prefixed hex string
func HexEncode(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// Hasher is a storage map key hasher.
type Hasher interface {
	Hash(data []byte) []byte
}

// Blake2_128Concat hasher
type Blake2_128Concat struct{}

func (h Blake2_128Concat) Hash(data []byte) []byte {
	return append(Blake2_128(data), data...)
}

// Twox64Concat hasher
type Twox64Concat struct{}

func (h Twox64Concat) Hash(data []byte) []byte {
	return append(Twox64(data), data...)
}

// Identity hasher (no hashing)
type Identity struct{}

func (h Identity) Hash(data []byte) []byte {
	return data
}
