package polkadot_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
)

const alicePub = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func TestEncodeSS58KnownAddress(t *testing.T) {
	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	assert.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", polkadot.EncodeSS58(pub, 42))
	assert.Equal(t, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5", polkadot.EncodeSS58(pub, 0))
}

func TestSS58RoundTrip(t *testing.T) {
	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	for _, prefix := range []uint16{0, 2, 42, 63, 64, 117, 1284, 16383} {
		addr := polkadot.EncodeSS58(pub, prefix)
		got, gotPrefix, err := polkadot.DecodeSS58(addr)
		require.NoError(t, err, "prefix %d", prefix)
		assert.Equal(t, pub, got)
		assert.Equal(t, prefix, gotPrefix)
	}
}

func TestDecodeSS58Rejects(t *testing.T) {
	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)
	addr := polkadot.EncodeSS58(pub, 42)

	tampered := []byte(addr)
	if tampered[10] == 'a' {
		tampered[10] = 'b'
	} else {
		tampered[10] = 'a'
	}

	for _, in := range []string{"", "not-base58-0OIl", addr[:20], string(tampered), "0x1234"} {
		_, _, err := polkadot.DecodeSS58(in)
		assert.ErrorIs(t, err, polkadot.ErrInvalidAddress, in)
	}

	got, _, err := polkadot.DecodeSS58("0x" + alicePub)
	require.NoError(t, err)
	assert.Equal(t, pub, got)
}

func TestStorageKeys(t *testing.T) {
	assert.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7",
		polkadot.HexEncode(polkadot.StorageKey("System", "Events")),
	)

	key := polkadot.StorageKeyUint32("INV4", "CoreStorage", 5, polkadot.Twox64Concat{})
	assert.Len(t, key, 32+8+4)
	assert.Equal(t, []byte{5, 0, 0, 0}, key[len(key)-4:])

	key = polkadot.StorageKeyUint32("INV4", "CoreStorage", 5, polkadot.Identity{})
	assert.Len(t, key, 32+4)
}
