package network

import (
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"

	"github.com/RiV-chain/asconf/types"
)

func TestCompareRandom(t *testing.T) {
	tests := []struct {
		name  string
		local []byte
		peer  []byte
		want  bool
	}{
		{"equal", []byte{1, 2, 3, 4}, []byte{1, 2, 3, 4}, true},
		{"local larger at last byte", []byte{0, 0, 0, 9}, []byte{0, 0, 0, 1}, true},
		{"peer larger at last byte", []byte{0, 0, 0, 1}, []byte{0, 0, 0, 9}, false},
		{"last byte decides first", []byte{0, 9, 0, 1}, []byte{0, 1, 0, 2}, false},
		{"index zero is ignored", []byte{9, 1, 1, 1}, []byte{1, 1, 1, 1}, true},
		{"index zero is ignored reversed", []byte{1, 1, 1, 1}, []byte{9, 1, 1, 1}, true},
		{"longer peer with non-zero tail", []byte{0, 0, 9}, []byte{0, 0, 1, 0, 5}, false},
		{"longer local with non-zero tail", []byte{0, 0, 1, 0, 5}, []byte{0, 0, 9}, true},
		{"zero tail falls back to common part", []byte{0, 0, 9}, []byte{0, 0, 1, 0, 0}, true},
		{"first tail byte is not examined", []byte{0, 0, 9}, []byte{0, 0, 1, 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareRandom(tt.local, tt.peer))
		})
	}
}

func TestCompareRandomAntisymmetric(t *testing.T) {
	for idx := 0; idx < 1000; idx++ {
		a := make([]byte, 32)
		b := make([]byte, 32)
		_, _ = crand.Read(a)
		_, _ = crand.Read(b)
		b[0] = a[0]
		if string(a[1:]) == string(b[1:]) {
			continue
		}
		require.Equal(t, compareRandom(a, b), !compareRandom(b, a))
	}
}

func TestSharedKeyBothEndpoints(t *testing.T) {
	for _, sizes := range [][2]int{{32, 32}, {16, 32}, {32, 16}} {
		a := make([]byte, sizes[0])
		b := make([]byte, sizes[1])
		_, _ = crand.Read(a)
		_, _ = crand.Read(b)
		keyA := calculateSharedKey(a, b)
		keyB := calculateSharedKey(b, a)
		require.Equal(t, keyA, keyB, "sizes %v", sizes)
		require.Len(t, keyA, len(a)+len(b))
	}
}

func TestSharedKeyOrder(t *testing.T) {
	small := []byte{0, 0, 1}
	large := []byte{0, 0, 2}
	want := append(append([]byte(nil), small...), large...)
	assert.Equal(t, want, calculateSharedKey(large, small))
	assert.Equal(t, want, calculateSharedKey(small, large))
}

func TestNegotiate(t *testing.T) {
	var c crypto
	c.init(&config{keyVector: []byte{0, 0, 2}})
	assert.True(t, c.authEnabled)
	assert.False(t, c.required())
	assert.ErrorIs(t, c.negotiate(nil, nil), types.ErrEmptyKeyVector)

	require.NoError(t, c.negotiate([]byte{0, 0, 1}, []uint8{uint8(wireChunkAsconf), uint8(wireChunkAsconfAck)}))
	assert.True(t, c.required())
	assert.Equal(t, []byte{0, 0, 1, 0, 0, 2}, c.sharedKey)
	assert.True(t, c.typeInChunkList(wireChunkAsconf))
	assert.True(t, c.typeInChunkList(wireChunkAsconfAck))
	assert.False(t, c.typeInChunkList(wireChunkAuth))

	key := c.sharedKey
	assert.ErrorIs(t, c.negotiate([]byte{9, 9, 9}, nil), types.ErrAuthNegotiated)
	assert.Equal(t, key, c.sharedKey)
}

func TestNegotiateWithoutLocalAuth(t *testing.T) {
	var c crypto
	c.init(&config{})
	require.NoError(t, c.negotiate([]byte{1, 2, 3}, nil))
	assert.True(t, c.peerAuthEnabled)
	assert.False(t, c.required())
	assert.Nil(t, c.sharedKey)

	assert.ErrorIs(t, c.negotiate([]byte{9, 9, 9}, []uint8{uint8(wireChunkAsconf)}), types.ErrAuthNegotiated)
	assert.Equal(t, []byte{1, 2, 3}, c.peerKeyVector)
	assert.False(t, c.typeInChunkList(wireChunkAsconf))
}

func TestAuthChunk(t *testing.T) {
	auth := newAuthChunk()
	assert.Equal(t, uint16(0), auth.sharedKeyID)
	assert.Equal(t, hmacSHA1, auth.hmacID)
	assert.True(t, auth.hmacOK)
	assert.Equal(t, make([]byte, sha1DigestSize), auth.hmac)
	assert.Equal(t, (authChunkBaseSize+sha1DigestSize)*8, auth.bitLength())

	bs, err := auth.encode(nil)
	require.NoError(t, err)
	require.Len(t, bs, 28)
	assert.Equal(t, []byte{0x0f, 0, 0, 28, 0, 0, 0, 1}, bs[:8])

	rest := cryptobyte.String(bs)
	var typ wireChunkType
	var flags uint8
	var body cryptobyte.String
	require.True(t, wireChopChunk(&typ, &flags, &body, &rest))
	var decoded authChunk
	require.NoError(t, decoded.decode(body))
	assert.Equal(t, *auth, decoded)
}

func BenchmarkSharedKey(b *testing.B) {
	local := make([]byte, 32)
	peer := make([]byte, 32)
	_, _ = crand.Read(local)
	_, _ = crand.Read(peer)
	for idx := 0; idx < b.N; idx++ {
		_ = calculateSharedKey(local, peer)
	}
}
