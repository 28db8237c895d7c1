package hash64

import (
	"testing"
	"testing/quick"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXXH64MatchesLibrary(t *testing.T) {
	data := []byte("the quick brown fox")
	require.Equal(t, xxhash.Sum64(data), XXH64(data, 0))
	require.NotEqual(t, XXH64(data, 0), XXH64(data, 1))
}

func TestDeterministic(t *testing.T) {
	for _, f := range []Func{XXH64, Blake3} {
		condition := func(data []byte, seed uint64) bool {
			return f(data, seed) == f(append([]byte(nil), data...), seed)
		}
		require.NoError(t, quick.Check(condition, nil))
	}
}

func TestBlake3Seeded(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	assert.NotEqual(t, Blake3(data, 0), Blake3(data, 7))
	assert.NotEqual(t, Blake3(data, 0), XXH64(data, 0))
}

func TestRange(t *testing.T) {
	data := []byte("0123456789")
	require.Equal(t, XXH64([]byte("345"), 9), Range(XXH64, data, 3, 3, 9))
}

func TestByName(t *testing.T) {
	f, err := ByName("")
	require.NoError(t, err)
	require.Equal(t, XXH64([]byte("x"), 3), f([]byte("x"), 3))

	f, err = ByName(" BLAKE3 ")
	require.NoError(t, err)
	require.Equal(t, Blake3([]byte("x"), 3), f([]byte("x"), 3))

	_, err = ByName("md5")
	require.ErrorIs(t, err, ErrUnknownHash)
}

func BenchmarkXXH64(b *testing.B) {
	data := make([]byte, 4096)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		XXH64(data, uint64(i))
	}
}

func BenchmarkBlake3(b *testing.B) {
	data := make([]byte, 4096)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		Blake3(data, uint64(i))
	}
}
