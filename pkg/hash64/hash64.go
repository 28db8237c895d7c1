// Package hash64 provides the seeded 64-bit hash functions used for packet
// checksums and general byte-range hashing.
package hash64

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Func hashes data under seed. Implementations must be deterministic.
type Func func(data []byte, seed uint64) uint64

var ErrUnknownHash = errors.New("hash64: unknown hash")

const (
	NameXXH64  = "xxh64"
	NameBlake3 = "blake3"
)

// XXH64 is the default packet checksum.
func XXH64(data []byte, seed uint64) uint64 {
	if seed == 0 {
		return xxhash.Sum64(data)
	}
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(data)
	return d.Sum64()
}

// Blake3 is keyed BLAKE3 truncated to 64 bits. The seed fills the first
// eight bytes of the 32-byte key.
func Blake3(data []byte, seed uint64) uint64 {
	var key [32]byte
	binary.BigEndian.PutUint64(key[:8], seed)
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// only fails for keys that are not 32 bytes
		panic(err)
	}
	_, _ = h.Write(data)
	var sum [8]byte
	_, _ = h.Digest().Read(sum[:])
	return binary.BigEndian.Uint64(sum[:])
}

// Range hashes data[off:off+n].
func Range(f Func, data []byte, off, n int, seed uint64) uint64 {
	return f(data[off:off+n], seed)
}

// ByName resolves a configured hash name. The empty name selects XXH64.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameXXH64, "xxhash":
		return XXH64, nil
	case NameBlake3:
		return Blake3, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
}
