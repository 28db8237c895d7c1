package wirebuf

import (
	"encoding/binary"

	"github.com/rawbytedev/wirebuf/pkg/hash64"
)

// SignatureSize is the length of a Signer signature.
const SignatureSize = 8

// Signer produces keyed 64-bit signatures by hashing k0, the
// length-prefixed payload and k1 in wire encoding. It detects tampering by
// parties that do not know the keys; it is not a cryptographic MAC.
type Signer struct {
	K0, K1 uint64
	// Hash defaults to hash64.XXH64.
	Hash hash64.Func

	scratch *Buffer
}

func NewSigner(k0, k1 uint64) *Signer {
	return &Signer{K0: k0, K1: k1}
}

// Sign returns the big-endian signature of payload. A Signer reuses its
// scratch buffer and must not be shared between goroutines.
func (s *Signer) Sign(payload []byte) [SignatureSize]byte {
	need := len(payload) + 2*8 + LengthSize
	if s.scratch == nil || s.scratch.Cap() <= need {
		s.scratch = NewBufferSize(need + 1)
	}
	bb := s.scratch
	bb.Reset()
	bb.WriteUint64(s.K0)
	bb.WriteBytes(payload)
	bb.WriteUint64(s.K1)
	bb.Commit()

	f := s.Hash
	if f == nil {
		f = hash64.XXH64
	}
	var sig [SignatureSize]byte
	binary.BigEndian.PutUint64(sig[:], f(bb.Unread(), 0))
	return sig
}

// Verify reports whether sig matches payload.
func (s *Signer) Verify(payload []byte, sig []byte) bool {
	want := s.Sign(payload)
	return len(sig) == SignatureSize && string(sig) == string(want[:])
}
