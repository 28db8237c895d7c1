// Package compression stores byte arrays compressed inside a packet. A
// compressed field is an algorithm byte, the i32 uncompressed length and
// the compressed bytes as a length-prefixed byte array.
package compression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/rawbytedev/wirebuf"
)

type Algorithm uint8

const (
	None   Algorithm = 0
	LZ4    Algorithm = 1
	Zstd   Algorithm = 2
	Snappy Algorithm = 3
)

var (
	ErrUnknownAlgorithm = errors.New("compression: unknown algorithm")
	ErrSizeMismatch     = errors.New("compression: decompressed size mismatch")
	ErrTooLarge         = errors.New("compression: declared size above packet limit")
	errIncompressible   = errors.New("compression: data is incompressible")
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Parse resolves a configured algorithm name. The empty name means None.
func Parse(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	case "snappy":
		return Snappy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
	// DecodeAll stops at cap(dst), so a frame can never expand past the
	// declared size.
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecodeAllCapLimit(true))
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses data with a. When the result would not be smaller
// it returns data unchanged with None.
func Compress(data []byte, a Algorithm) ([]byte, Algorithm, error) {
	var (
		out []byte
		err error
	)
	switch a {
	case None:
		return data, None, nil
	case LZ4:
		out, err = compressLZ4(data)
	case Zstd:
		out = zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)))
	case Snappy:
		out = snappy.Encode(nil, data)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, a)
	}
	if errors.Is(err, errIncompressible) || (err == nil && len(out) >= len(data)) {
		return data, None, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, a, nil
}

// Decompress reverses Compress. size is the uncompressed length; no
// algorithm produces more than size bytes.
func Decompress(data []byte, a Algorithm, size int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch a {
	case None:
		out = data
	case LZ4:
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(data, out)
		out = out[:max(n, 0)]
	case Zstd:
		out, err = zstdDecoder.DecodeAll(data, make([]byte, 0, size))
	case Snappy:
		var n int
		if n, err = snappy.DecodedLen(data); err == nil && n != size {
			return nil, fmt.Errorf("%w: header says %d, expected %d", ErrSizeMismatch, n, size)
		}
		if err == nil {
			out, err = snappy.Decode(make([]byte, size), data)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, a)
	}
	if err != nil {
		return nil, fmt.Errorf("compression: %s decompress: %w", a, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrSizeMismatch, len(out), size)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("compression: lz4 compress: %w", err)
	}
	if n == 0 {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

// WriteBytes writes data as a compressed field. It reports the algorithm
// actually used, which is None when compression did not help.
func WriteBytes(b *wirebuf.Buffer, data []byte, a Algorithm) (Algorithm, error) {
	out, used, err := Compress(data, a)
	if err != nil {
		return 0, err
	}
	b.WriteUint8(uint8(used))
	b.WriteInt32(int32(len(data)))
	b.WriteBytes(out)
	return used, b.Err()
}

// ReadBytes reads a field written by WriteBytes. Declared sizes above the
// process-wide packet limit are rejected before decompressing, and the
// output never exceeds the declared size.
func ReadBytes(b *wirebuf.Buffer) ([]byte, error) {
	a := Algorithm(b.ReadUint8())
	size := b.ReadInt32()
	data := b.ReadBytesView()
	if err := b.Err(); err != nil {
		return nil, err
	}
	if size < 0 || int(size) > wirebuf.MaxPacketSize() {
		err := fmt.Errorf("%w: %d", ErrTooLarge, size)
		b.Logger().Warn().Err(err).Stringer("algorithm", a).Msg("compressed field rejected")
		return nil, err
	}
	out, err := Decompress(data, a, int(size))
	if err != nil {
		return nil, err
	}
	if a == None {
		out = append([]byte(nil), out...)
	}
	return out, nil
}
