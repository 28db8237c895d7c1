package compression

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/wirebuf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var text = bytes.Repeat([]byte("the same log line over and over\n"), 200)

func TestRoundTrip(t *testing.T) {
	for _, a := range []Algorithm{None, LZ4, Zstd, Snappy} {
		t.Run(a.String(), func(t *testing.T) {
			out, used, err := Compress(text, a)
			require.NoError(t, err)
			require.Equal(t, a, used)
			if a != None {
				require.Less(t, len(out), len(text))
			}
			back, err := Decompress(out, used, len(text))
			require.NoError(t, err)
			require.Equal(t, text, back)
		})
	}
}

func TestIncompressibleFallsBack(t *testing.T) {
	for _, a := range []Algorithm{LZ4, Zstd, Snappy} {
		out, used, err := Compress([]byte{1, 2, 3}, a)
		require.NoError(t, err)
		require.Equal(t, None, used, a.String())
		require.Equal(t, []byte{1, 2, 3}, out)
	}
}

func TestParse(t *testing.T) {
	for _, a := range []Algorithm{None, LZ4, Zstd, Snappy} {
		got, err := Parse(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	got, err := Parse("")
	require.NoError(t, err)
	require.Equal(t, None, got)
	_, err = Parse("brotli")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	require.Equal(t, "unknown(9)", Algorithm(9).String())
}

func TestField(t *testing.T) {
	b := wirebuf.NewBufferSize(64)
	start := b.StartWritePacket()
	used, err := WriteBytes(b, text, Zstd)
	require.NoError(t, err)
	require.Equal(t, Zstd, used)
	used, err = WriteBytes(b, []byte("tiny"), LZ4)
	require.NoError(t, err)
	require.Equal(t, None, used)
	require.NoError(t, b.EndWritePacket(start))
	b.Commit()
	require.Less(t, b.Count(), len(text))

	ok, err := b.TryReadPacket(func(r *wirebuf.Buffer) error {
		got, err := ReadBytes(r)
		require.NoError(t, err)
		require.Equal(t, text, got)
		got, err = ReadBytes(r)
		require.NoError(t, err)
		require.Equal(t, []byte("tiny"), got)
		return nil
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFieldErrors(t *testing.T) {
	b := wirebuf.NewBufferSize(64)
	b.WriteUint8(uint8(Zstd))
	b.WriteInt32(int32(wirebuf.MaxPacketSize() + 1))
	b.WriteBytes([]byte{1})
	b.WriteUint8(7)
	b.WriteInt32(1)
	b.WriteBytes([]byte{1})
	b.WriteUint8(uint8(Snappy))
	b.WriteInt32(3)
	b.WriteBytes([]byte{0xff, 0xff, 0xff})
	b.Commit()

	_, err := ReadBytes(b)
	require.ErrorIs(t, err, ErrTooLarge)
	_, err = ReadBytes(b)
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	_, err = ReadBytes(b)
	require.Error(t, err)

	_, _, err = Compress(nil, Algorithm(9))
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestOversizeFieldIsLogged(t *testing.T) {
	var out bytes.Buffer
	log := zerolog.New(&out)
	b := wirebuf.NewBuffer(wirebuf.Options{InitialSize: 16, Logger: &log})
	b.WriteUint8(uint8(LZ4))
	b.WriteInt32(-5)
	b.WriteBytes(nil)
	b.Commit()
	_, err := ReadBytes(b)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Contains(t, out.String(), "compressed field rejected")
	require.Contains(t, out.String(), `"algorithm":"lz4"`)
}

func TestSizeMismatch(t *testing.T) {
	out, used, err := Compress(text, LZ4)
	require.NoError(t, err)
	_, err = Decompress(out, used, len(text)+10)
	require.Error(t, err)
	_, err = Decompress([]byte{1, 2}, None, 3)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

// zstdBomb streams n zero bytes into a single small frame without holding
// them in memory.
func zstdBomb(t *testing.T, n int) []byte {
	t.Helper()
	var out bytes.Buffer
	w, err := zstd.NewWriter(&out)
	require.NoError(t, err)
	chunk := make([]byte, 1<<20)
	for written := 0; written < n; written += len(chunk) {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return out.Bytes()
}

func TestZstdExpansionBoundedByDeclaredSize(t *testing.T) {
	frame := zstdBomb(t, 128<<20)
	require.Less(t, len(frame), 1<<20)

	b := wirebuf.NewBufferSize(len(frame) + 16)
	b.WriteUint8(uint8(Zstd))
	b.WriteInt32(16)
	b.WriteBytes(frame)
	b.Commit()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := ReadBytes(b)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, zstd.ErrDecoderSizeExceeded)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))

	_, err = Decompress(frame, Zstd, 16)
	require.ErrorIs(t, err, zstd.ErrDecoderSizeExceeded)
}

func BenchmarkCompress(b *testing.B) {
	for _, a := range []Algorithm{LZ4, Zstd, Snappy} {
		b.Run(a.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				if _, _, err := Compress(text, a); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
