package wiremetrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rawbytedev/wirebuf"
	"github.com/stretchr/testify/require"
)

func counter(t *testing.T, v *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, v.WithLabelValues(labels...).Write(m))
	return m.GetCounter().GetValue()
}

func TestObserverCountsPackets(t *testing.T) {
	c := NewCollector("test")
	reg := prometheus.NewRegistry()
	c.Register(reg)
	c.Register(reg)

	b := wirebuf.NewBuffer(wirebuf.Options{InitialSize: 8, Observer: c.For("conn")})
	for i := 0; i < 3; i++ {
		start := b.StartWritePacket()
		b.WriteUint32(uint32(i))
		require.NoError(t, b.EndWritePacket(start))
	}
	b.Commit()

	for i := 0; i < 3; i++ {
		ok, err := b.TryReadPacket(func(r *wirebuf.Buffer) error {
			require.Equal(t, uint32(i), r.ReadUint32())
			return nil
		})
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := b.TryReadPacket(func(*wirebuf.Buffer) error { return nil })
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 3.0, counter(t, c.written, "conn"))
	require.Equal(t, 3.0, counter(t, c.read, "conn"))
	require.Equal(t, 1.0, counter(t, c.incomplete, "conn"))
	require.Greater(t, counter(t, c.grown, "conn"), 0.0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["test_packet_written_total"])
	require.True(t, names["test_packet_payload_bytes"])
}

func TestObserverCountsRejections(t *testing.T) {
	c := NewCollector("")
	b := wirebuf.NewBuffer(wirebuf.Options{InitialSize: 64, Observer: c.For("peer")})
	start := b.StartWritePacket()
	b.WriteUint64(42)
	require.NoError(t, b.EndWritePacket(start))
	b.Commit()
	b.Bytes()[wirebuf.LengthSize] ^= 0x01

	_, err := b.TryReadPacket(func(*wirebuf.Buffer) error { return nil })
	require.ErrorIs(t, err, wirebuf.ErrCorruption)
	require.Equal(t, 1.0, counter(t, c.rejected, "peer", "checksum"))
}

func TestReason(t *testing.T) {
	cases := map[string]error{
		"corrupt_length": fmt.Errorf("wrapped: %w", wirebuf.ErrCorruptLength),
		"too_large":      wirebuf.ErrPacketTooLarge,
		"checksum":       wirebuf.ErrCorruption,
		"other":          wirebuf.ErrShortRead,
	}
	for want, err := range cases {
		require.Equal(t, want, Reason(err))
	}
}
