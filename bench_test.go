package wirebuf

import "testing"

func BenchmarkWriteReadPacket(b *testing.B) {
	buf := NewBufferSize(1 << 16)
	fn := func(r *Buffer) error {
		r.ReadUint64()
		r.ReadString()
		r.ReadFloat64()
		return nil
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		start := buf.StartWritePacket()
		buf.WriteUint64(uint64(i))
		buf.WriteString("benchmark")
		buf.WriteFloat64(float64(i))
		if err := buf.EndWritePacket(start); err != nil {
			b.Fatal(err)
		}
		buf.Commit()
		if ok, err := buf.TryReadPacket(fn); !ok || err != nil {
			b.Fatal(ok, err)
		}
	}
}

func BenchmarkWriteScalars(b *testing.B) {
	buf := NewBufferSize(1 << 16)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		for j := 0; j < 64; j++ {
			buf.WriteUint32(uint32(j))
			buf.WriteInt64(int64(j))
		}
	}
}

func BenchmarkPeel(b *testing.B) {
	buf := NewBufferSize(1 << 16)
	var view Buffer
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		start := buf.StartWriteInnerPacket()
		buf.WriteUint64(uint64(i))
		_ = buf.EndWriteInnerPacket(start)
		buf.Commit()
		if ok, err := buf.TryPeelPacket(&view); !ok || err != nil {
			b.Fatal(ok, err)
		}
		view.ReadUint64()
		view.EndPeel()
	}
}
