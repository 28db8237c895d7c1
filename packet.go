package wirebuf

import (
	"encoding/binary"
	"fmt"
)

// Outer packets are framed as
//
//	[u32 length][length bytes payload][u64 checksum]
//
// with big-endian integers and the checksum taken over the payload only.
// Inner packets drop the checksum and rely on the enclosing outer packet.

// StartWritePacket compacts the buffer, writes a length placeholder and
// returns the packet start to hand to EndWritePacket.
func (b *Buffer) StartWritePacket() int {
	b.Shift()
	return b.startPacket()
}

// StartWriteInnerPacket is StartWritePacket without compaction, for packets
// nested inside an open outer packet.
func (b *Buffer) StartWriteInnerPacket() int {
	return b.startPacket()
}

func (b *Buffer) startPacket() int {
	start := b.write
	b.WriteUint32(0)
	return start
}

// EndWritePacket back-patches the length and appends the checksum using
// the buffer's configured seed. A payload above the packet limit returns
// ErrPacketTooLarge and leaves the buffer usable; Rollback drops the
// uncommitted packet.
func (b *Buffer) EndWritePacket(start int) error {
	return b.EndWritePacketSeed(start, b.seed)
}

func (b *Buffer) EndWritePacketSeed(start int, seed uint64) error {
	n, err := b.patchLength(start)
	if err != nil {
		return err
	}
	payload := start + LengthSize
	b.WriteUint64(b.hasher()(b.buf[payload:payload+n], seed))
	if b.err != nil {
		return b.err
	}
	b.observer().PacketWritten(n)
	return nil
}

// EndWriteInnerPacket back-patches the length of an inner packet.
func (b *Buffer) EndWriteInnerPacket(start int) error {
	n, err := b.patchLength(start)
	if err != nil {
		return err
	}
	b.observer().PacketWritten(n)
	return nil
}

func (b *Buffer) patchLength(start int) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if start < 0 || start+LengthSize > b.write {
		return 0, fmt.Errorf("%w: start %d, write cursor %d", ErrBadPacketStart, start, b.write)
	}
	n := b.write - start - LengthSize
	if limit := b.maxPacketSize(); n > limit {
		err := fmt.Errorf("%w: payload %d bytes, limit %d", ErrPacketTooLarge, n, limit)
		b.report(err)
		return 0, err
	}
	binary.BigEndian.PutUint32(b.buf[start:], uint32(n))
	return n, nil
}

// TryStartReadPacket opens the next outer packet using the buffer's
// configured seed. When fewer committed bytes than the whole packet are
// available it returns ok == false with a nil error and leaves the read
// cursor where it was. On success the read cursor sits on the first payload
// byte and end is the position to pass to EndReadPacket.
func (b *Buffer) TryStartReadPacket() (end int, ok bool, err error) {
	return b.TryStartReadPacketSeed(b.seed)
}

func (b *Buffer) TryStartReadPacketSeed(seed uint64) (end int, ok bool, err error) {
	payload, n, ok, err := b.peekFrame(ChecksumSize)
	if !ok || err != nil {
		return 0, false, err
	}
	tail := payload + n
	want := binary.BigEndian.Uint64(b.buf[tail:])
	if got := b.hasher()(b.buf[payload:tail], seed); got != want {
		err := fmt.Errorf("%w: at offset %d, got %016x want %016x", ErrCorruption, b.read, got, want)
		b.reject(err)
		return 0, false, err
	}
	b.read = payload
	return tail + ChecksumSize, true, nil
}

// TryStartReadInnerPacket opens an inner packet. It has the same incomplete
// and length semantics as TryStartReadPacket.
func (b *Buffer) TryStartReadInnerPacket() (end int, ok bool, err error) {
	payload, n, ok, err := b.peekFrame(0)
	if !ok || err != nil {
		return 0, false, err
	}
	b.read = payload
	return payload + n, true, nil
}

// peekFrame validates the frame at the read cursor without moving it.
func (b *Buffer) peekFrame(trailer int) (payload, n int, ok bool, err error) {
	if b.err != nil {
		return 0, 0, false, b.err
	}
	if b.Count() < LengthSize {
		b.observer().PacketIncomplete()
		return 0, 0, false, nil
	}
	declared := int32(binary.BigEndian.Uint32(b.buf[b.read:]))
	if limit := b.maxPacketSize(); declared < 0 || int(declared) > limit {
		err := fmt.Errorf("%w: declared %d at offset %d, limit %d", ErrCorruptLength, declared, b.read, limit)
		b.reject(err)
		return 0, 0, false, err
	}
	payload = b.read + LengthSize
	n = int(declared)
	if b.commit < payload+n+trailer {
		b.observer().PacketIncomplete()
		return 0, 0, false, nil
	}
	return payload, n, true, nil
}

// EndReadPacket moves the read cursor to end regardless of how much of the
// payload was consumed, skipping fields a newer writer may have appended.
func (b *Buffer) EndReadPacket(end int) {
	if end < 0 || end > b.commit {
		b.SetError(fmt.Errorf("%w: end %d, commit %d", ErrBadPacketEnd, end, b.commit))
		return
	}
	b.read = end
}

// TryReadPacket opens an outer packet, hands it to fn and closes it. ok is
// false only when the packet is incomplete or invalid. The packet is closed
// even when fn fails; fn's error, or a sticky read error, is returned.
func (b *Buffer) TryReadPacket(fn func(*Buffer) error) (bool, error) {
	return b.TryReadPacketSeed(fn, b.seed)
}

func (b *Buffer) TryReadPacketSeed(fn func(*Buffer) error, seed uint64) (bool, error) {
	start := b.read
	end, ok, err := b.TryStartReadPacketSeed(seed)
	if !ok || err != nil {
		return false, err
	}
	return true, b.finishRead(fn, start, end)
}

// TryReadInnerPacket is TryReadPacket for inner packets.
func (b *Buffer) TryReadInnerPacket(fn func(*Buffer) error) (bool, error) {
	start := b.read
	end, ok, err := b.TryStartReadInnerPacket()
	if !ok || err != nil {
		return false, err
	}
	return true, b.finishRead(fn, start, end)
}

func (b *Buffer) finishRead(fn func(*Buffer) error, start, end int) error {
	err := fn(b)
	b.EndReadPacket(end)
	if err == nil {
		err = b.err
	}
	b.observer().PacketRead(end - start)
	return err
}

func (b *Buffer) report(err error) {
	b.log.Warn().Err(err).Msg("packet rejected")
	b.observer().PacketRejected(err)
}

// reject reports err and poisons the buffer; a stream that produced a bad
// frame cannot be resynchronised.
func (b *Buffer) reject(err error) {
	b.report(err)
	b.SetError(err)
}
