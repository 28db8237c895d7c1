package wirebuf

// Shift reclaims the space taken by bytes that have already been read by
// moving the unread tail to offset zero. The copy is skipped when the tail is
// larger than a few words and there is still more than MaxPacketSize of room
// ahead of the write cursor. StartWritePacket calls Shift before every outer
// packet.
//
// Shift never runs while peeled views alias the array, nor on a view itself.
func (b *Buffer) Shift() {
	if b.read == 0 {
		return
	}
	if b.peels > 0 || b.src != nil {
		b.log.Debug().Int("peels", b.peels).Msg("shift skipped, array is aliased")
		return
	}
	if b.read == b.commit && b.commit == b.write {
		b.read, b.commit, b.write = 0, 0, 0
		b.observer().Compacted(0)
		return
	}
	size := b.write - b.read
	if size > shiftCopyThreshold && len(b.buf)-b.write > b.maxPacketSize() {
		return
	}
	copy(b.buf, b.buf[b.read:b.write])
	b.log.Debug().Int("moved", size).Int("from", b.read).Msg("buffer compacted")
	b.observer().Compacted(size)
	b.write = size
	b.commit -= b.read
	b.read = 0
}

// Append moves src's unread committed bytes onto the tail of b and then
// resets src. The appended bytes are not committed on b. Nothing is moved
// when src has live peeled views or is b itself.
func (b *Buffer) Append(src *Buffer) error {
	if src == b {
		return ErrSelfAppend
	}
	if src.peels > 0 {
		return ErrPeelActive
	}
	if b.err != nil {
		return b.err
	}
	data := src.Unread()
	if p := b.grab(len(data)); p != nil {
		copy(p, data)
	}
	if b.err != nil {
		return b.err
	}
	src.Reset()
	return nil
}
