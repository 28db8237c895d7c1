package wirebuf

// TryPeelPacket reads an inner packet from b and points dst at its payload
// without copying. dst gets its own cursors over the aliased range, with all
// of it committed, and b's read cursor moves past the inner packet. ok is
// false when the inner packet is incomplete.
//
// Until dst.EndPeel is called b will not compact or reset, and dst refuses
// writes. Any dst contents or earlier peel are released first.
func (b *Buffer) TryPeelPacket(dst *Buffer) (bool, error) {
	if dst == b || dst.peels > 0 {
		return false, ErrPeelActive
	}
	end, ok, err := b.TryStartReadInnerPacket()
	if !ok || err != nil {
		return false, err
	}
	dst.EndPeel()
	dst.buf = b.buf[b.read:end:end]
	dst.read, dst.commit, dst.write = 0, end-b.read, end-b.read
	dst.err = nil
	dst.writing = false
	dst.src = b
	dst.maxPacket = b.maxPacket
	dst.hash = b.hash
	dst.seed = b.seed
	dst.log = b.log
	dst.obs = b.obs
	b.read = end
	b.peels++
	b.log.Debug().Int("size", len(dst.buf)).Int("peels", b.peels).Msg("packet peeled")
	return true, nil
}

// EndPeel releases a peeled view. It is a no-op on a buffer that is not a view.
func (b *Buffer) EndPeel() {
	if b.src == nil {
		return
	}
	b.src.peels--
	b.src = nil
	b.buf = nil
	b.read, b.write, b.commit = 0, 0, 0
}
