package wirebuf

import (
	"errors"
	"io"
)

// Fill performs a single Read from r into at most max bytes of free space,
// then commits what arrived. It is the glue between a caller-owned stream
// and the incomplete/retry contract of TryStartReadPacket.
func (b *Buffer) Fill(r io.Reader, max int) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.src != nil {
		return 0, ErrReadOnlyView
	}
	if max <= 0 {
		return 0, nil
	}
	b.Ensure(b.write + max)
	n, err := r.Read(b.buf[b.write : b.write+max])
	b.write += n
	b.Commit()
	return n, err
}

// maxEmptyReads bounds consecutive (0, nil) reads before ReadFrom gives up.
const maxEmptyReads = 100

// ReadFrom fills the buffer from r until EOF and commits it. A reader that
// keeps returning no data and no error fails with io.ErrNoProgress.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	const chunk = 32 << 10
	var total int64
	empty := 0
	for {
		n, err := b.Fill(r, chunk)
		total += int64(n)
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n > 0 {
			empty = 0
			continue
		}
		if empty++; empty >= maxEmptyReads {
			return total, io.ErrNoProgress
		}
	}
}

// WriteTo drains the committed unread bytes into w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Unread())
	b.read += n
	return int64(n), err
}
