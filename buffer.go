package wirebuf

import (
	"github.com/rawbytedev/wirebuf/pkg/hash64"
	"github.com/rs/zerolog"
)

// Options configures a Buffer. The zero value is usable.
type Options struct {
	// InitialSize is the starting capacity. Zero selects DefaultInitialSize.
	InitialSize int
	// MaxPacketSize overrides the process-wide limit for this buffer when positive.
	MaxPacketSize int
	// Hash computes outer packet checksums. Nil selects hash64.XXH64.
	Hash hash64.Func
	// Seed is used by the unseeded packet calls.
	Seed     uint64
	Logger   *zerolog.Logger
	Observer Observer
}

// Buffer is a growable byte store with read, write and commit cursors.
//
// Bytes written since the last Commit are invisible to readers. The cursors
// always satisfy 0 <= read <= commit <= write <= Cap(). A Buffer is owned by
// one goroutine at a time and carries no locks.
//
// Errors from scalar reads and writes are sticky: the first failure is kept
// in Err and every later read or write is a no-op returning zero values.
type Buffer struct {
	buf    []byte
	read   int
	write  int
	commit int

	writing bool
	err     error

	maxPacket int
	hash      hash64.Func
	seed      uint64
	log       zerolog.Logger
	obs       Observer

	// peels counts live views aliasing buf; src is set on a view.
	peels int
	src   *Buffer
}

// NewBuffer allocates a buffer configured by opts.
func NewBuffer(opts Options) *Buffer {
	size := opts.InitialSize
	if size <= 0 {
		size = DefaultInitialSize
	}
	b := &Buffer{
		buf:       make([]byte, size),
		maxPacket: opts.MaxPacketSize,
		hash:      opts.Hash,
		seed:      opts.Seed,
		obs:       opts.Observer,
	}
	if b.hash == nil {
		b.hash = hash64.XXH64
	}
	if b.obs == nil {
		b.obs = NopObserver{}
	}
	if opts.Logger != nil {
		b.log = *opts.Logger
	} else {
		b.log = zerolog.Nop()
	}
	return b
}

// NewBufferSize allocates a buffer of n bytes with default options.
func NewBufferSize(n int) *Buffer {
	return NewBuffer(Options{InitialSize: n})
}

// Ensure grows the backing array so that Cap() > pos. The new capacity is
// twice the old one or pos, whichever is larger. Existing bytes are kept and
// the array never shrinks.
func (b *Buffer) Ensure(pos int) {
	if len(b.buf) > pos {
		return
	}
	if b.src != nil {
		b.SetError(ErrReadOnlyView)
		return
	}
	n := len(b.buf) * 2
	if n < pos {
		n = pos
	}
	grown := make([]byte, n)
	copy(grown, b.buf)
	b.log.Debug().Int("from", len(b.buf)).Int("to", n).Msg("buffer grown")
	b.observer().Grew(len(b.buf), n)
	b.buf = grown
}

// Count is the number of committed bytes not yet read.
func (b *Buffer) Count() int { return b.commit - b.read }

// Commit publishes everything written so far to readers.
func (b *Buffer) Commit() { b.commit = b.write }

// Rollback discards bytes written since the last Commit.
func (b *Buffer) Rollback() { b.write = b.commit }

// Reset discards all content and clears the sticky error. It refuses, by
// setting ErrPeelActive, while peeled views still alias the array. Reset on
// a view releases it, leaving an empty writable buffer.
func (b *Buffer) Reset() {
	if b.peels > 0 {
		b.SetError(ErrPeelActive)
		return
	}
	b.EndPeel()
	b.read, b.write, b.commit = 0, 0, 0
	b.err = nil
}

func (b *Buffer) ReadPos() int   { return b.read }
func (b *Buffer) WritePos() int  { return b.write }
func (b *Buffer) CommitPos() int { return b.commit }
func (b *Buffer) Cap() int       { return len(b.buf) }

// Unread returns the committed bytes not yet read. The slice aliases the
// buffer and is valid until the next write.
func (b *Buffer) Unread() []byte { return b.buf[b.read:b.commit] }

// Bytes returns the whole backing array.
func (b *Buffer) Bytes() []byte { return b.buf }

// Peels reports the number of live peeled views over this buffer.
func (b *Buffer) Peels() int { return b.peels }

// IsView reports whether b is a peeled view over another buffer.
func (b *Buffer) IsView() bool { return b.src != nil }

// SetWriting and SetReading select the direction used by pkg/stream.
func (b *Buffer) SetWriting() { b.writing = true }
func (b *Buffer) SetReading() { b.writing = false }
func (b *Buffer) Writing() bool { return b.writing }

// Err returns the first error recorded on the buffer.
func (b *Buffer) Err() error { return b.err }

// SetError records err unless an error is already recorded.
func (b *Buffer) SetError(err error) {
	if b.err != nil || err == nil {
		return
	}
	b.err = err
}

// Logger returns the logger the buffer reports to.
func (b *Buffer) Logger() *zerolog.Logger { return &b.log }

// Seed returns the seed used by the unseeded packet calls.
func (b *Buffer) Seed() uint64 { return b.seed }

func (b *Buffer) hasher() hash64.Func {
	if b.hash == nil {
		return hash64.XXH64
	}
	return b.hash
}

func (b *Buffer) observer() Observer {
	if b.obs == nil {
		return NopObserver{}
	}
	return b.obs
}

func (b *Buffer) maxPacketSize() int {
	if b.maxPacket > 0 {
		return b.maxPacket
	}
	return MaxPacketSize()
}

// grab reserves n bytes at the write cursor and advances it.
func (b *Buffer) grab(n int) []byte {
	if b.err != nil {
		return nil
	}
	if b.src != nil {
		b.SetError(ErrReadOnlyView)
		return nil
	}
	end := b.write + n
	b.Ensure(end)
	p := b.buf[b.write:end]
	b.write = end
	return p
}

// take consumes n committed bytes at the read cursor.
func (b *Buffer) take(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || b.commit-b.read < n {
		b.SetError(ErrShortRead)
		return nil
	}
	p := b.buf[b.read : b.read+n]
	b.read += n
	return p
}
