package wirebuf

import "sync/atomic"

const (
	DefaultMaxPacketSize = 2 << 20
	DefaultInitialSize   = 2 << 20

	LengthSize   = 4
	ChecksumSize = 8

	// unread tails at or below this size are always moved by Shift
	shiftCopyThreshold = 128
)

var maxPacketSize atomic.Int64

func init() {
	maxPacketSize.Store(DefaultMaxPacketSize)
}

// MaxPacketSize returns the process-wide payload limit in bytes.
func MaxPacketSize() int {
	return int(maxPacketSize.Load())
}

// SetMaxPacketSize changes the process-wide payload limit. It applies to
// both the write-side size check and the read-side length guard of every
// buffer that has no per-buffer override. Non-positive values restore the
// default.
func SetMaxPacketSize(n int) {
	if n <= 0 {
		n = DefaultMaxPacketSize
	}
	maxPacketSize.Store(int64(n))
}
