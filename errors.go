package wirebuf

import "errors"

// Protocol violations. The buffer that produced them should be discarded.
var (
	ErrCorruptLength  = errors.New("wirebuf: packet length negative or above limit")
	ErrPacketTooLarge = errors.New("wirebuf: packet too large")
)

// ErrCorruption reports a checksum mismatch on an outer packet.
var ErrCorruption = errors.New("wirebuf: packet checksum mismatch")

var (
	ErrShortRead      = errors.New("wirebuf: read past committed data")
	ErrInvalidLength  = errors.New("wirebuf: invalid field length")
	ErrBadPacketStart = errors.New("wirebuf: packet start outside written region")
	ErrBadPacketEnd   = errors.New("wirebuf: packet end outside committed region")
	ErrPeelActive     = errors.New("wirebuf: buffer has live peeled views")
	ErrReadOnlyView   = errors.New("wirebuf: write to peeled view")
	ErrSelfAppend     = errors.New("wirebuf: append of a buffer to itself")
	ErrDecimalRange   = errors.New("wirebuf: decimal out of range")
)

// IsProtocolViolation reports whether err is a framing length violation.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrCorruptLength) || errors.Is(err, ErrPacketTooLarge)
}

// IsCorruption reports whether err is a checksum mismatch.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrCorruption)
}
