// Package wirebuf implements a reusable binary buffer with a length-prefixed,
// checksummed packet protocol.
//
// A producer frames each message with StartWritePacket and EndWritePacket,
// writes fields in between with the Write* methods and publishes the result
// with Commit. A consumer calls TryStartReadPacket (or TryReadPacket); an
// ok == false result with a nil error means more bytes must be committed
// before the packet can be read, and is not a failure. EndReadPacket skips to
// the end of the packet so that readers tolerate trailing fields added by
// newer writers.
//
// Inner packets omit the checksum and are meant to be nested inside an outer
// packet. TryPeelPacket exposes an inner packet as a view over the same
// backing array; the source will not compact or reset while views are live.
//
// All integers are big-endian. Typed objects, the stream facade and user
// types live in the pkg/ subpackages.
package wirebuf
