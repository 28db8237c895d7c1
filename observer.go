package wirebuf

// Observer receives buffer events. Implementations must be cheap; they run
// inline on the owning goroutine.
type Observer interface {
	PacketWritten(payload int)
	PacketRead(size int)
	PacketIncomplete()
	PacketRejected(err error)
	Compacted(moved int)
	Grew(from, to int)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) PacketWritten(int)    {}
func (NopObserver) PacketRead(int)       {}
func (NopObserver) PacketIncomplete()    {}
func (NopObserver) PacketRejected(error) {}
func (NopObserver) Compacted(int)        {}
func (NopObserver) Grew(int, int)        {}
