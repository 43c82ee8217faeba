package resource

import "fmt"

// Handle is an opaque reference to a slot in an Arena.
// The low 32 bits hold the 1-based slot, the high 32 bits the slot generation.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

// Slot returns the 1-based slot number.
func (h Handle) Slot() uint32 {
	return uint32(h)
}

// Generation returns the generation stamp of the slot at the time the handle
// was issued.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// String formats the handle as slot#generation.
func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Slot(), h.Generation())
}

// Event types for slot lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventSwept
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventSwept:
		return "swept"
	}
	return "unknown"
}

// Event represents a slot lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about slot lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is optionally implemented by values that need cleanup when their
// slot is released or swept.
type Dropper interface {
	Drop()
}
