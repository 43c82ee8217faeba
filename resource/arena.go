package resource

import (
	"slices"
	"sync"

	"github.com/wippyai/shader-variants/errors"
)

// ErrClosed is returned by operations on a closed arena.
var ErrClosed = errors.New(errors.PhaseProgram, errors.KindClosed).
	Detail("arena closed").
	Build()

// Arena is a slot table with 1-based, generation-stamped handles.
// Released slots go to a free-list and the lowest free slot is reused first;
// every reuse bumps the slot generation so stale handles fail instead of
// aliasing the new occupant.
type Arena[T any] struct {
	slots     []slot[T]
	free      []uint32 // 0-based slot indices, ascending, distinct
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	live      int
	closed    bool
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		slots: make([]slot[T], 0, 16),
		free:  make([]uint32, 0, 8),
	}
}

// Insert stores a value and returns its handle.
func (a *Arena[T]) Insert(value T) (Handle, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, ErrClosed
	}

	var h Handle
	if len(a.free) > 0 {
		idx := a.free[0]
		a.free = a.free[1:]
		s := &a.slots[idx]
		s.value = value
		s.live = true
		h = makeHandle(idx+1, s.gen)
	} else {
		a.slots = append(a.slots, slot[T]{value: value, gen: 1, live: true})
		h = makeHandle(uint32(len(a.slots)), 1)
	}
	a.live++
	a.mu.Unlock()

	a.notify(Event{Type: EventCreated, Handle: h, Value: value})
	return h, nil
}

// Get retrieves the value for a live handle.
func (a *Arena[T]) Get(h Handle) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, err := a.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Update replaces the value stored for a live handle.
func (a *Arena[T]) Update(h Handle, value T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.lookup(h)
	if err != nil {
		return err
	}
	s.value = value
	return nil
}

// Remove releases the slot of a live handle and returns its value.
// Removing a handle whose slot is already released fails with a stale handle
// error; the free-list never receives the same slot twice.
func (a *Arena[T]) Remove(h Handle) (T, error) {
	a.mu.Lock()
	s, err := a.lookup(h)
	if err != nil {
		a.mu.Unlock()
		var zero T
		return zero, err
	}

	value := s.value
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	a.live--

	idx := h.Slot() - 1
	pos, _ := slices.BinarySearch(a.free, idx)
	a.free = slices.Insert(a.free, pos, idx)
	a.mu.Unlock()

	if d, ok := any(value).(Dropper); ok {
		d.Drop()
	}
	a.notify(Event{Type: EventDropped, Handle: h, Value: value})
	return value, nil
}

// Len returns the number of live slots.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}

// Cap returns the number of slots ever allocated.
func (a *Arena[T]) Cap() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots)
}

// FreeSlots returns the 1-based slots currently on the free-list, ascending.
func (a *Arena[T]) FreeSlots() []uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]uint32, len(a.free))
	for i, idx := range a.free {
		out[i] = idx + 1
	}
	return out
}

// Each calls fn for every live slot in slot order until fn returns false.
// fn must not call back into the arena.
func (a *Arena[T]) Each(fn func(Handle, T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(makeHandle(uint32(i)+1, s.gen), s.value) {
			return
		}
	}
}

// Close sweeps every live slot, calling release exactly once per value in
// slot order, and stops accepting inserts. Closing twice is a no-op.
func (a *Arena[T]) Close(release func(Handle, T)) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true

	type swept struct {
		h Handle
		v T
	}
	var sweep []swept
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		sweep = append(sweep, swept{h: makeHandle(uint32(i)+1, s.gen), v: s.value})
		var zero T
		s.value = zero
		s.live = false
		s.gen++
	}
	a.live = 0
	a.free = a.free[:0]
	a.mu.Unlock()

	for _, s := range sweep {
		if release != nil {
			release(s.h, s.v)
		}
		if d, ok := any(s.v).(Dropper); ok {
			d.Drop()
		}
		a.notify(Event{Type: EventSwept, Handle: s.h, Value: s.v})
	}
}

// Subscribe adds an observer for lifecycle events.
func (a *Arena[T]) Subscribe(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.observers = append(a.observers, o)
}

// lookup resolves a handle to its slot. Caller holds a.mu.
func (a *Arena[T]) lookup(h Handle) (*slot[T], error) {
	if a.closed {
		return nil, ErrClosed
	}
	if h == 0 {
		return nil, errors.InvalidHandle(errors.PhaseProgram, h)
	}
	idx := int(h.Slot()) - 1
	if idx < 0 || idx >= len(a.slots) {
		return nil, errors.InvalidHandle(errors.PhaseProgram, h)
	}
	s := &a.slots[idx]
	if !s.live || s.gen != h.Generation() {
		return nil, errors.StaleHandle(errors.PhaseProgram, h)
	}
	return s, nil
}

func (a *Arena[T]) notify(e Event) {
	a.obsMu.RLock()
	defer a.obsMu.RUnlock()
	for _, o := range a.observers {
		o.OnResourceEvent(e)
	}
}
