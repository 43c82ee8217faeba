package resource

import (
	"errors"
	"sync"
	"testing"

	verrors "github.com/wippyai/shader-variants/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestArena_Basic(t *testing.T) {
	a := NewArena[string]()

	h, err := a.Insert("test value")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if h.Slot() != 1 {
		t.Fatalf("Expected slot 1, got %d", h.Slot())
	}

	val, err := a.Get(h)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	val, err = a.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, err := a.Get(h); err == nil {
		t.Fatal("Expected Get to fail after Remove")
	}
	if a.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", a.Len())
	}
}

func TestArena_InvalidHandles(t *testing.T) {
	a := NewArena[int]()
	if _, err := a.Get(0); !errors.Is(err, &verrors.Error{Phase: verrors.PhaseProgram, Kind: verrors.KindInvalidHandle}) {
		t.Errorf("Get(0) err = %v, want invalid_handle", err)
	}
	if _, err := a.Get(makeHandle(7, 1)); !errors.Is(err, &verrors.Error{Phase: verrors.PhaseProgram, Kind: verrors.KindInvalidHandle}) {
		t.Errorf("Get(out of range) err = %v, want invalid_handle", err)
	}
}

func TestArena_DoubleRemoveIsError(t *testing.T) {
	a := NewArena[int]()
	h, _ := a.Insert(1)
	if _, err := a.Remove(h); err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	_, err := a.Remove(h)
	if !errors.Is(err, &verrors.Error{Phase: verrors.PhaseProgram, Kind: verrors.KindStaleHandle}) {
		t.Fatalf("second Remove err = %v, want stale_handle", err)
	}
	if got := a.FreeSlots(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("FreeSlots = %v, want [1]", got)
	}
}

func TestArena_ReuseLowestSlot(t *testing.T) {
	a := NewArena[int]()
	var hs []Handle
	for i := 0; i < 5; i++ {
		h, _ := a.Insert(i)
		hs = append(hs, h)
	}

	// release slots 4, 2, 5 in that order
	for _, i := range []int{3, 1, 4} {
		if _, err := a.Remove(hs[i]); err != nil {
			t.Fatalf("Remove(%v): %v", hs[i], err)
		}
	}
	if got := a.FreeSlots(); len(got) != 3 || got[0] != 2 || got[1] != 4 || got[2] != 5 {
		t.Fatalf("FreeSlots = %v, want [2 4 5]", got)
	}

	for _, want := range []uint32{2, 4, 5, 6} {
		h, err := a.Insert(100)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if h.Slot() != want {
			t.Fatalf("Insert reused slot %d, want %d", h.Slot(), want)
		}
	}
}

func TestArena_StaleHandleAfterReuse(t *testing.T) {
	a := NewArena[string]()
	old, _ := a.Insert("old")
	other, _ := a.Insert("other")
	if _, err := a.Remove(old); err != nil {
		t.Fatal(err)
	}

	reused, _ := a.Insert("new")
	if reused.Slot() != old.Slot() {
		t.Fatalf("expected slot %d reused, got %d", old.Slot(), reused.Slot())
	}
	if reused == old {
		t.Fatal("reused handle must differ from stale handle")
	}
	if reused == other {
		t.Fatal("reused handle collides with live handle")
	}
	if reused.Generation() != old.Generation()+1 {
		t.Fatalf("generation = %d, want %d", reused.Generation(), old.Generation()+1)
	}

	if _, err := a.Get(old); !errors.Is(err, &verrors.Error{Phase: verrors.PhaseProgram, Kind: verrors.KindStaleHandle}) {
		t.Fatalf("Get(stale) err = %v, want stale_handle", err)
	}
	if _, err := a.Remove(old); err == nil {
		t.Fatal("Remove(stale) must not release the new occupant")
	}
	if v, err := a.Get(reused); err != nil || v != "new" {
		t.Fatalf("Get(reused) = %q, %v", v, err)
	}
}

func TestArena_Update(t *testing.T) {
	a := NewArena[int]()
	h, _ := a.Insert(1)
	if err := a.Update(h, 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := a.Get(h); v != 2 {
		t.Fatalf("Get = %d, want 2", v)
	}
	a.Remove(h)
	if err := a.Update(h, 3); err == nil {
		t.Fatal("Update on released handle should fail")
	}
}

func TestArena_Observer(t *testing.T) {
	a := NewArena[string]()
	obs := &testObserver{}
	a.Subscribe(obs)

	h, _ := a.Insert("test")
	if len(obs.events) != 1 || obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Fatalf("unexpected events after Insert: %+v", obs.events)
	}

	a.Remove(h)
	if len(obs.events) != 2 || obs.events[1].Type != EventDropped {
		t.Fatalf("unexpected events after Remove: %+v", obs.events)
	}
}

func TestArena_CloseSweepsLiveOnce(t *testing.T) {
	a := NewArena[*dropCounter]()
	d1, d2, d3 := &dropCounter{}, &dropCounter{}, &dropCounter{}
	h1, _ := a.Insert(d1)
	a.Insert(d2)
	a.Insert(d3)
	a.Remove(h1)

	var released []*dropCounter
	a.Close(func(_ Handle, d *dropCounter) {
		released = append(released, d)
	})
	a.Close(func(_ Handle, d *dropCounter) {
		t.Fatal("second Close must not release anything")
	})

	if len(released) != 2 || released[0] != d2 || released[1] != d3 {
		t.Fatalf("released = %v, want [d2 d3]", released)
	}
	if d1.drops != 1 || d2.drops != 1 || d3.drops != 1 {
		t.Fatalf("drops = %d %d %d, want 1 1 1", d1.drops, d2.drops, d3.drops)
	}
	if _, err := a.Insert(&dropCounter{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Insert after Close err = %v, want ErrClosed", err)
	}
}

func TestArena_Each(t *testing.T) {
	a := NewArena[int]()
	for i := 0; i < 4; i++ {
		a.Insert(i)
	}
	var seen []int
	a.Each(func(_ Handle, v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	if len(seen) != 3 {
		t.Fatalf("Each visited %v, want stop after 2", seen)
	}
}

func TestArena_Concurrent(t *testing.T) {
	a := NewArena[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h, err := a.Insert(i)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := a.Remove(h); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if a.Len() != 0 {
		t.Fatalf("Len = %d, want 0", a.Len())
	}
	free := a.FreeSlots()
	for i := 1; i < len(free); i++ {
		if free[i] <= free[i-1] {
			t.Fatalf("free-list not ascending/distinct: %v", free)
		}
	}
	if len(free) != a.Cap() {
		t.Fatalf("free-list has %d entries, table has %d slots", len(free), a.Cap())
	}
}
