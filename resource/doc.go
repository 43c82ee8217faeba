// Package resource provides generation-stamped handle tables.
//
// An Arena maps integer handles to Go values. It backs the engine's program
// table, where every slot owns exactly one native backend program object.
//
//	programs := resource.NewArena[*Program]()
//
//	// Insert a value, get a handle
//	h, err := programs.Insert(p)
//
//	// Retrieve value by handle
//	p, err := programs.Get(h)
//
//	// Release the slot
//	p, err := programs.Remove(h)
//
// # Handles
//
// Handles are 1-based: slot 1 is the first slot and handle 0 is never valid.
// Each slot carries a generation counter that is bumped whenever the slot is
// released. A handle issued before the release no longer matches and fails
// with a stale handle error, so a reused slot can never be reached through an
// old handle.
//
// # Free-list
//
// Released slots are kept on an ascending free-list. Insert always reuses the
// lowest free slot before growing the table. A slot appears on the free-list
// at most once and never while it is live.
//
// # Teardown
//
// Close sweeps every live slot exactly once, in slot order, passing each value
// to a release callback. Values implementing Dropper are also dropped.
//
// # Observers
//
// Register observers to track slot lifecycle events:
//
//	programs.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("program %s %s", e.Handle, e.Type)
//	}))
package resource
