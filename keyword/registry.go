package keyword

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/shader-variants/errors"
)

// Keyword is a reserved name and its FNV-1a hash.
type Keyword struct {
	Name string
	Hash uint64
}

// Hash returns the 64-bit FNV-1a hash of name.
func Hash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

// Registry is the table of reserved and globally enabled keywords.
// It is safe for concurrent use and may be shared by several engines.
type Registry struct {
	reserved []Keyword
	byHash   map[uint64]int
	global   []Keyword
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byHash: make(map[uint64]int),
	}
}

// Reserve registers name and returns its hash. Reserving an already reserved
// name is a no-op. A different name with the same hash is a collision.
func (r *Registry) Reserve(name string) (uint64, error) {
	if name == "" {
		return 0, errors.New(errors.PhaseKeyword, errors.KindInvalidInput).
			Detail("empty keyword").
			Build()
	}
	hash := Hash(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.byHash[hash]; ok {
		if r.reserved[i].Name != name {
			return 0, errors.Collision(name, r.reserved[i].Name, hash)
		}
		return hash, nil
	}
	r.byHash[hash] = len(r.reserved)
	r.reserved = append(r.reserved, Keyword{Name: name, Hash: hash})
	return hash, nil
}

// Lookup returns the keyword for name if it has been reserved.
func (r *Registry) Lookup(name string) (Keyword, bool) {
	hash := Hash(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byHash[hash]
	if !ok || r.reserved[i].Name != name {
		return Keyword{}, false
	}
	return r.reserved[i], true
}

func (r *Registry) nameOf(hash uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byHash[hash]
	if !ok {
		return "", false
	}
	return r.reserved[i].Name, true
}

// EnableGlobal enables a reserved keyword for every compile unit.
func (r *Registry) EnableGlobal(name string) error {
	kw, ok := r.Lookup(name)
	if !ok {
		return errors.NotReserved(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.global {
		if g.Hash == kw.Hash {
			return nil
		}
	}
	r.global = append(r.global, kw)
	return nil
}

// DisableGlobal disables a globally enabled keyword.
func (r *Registry) DisableGlobal(name string) error {
	kw, ok := r.Lookup(name)
	if !ok {
		return errors.NotReserved(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.global, func(g Keyword) bool { return g.Hash == kw.Hash })
	if i < 0 {
		return errors.New(errors.PhaseKeyword, errors.KindNotEnabled).
			Subject(name).
			Detail("keyword is not globally enabled").
			Build()
	}
	r.global = slices.Delete(r.global, i, i+1)
	return nil
}

// GlobalEnabled returns the globally enabled keywords in enable order.
func (r *Registry) GlobalEnabled() []Keyword {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.global)
}

// Reserved returns every reserved keyword in reservation order.
func (r *Registry) Reserved() []Keyword {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.reserved)
}

// Dump lists reserved keywords, one "0x<hash> NAME" line each, followed by
// the count.
func (r *Registry) Dump() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, kw := range r.reserved {
		fmt.Fprintf(&b, "0x%016x %s\n", kw.Hash, kw.Name)
	}
	fmt.Fprintf(&b, "count = %d\n", len(r.reserved))
	return b.String()
}
