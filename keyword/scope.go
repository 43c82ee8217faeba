package keyword

import (
	"slices"
	"strconv"
	"strings"

	"github.com/wippyai/shader-variants/errors"
)

// Unit is the keyword combination applied to one compile unit: every compile
// between two links.
type Unit struct {
	Keywords []Keyword // sorted by hash, distinct
	ID       uint64    // zero when no keyword applies
}

// Names returns the unit's keyword names in hash order.
func (u Unit) Names() []string {
	out := make([]string, len(u.Keywords))
	for i, kw := range u.Keywords {
		out[i] = kw.Name
	}
	return out
}

// Defines renders one "#define NAME" line per keyword.
func (u Unit) Defines() string {
	var b strings.Builder
	for _, kw := range u.Keywords {
		b.WriteString("#define ")
		b.WriteString(kw.Name)
		b.WriteByte('\n')
	}
	return b.String()
}

// Scope is the per-engine keyword state: scoped enables, the keywords added to
// the current unit, and every combination sealed so far.
//
// Keywords may only be added while the unit is open. The first compile seals
// it; the next link resets it. A Scope is not safe for concurrent use.
type Scope struct {
	reg     *Registry
	enabled []Keyword
	pending []Keyword
	unit    Unit
	sealed  bool
	lastID  uint64
	combos  map[uint64][]uint64
	names   map[uint64]string
}

// NewScope creates a scope over reg.
func NewScope(reg *Registry) *Scope {
	return &Scope{
		reg:    reg,
		combos: make(map[uint64][]uint64),
		names:  make(map[uint64]string),
	}
}

// Registry returns the registry backing the scope.
func (s *Scope) Registry() *Registry {
	return s.reg
}

// Enable enables a reserved keyword for this scope only.
func (s *Scope) Enable(name string) error {
	kw, ok := s.reg.Lookup(name)
	if !ok {
		return errors.NotReserved(name)
	}
	if slices.ContainsFunc(s.enabled, func(k Keyword) bool { return k.Hash == kw.Hash }) {
		return nil
	}
	s.enabled = append(s.enabled, kw)
	return nil
}

// Disable disables a keyword enabled with Enable.
func (s *Scope) Disable(name string) error {
	kw, ok := s.reg.Lookup(name)
	if !ok {
		return errors.NotReserved(name)
	}
	i := slices.IndexFunc(s.enabled, func(k Keyword) bool { return k.Hash == kw.Hash })
	if i < 0 {
		return errors.New(errors.PhaseKeyword, errors.KindNotEnabled).
			Subject(name).
			Detail("keyword is not enabled in this scope").
			Build()
	}
	s.enabled = slices.Delete(s.enabled, i, i+1)
	return nil
}

// Enabled returns the scoped enables in enable order.
func (s *Scope) Enabled() []Keyword {
	return slices.Clone(s.enabled)
}

// Add reserves name and adds it to the open unit. Adding after the unit has
// been sealed by a compile fails until the next Reset.
func (s *Scope) Add(name string) (uint64, error) {
	if s.sealed {
		return 0, errors.New(errors.PhaseKeyword, errors.KindLocked).
			Subject(name).
			Detail("cannot add keywords until the compiled stages have been linked").
			Build()
	}
	hash, err := s.reg.Reserve(name)
	if err != nil {
		return 0, err
	}
	if !slices.ContainsFunc(s.pending, func(k Keyword) bool { return k.Hash == hash }) {
		s.pending = append(s.pending, Keyword{Name: name, Hash: hash})
	}
	return hash, nil
}

// Sealed reports whether the current unit has been sealed by a compile.
func (s *Scope) Sealed() bool {
	return s.sealed
}

// Seal closes the unit on its first call after a Reset: added keywords, scoped
// enables and global enables are merged, sorted by hash and de-duplicated,
// and the combination id is computed. Later calls return the same unit.
//
// A combination id already bound to a different keyword list is a collision.
func (s *Scope) Seal() (Unit, error) {
	if s.sealed {
		return s.unit, nil
	}

	merged := slices.Clone(s.pending)
	merged = append(merged, s.enabled...)
	merged = append(merged, s.reg.GlobalEnabled()...)
	slices.SortFunc(merged, func(a, b Keyword) int {
		switch {
		case a.Hash < b.Hash:
			return -1
		case a.Hash > b.Hash:
			return 1
		}
		return 0
	})
	merged = slices.CompactFunc(merged, func(a, b Keyword) bool { return a.Hash == b.Hash })

	unit := Unit{Keywords: merged}
	if len(merged) > 0 {
		hashes := make([]uint64, len(merged))
		var key strings.Builder
		for i, kw := range merged {
			hashes[i] = kw.Hash
			key.WriteString(strconv.FormatUint(kw.Hash, 10))
		}
		unit.ID = Hash(key.String())

		if prev, ok := s.combos[unit.ID]; ok && !slices.Equal(prev, hashes) {
			return Unit{}, errors.New(errors.PhaseKeyword, errors.KindCollision).
				Value(unit.ID).
				Detail("keyword combination 0x%016x collides with an earlier combination", unit.ID).
				Build()
		}
		s.combos[unit.ID] = hashes
		for _, kw := range merged {
			s.names[kw.Hash] = kw.Name
		}
	}

	s.unit = unit
	s.sealed = true
	s.lastID = unit.ID
	return unit, nil
}

// Reset reopens the unit for new keywords. The id of the last sealed unit
// stays readable through ID.
func (s *Scope) Reset() {
	s.pending = nil
	s.unit = Unit{}
	s.sealed = false
}

// Pending returns the keywords added to the open unit in add order.
func (s *Scope) Pending() []Keyword {
	return slices.Clone(s.pending)
}

// ID returns the combination id of the most recently sealed unit.
func (s *Scope) ID() uint64 {
	return s.lastID
}

// KeywordsFromID returns the keyword names of a sealed combination joined by
// newlines, in hash order. Unknown ids yield "".
func (s *Scope) KeywordsFromID(id uint64) string {
	hashes, ok := s.combos[id]
	if !ok {
		return ""
	}
	names := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if n, ok := s.names[h]; ok {
			names = append(names, n)
		} else if n, ok := s.reg.nameOf(h); ok {
			names = append(names, n)
		}
	}
	return strings.Join(names, "\n")
}
