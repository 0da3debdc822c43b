package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"shadec/internal/source"
)

// Scopes stores allocated scopes in a slice-based arena. Released slots are
// recycled with a bumped generation so that old handles go stale.
type Scopes struct {
	data   []Scope
	free   []uint32
	shared bool
}

// NewScopes creates an arena with optional capacity hint. Scopes of a shared
// arena carry the builtin-layer bit in their IDs.
func NewScopes(capacity uint32, shared bool) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{
		data:   make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
		shared: shared,
	}
}

// New allocates a new scope and returns its ID.
func (s *Scopes) New(kind ScopeKind, flags ScopeFlags, parent ScopeID, span source.Span) ScopeID {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		value, err := safecast.Conv[uint32](len(s.data))
		if err != nil {
			panic(fmt.Errorf("scopes arena overflow: %w", err))
		}
		index = value
		s.data = append(s.data, Scope{gen: 1})
	}
	slot := &s.data[index]
	*slot = Scope{
		Kind:      kind,
		Flags:     flags,
		Parent:    parent,
		Span:      span,
		NameIndex: make(map[source.StringID][]SymbolID),
		gen:       slot.gen,
		live:      true,
	}
	return makeScopeID(index, slot.gen, s.shared)
}

// Get returns the scope pointer or nil if the ID is invalid or stale.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || id.Shared() != s.shared {
		return nil
	}
	idx := id.index()
	if idx == 0 || int(idx) >= len(s.data) {
		return nil
	}
	scope := &s.data[idx]
	if !scope.live || scope.gen != id.generation() {
		return nil
	}
	return scope
}

// release frees the slot behind id. The caller clears children and symbols.
func (s *Scopes) release(id ScopeID) {
	scope := s.Get(id)
	if scope == nil {
		return
	}
	gen := scope.gen + 1
	if uint64(gen) > scopeGenMask {
		gen = 1
	}
	*scope = Scope{gen: gen}
	s.free = append(s.free, id.index())
}

// Len reports the number of live scopes.
func (s *Scopes) Len() int { return len(s.data) - 1 - len(s.free) }

// Each calls fn for every live scope in slot order.
func (s *Scopes) Each(fn func(ScopeID, *Scope)) {
	for idx := 1; idx < len(s.data); idx++ {
		scope := &s.data[idx]
		if !scope.live {
			continue
		}
		fn(makeScopeID(uint32(idx), scope.gen, s.shared), scope)
	}
}

// Symbols stores declared symbols in a compact arena. Symbols are never
// recycled; a released symbol becomes a tombstone.
type Symbols struct {
	data   []Symbol
	shared bool
}

// NewSymbols creates a symbol arena with optional capacity hint.
func NewSymbols(capacity uint32, shared bool) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{
		data:   make([]Symbol, 1, capacity+1), // index 0 reserved for NoSymbolID
		shared: shared,
	}
}

// New copies sym into the arena and returns its ID.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	if sym.Kind == SymbolInvalid {
		panic("symbols.New: symbol without kind")
	}
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil || value >= uint32(symbolSharedBit) {
		panic(fmt.Errorf("symbols arena overflow: %v", err))
	}
	id := SymbolID(value)
	if s.shared {
		id |= symbolSharedBit
	}
	s.data = append(s.data, *sym)
	return id
}

// Get returns a symbol pointer or nil for invalid or released IDs.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || id.Shared() != s.shared {
		return nil
	}
	idx := id.index()
	if idx == 0 || int(idx) >= len(s.data) {
		return nil
	}
	sym := &s.data[idx]
	if sym.Kind == SymbolInvalid {
		return nil
	}
	return sym
}

func (s *Symbols) release(id SymbolID) {
	if sym := s.Get(id); sym != nil {
		*sym = Symbol{}
	}
}

// Len reports number of stored symbols excluding sentinel, tombstones included.
func (s *Symbols) Len() int { return len(s.data) - 1 }
