package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"shadec/internal/source"
	"shadec/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
//
// A Table is either a shared layer (the builtin universe, frozen after
// bootstrap and safe for concurrent reads) or a compilation layer forked on
// top of one. IDs carry the layer they belong to, so a compilation may bind,
// look up and chain builtin symbols without copying them.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Types   *types.Interner

	base   *Table
	frozen bool
}

// NewTable builds a standalone writable table with fresh interners.
func NewTable(h Hints) *Table {
	return newTable(h, false, source.NewInterner(), types.NewInterner(), nil)
}

func newTable(h Hints, shared bool, strings *source.Interner, typs *types.Interner, base *Table) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	return &Table{
		Scopes:  NewScopes(scopeCap, shared),
		Symbols: NewSymbols(symCap, shared),
		Strings: strings,
		Types:   typs,
		base:    base,
	}
}

// Freeze makes the table and its interners read-only.
func (t *Table) Freeze() {
	t.frozen = true
	t.Strings.Freeze()
	t.Types.Freeze()
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool { return t.frozen }

// Shared reports whether the table is a shared builtin layer.
func (t *Table) Shared() bool { return t.Scopes.shared }

// Base returns the shared layer a compilation table was forked from.
func (t *Table) Base() *Table { return t.base }

// Fork returns a writable compilation layer over a frozen shared table.
// Forks of one base never observe each other.
func (t *Table) Fork(h Hints) *Table {
	if !t.frozen || !t.Shared() {
		panic("symbols: Fork requires a frozen shared table")
	}
	return newTable(h, false, t.Strings.Fork(), t.Types.Fork(), t)
}

func (t *Table) layer(shared bool) *Table {
	if shared == t.Shared() {
		return t
	}
	if shared {
		return t.base
	}
	return nil
}

// Scope returns the scope for id, or nil for unknown or stale handles.
func (t *Table) Scope(id ScopeID) *Scope {
	l := t.layer(id.Shared())
	if l == nil {
		return nil
	}
	return l.Scopes.Get(id)
}

// Symbol returns the symbol for id, or nil for unknown or released IDs.
func (t *Table) Symbol(id SymbolID) *Symbol {
	l := t.layer(id.Shared())
	if l == nil {
		return nil
	}
	return l.Symbols.Get(id)
}

// Name returns the textual name of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbol(id)
	if sym == nil {
		return ""
	}
	return t.Strings.MustLookup(sym.Name)
}

// ReadOnly reports whether scope id cannot be mutated through this table.
func (t *Table) ReadOnly(id ScopeID) bool {
	return t.frozen || id.Shared() != t.Shared()
}

func (t *Table) mutableScope(id ScopeID) *Scope {
	if t.ReadOnly(id) {
		panic(fmt.Sprintf("symbols: %s is read-only", id))
	}
	scope := t.Scopes.Get(id)
	if scope == nil {
		panic(fmt.Sprintf("symbols: stale or unknown %s", id))
	}
	return scope
}

// NewScope allocates a scope under parent. Parent may live in the shared
// layer; only parents of this layer record the child.
func (t *Table) NewScope(kind ScopeKind, flags ScopeFlags, parent ScopeID, span source.Span) ScopeID {
	if t.frozen {
		panic("symbols: NewScope on a frozen table")
	}
	if parent.IsValid() && t.Scope(parent) == nil {
		panic(fmt.Sprintf("symbols: NewScope under stale %s", parent))
	}
	id := t.Scopes.New(kind, flags, parent, span)
	if !t.ReadOnly(parent) {
		if p := t.Scopes.Get(parent); p != nil {
			p.Children = append(p.Children, id)
		}
	}
	return id
}

// NewModule allocates the top scope of a compiled module. Module scopes are
// always module boundaries.
func (t *Table) NewModule(name string, parent ScopeID, span source.Span) ScopeID {
	id := t.NewScope(ScopeModule, ScopeFlagModuleBoundary, parent, span)
	t.Scopes.Get(id).Name = name
	return id
}

// Discard releases a scope together with its descendants and owned symbols.
// Every handle to a released scope goes stale.
func (t *Table) Discard(id ScopeID) {
	scope := t.mutableScope(id)
	for _, child := range slices.Clone(scope.Children) {
		if t.Scopes.Get(child) != nil {
			t.Discard(child)
		}
	}
	if !t.ReadOnly(scope.Parent) {
		if p := t.Scopes.Get(scope.Parent); p != nil {
			p.Children = slices.DeleteFunc(p.Children, func(c ScopeID) bool { return c == id })
		}
	}
	for _, sym := range scope.Owned {
		t.Symbols.release(sym)
	}
	t.Scopes.release(id)
}

// local returns the live binding of key in scope. A slot whose head symbol
// was released behaves as absent.
func (t *Table) local(scope *Scope, key source.StringID) []SymbolID {
	seq := scope.NameIndex[key]
	if len(seq) == 0 || t.Symbol(seq[0]) == nil {
		return nil
	}
	return seq
}

// lookup walks the chain from scopeID and returns the nearest binding of key
// with the scope that holds it.
func (t *Table) lookup(scopeID ScopeID, key source.StringID) ([]SymbolID, ScopeID) {
	for scopeID.IsValid() {
		scope := t.Scope(scopeID)
		if scope == nil {
			break
		}
		if seq := t.local(scope, key); seq != nil {
			return seq, scopeID
		}
		scopeID = scope.Parent
	}
	return nil, NoScopeID
}

// Find resolves name in scope and its ancestors. For overloaded functions the
// most recent declaration is returned.
func (t *Table) Find(scope ScopeID, name source.StringID) (SymbolID, bool) {
	if name == source.NoStringID {
		return NoSymbolID, false
	}
	seq, _ := t.lookup(scope, name)
	if len(seq) == 0 {
		return NoSymbolID, false
	}
	return seq[0], true
}

// FindString is Find keyed by text. Names never interned cannot be bound.
func (t *Table) FindString(scope ScopeID, name string) (SymbolID, bool) {
	key, ok := t.Strings.Find(name)
	if !ok {
		return NoSymbolID, false
	}
	return t.Find(scope, key)
}

// Overloads returns the overload sequence visible under name, most recent
// declaration first. Non-function bindings yield a single element.
func (t *Table) Overloads(scope ScopeID, name source.StringID) []SymbolID {
	seq, _ := t.lookup(scope, name)
	return slices.Clone(seq)
}

// IsType reports whether name resolves to a type.
func (t *Table) IsType(scope ScopeID, name source.StringID) bool {
	id, ok := t.Find(scope, name)
	return ok && t.Symbol(id).Kind == SymbolType
}

// IsBuiltinType reports whether name is a type once lookup starts at the
// nearest builtin scope, ignoring any local shadowing.
func (t *Table) IsBuiltinType(scope ScopeID, name source.StringID) bool {
	builtin := t.nearestBuiltin(scope)
	return builtin.IsValid() && t.IsType(builtin, name)
}

// FindBuiltinSymbol looks name up starting at the nearest builtin scope, so
// user declarations are skipped and builtin parent modules are consulted.
func (t *Table) FindBuiltinSymbol(scope ScopeID, name source.StringID) (SymbolID, bool) {
	builtin := t.nearestBuiltin(scope)
	if !builtin.IsValid() {
		return NoSymbolID, false
	}
	return t.Find(builtin, name)
}

func (t *Table) nearestBuiltin(scopeID ScopeID) ScopeID {
	for scopeID.IsValid() {
		scope := t.Scope(scopeID)
		if scope == nil {
			return NoScopeID
		}
		if scope.Builtin() {
			return scopeID
		}
		scopeID = scope.Parent
	}
	return NoScopeID
}

// WouldShadowSymbolsFrom reports whether a and b bind any common name
// directly. Ancestors are not consulted.
func (t *Table) WouldShadowSymbolsFrom(a, b ScopeID) bool {
	sa, sb := t.Scope(a), t.Scope(b)
	if sa == nil || sb == nil {
		return false
	}
	if len(sa.NameIndex) > len(sb.NameIndex) {
		sa, sb = sb, sa
	}
	for key := range sa.NameIndex {
		if t.local(sa, key) != nil && t.local(sb, key) != nil {
			return true
		}
	}
	return false
}

// Count returns the number of names bound directly in scope.
func (t *Table) Count(scope ScopeID) int {
	s := t.Scope(scope)
	if s == nil {
		return 0
	}
	return s.Count()
}

// TakeOwnershipOfString interns str on behalf of scope. The returned ID
// resolves to the same text for the lifetime of the table.
func (t *Table) TakeOwnershipOfString(scope ScopeID, str string) source.StringID {
	s := t.mutableScope(scope)
	id := t.Strings.Intern(str)
	s.Strings = append(s.Strings, id)
	return id
}
