package symbols

import (
	"shadec/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeBuiltin            // builtin module, frozen after bootstrap
	ScopeModule             // top level of one compiled module
	ScopeFunction           // function parameters and body
	ScopeBlock              // generic block scope
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// ScopeFlags tune insertion policy.
type ScopeFlags uint8

const (
	// ScopeFlagBuiltin marks scopes seeded at bootstrap and shared read-only.
	ScopeFlagBuiltin ScopeFlags = 1 << iota
	// ScopeFlagModuleBoundary marks the outermost scope of one compiled unit:
	// names already bound by an ancestor are rejected and array types of
	// builtin elements stop hoisting here.
	ScopeFlagModuleBoundary
)

// Scope models a lexical scope with a parent-child hierarchy.
//
// NameIndex holds one slot per name. A slot has exactly one symbol, except for
// functions where it holds the overload set, most recent declaration first.
type Scope struct {
	Kind      ScopeKind
	Flags     ScopeFlags
	Name      string // module name, empty for nested scopes
	Parent    ScopeID
	Span      source.Span
	NameIndex map[source.StringID][]SymbolID
	Owned     []SymbolID        // symbols whose storage this scope owns
	Strings   []source.StringID // generated names owned by this scope
	Children  []ScopeID

	gen  uint32
	live bool
}

// Builtin reports whether the scope belongs to the builtin universe.
func (s *Scope) Builtin() bool { return s.Flags&ScopeFlagBuiltin != 0 }

// ModuleBoundary reports whether the scope is the top of a compiled unit.
func (s *Scope) ModuleBoundary() bool { return s.Flags&ScopeFlagModuleBoundary != 0 }

// Count returns the number of names bound directly in the scope.
func (s *Scope) Count() int { return len(s.NameIndex) }
