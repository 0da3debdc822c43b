package symbols

import "fmt"

// ScopeID is a generation-checked handle to a scope in a Table arena.
//
// Layout: bits 0-31 slot index, bits 32-62 generation, bit 63 set for scopes
// that live in the shared builtin layer. A handle whose generation no longer
// matches its slot is stale and resolves to nothing.
type ScopeID uint64

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0

	scopeSharedBit = ScopeID(1) << 63
	scopeGenMask   = uint64(1)<<31 - 1
)

func makeScopeID(index, gen uint32, shared bool) ScopeID {
	id := ScopeID(uint64(gen)&scopeGenMask)<<32 | ScopeID(index)
	if shared {
		id |= scopeSharedBit
	}
	return id
}

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// Shared reports whether the scope lives in the builtin layer.
func (id ScopeID) Shared() bool { return id&scopeSharedBit != 0 }

func (id ScopeID) index() uint32 { return uint32(id) }

func (id ScopeID) generation() uint32 { return uint32(uint64(id>>32) & scopeGenMask) }

func (id ScopeID) String() string {
	if !id.IsValid() {
		return "scope#none"
	}
	prefix := "scope"
	if id.Shared() {
		prefix = "builtin"
	}
	return fmt.Sprintf("%s#%d.%d", prefix, id.index(), id.generation())
}

// SymbolID identifies a symbol inside a Table arena. Bit 31 marks symbols of
// the shared builtin layer.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0

	symbolSharedBit SymbolID = 1 << 31
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// Shared reports whether the symbol lives in the builtin layer.
func (id SymbolID) Shared() bool { return id&symbolSharedBit != 0 }

func (id SymbolID) index() uint32 { return uint32(id &^ symbolSharedBit) }
