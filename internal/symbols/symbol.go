package symbols

import (
	"fmt"

	"shadec/internal/source"
	"shadec/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol. The set is closed:
// symbols are only built through the New* constructors below.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolType
	SymbolVariable
	SymbolFunction
	SymbolField
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolType:
		return "type"
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolField:
		return "field"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	SymbolFlagBuiltin SymbolFlags = 1 << iota
	SymbolFlagParameter
	// SymbolFlagInterfaceBlock marks the variable behind an anonymous
	// interface block.
	SymbolFlagInterfaceBlock
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 3)
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	if f&SymbolFlagParameter != 0 {
		labels = append(labels, "parameter")
	}
	if f&SymbolFlagInterfaceBlock != 0 {
		labels = append(labels, "interface-block")
	}
	return labels
}

// FieldRef locates a field symbol inside its owner's aggregate type.
type FieldRef struct {
	Owner SymbolID // the Variable whose type holds the field
	Index int
}

// Symbol describes a named entity available in a scope.
//
// Type depends on Kind: the type itself for SymbolType, the declared type for
// variables and fields, the return type for functions.
type Symbol struct {
	Name   source.StringID
	Kind   SymbolKind
	Span   source.Span
	Flags  SymbolFlags
	Type   types.TypeID
	Params []types.TypeID // functions only
	Field  FieldRef       // fields only
	// Owner is the scope that owns the symbol's storage. Symbols inserted
	// with AddWithoutOwnership keep their original owner.
	Owner ScopeID
}

// NewType declares a type name.
func NewType(name source.StringID, span source.Span, typ types.TypeID) *Symbol {
	return &Symbol{Name: name, Kind: SymbolType, Span: span, Type: typ}
}

// NewVariable declares a variable or parameter. A NoStringID name is allowed
// for anonymous parameters.
func NewVariable(name source.StringID, span source.Span, typ types.TypeID, flags SymbolFlags) *Symbol {
	return &Symbol{Name: name, Kind: SymbolVariable, Span: span, Type: typ, Flags: flags}
}

// NewFunction declares one overload of a function.
func NewFunction(name source.StringID, span source.Span, result types.TypeID, params []types.TypeID) *Symbol {
	return &Symbol{Name: name, Kind: SymbolFunction, Span: span, Type: result, Params: params}
}

// NewField declares a bare member name that resolves to owner.<index>.
func NewField(name source.StringID, span source.Span, owner SymbolID, index int, typ types.TypeID) *Symbol {
	return &Symbol{Name: name, Kind: SymbolField, Span: span, Type: typ, Field: FieldRef{Owner: owner, Index: index}}
}

// SymbolVisitor receives one call per symbol variant. Implementations must
// handle every variant, so adding a kind breaks every visitor at compile
// time instead of failing at run time.
type SymbolVisitor interface {
	VisitType(id SymbolID, sym *Symbol)
	VisitVariable(id SymbolID, sym *Symbol)
	VisitFunction(id SymbolID, sym *Symbol)
	VisitField(id SymbolID, sym *Symbol)
}

// Accept dispatches sym to the matching visitor method.
func (s *Symbol) Accept(id SymbolID, v SymbolVisitor) {
	switch s.Kind {
	case SymbolType:
		v.VisitType(id, s)
	case SymbolVariable:
		v.VisitVariable(id, s)
	case SymbolFunction:
		v.VisitFunction(id, s)
	case SymbolField:
		v.VisitField(id, s)
	default:
		// only reachable through a hand-built Symbol literal
		panic(fmt.Sprintf("symbols: unsupported symbol kind %d", s.Kind))
	}
}
