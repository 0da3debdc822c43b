package ast

import (
	"shadec/internal/source"
	"shadec/internal/types"
)

// ExprKind enumerates the reference expressions produced by name resolution.
type ExprKind uint8

const (
	// ExprFuncRef names a function overload set.
	ExprFuncRef ExprKind = iota + 1
	// ExprVarRef reads or writes a variable.
	ExprVarRef
	// ExprFieldAccess selects a member of an aggregate.
	ExprFieldAccess
	// ExprTypeRef names a type in expression position.
	ExprTypeRef
)

func (k ExprKind) String() string {
	switch k {
	case ExprFuncRef:
		return "func-ref"
	case ExprVarRef:
		return "var-ref"
	case ExprFieldAccess:
		return "field-access"
	case ExprTypeRef:
		return "type-ref"
	default:
		return "invalid"
	}
}

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Type    types.TypeID
	Payload PayloadID
}

// RefKind describes how a variable reference uses its variable. References
// start as RefRead and are retagged once assignment analysis knows better.
type RefKind uint8

const (
	RefRead RefKind = iota
	RefWrite
	RefReadWrite
	// RefPointer is used for out-parameters passed by address.
	RefPointer
)

func (k RefKind) String() string {
	switch k {
	case RefRead:
		return "read"
	case RefWrite:
		return "write"
	case RefReadWrite:
		return "readwrite"
	case RefPointer:
		return "pointer"
	default:
		return "invalid"
	}
}

// OwnerKind tells how the base of a field access was written.
type OwnerKind uint8

const (
	// OwnerDefault is an explicit base.field access.
	OwnerDefault OwnerKind = iota
	// OwnerAnonymousInterfaceBlock is a bare member name of an interface
	// block declared without an instance name.
	OwnerAnonymousInterfaceBlock
)

// ExprFuncRefData references a function declaration.
type ExprFuncRefData struct {
	Func SymbolRef
}

// ExprVarRefData references a variable.
type ExprVarRefData struct {
	Var     SymbolRef
	RefKind RefKind
}

// ExprFieldAccessData selects field Index of Base.
type ExprFieldAccessData struct {
	Base  ExprID
	Index int
	Owner OwnerKind
}

// ExprTypeRefData names a type.
type ExprTypeRefData struct {
	Value types.TypeID
}
