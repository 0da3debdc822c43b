package ast

import (
	"shadec/internal/source"
	"shadec/internal/types"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena    *Arena[Expr]
	FuncRefs *Arena[ExprFuncRefData]
	VarRefs  *Arena[ExprVarRefData]
	Fields   *Arena[ExprFieldAccessData]
	TypeRefs *Arena[ExprTypeRefData]
}

// NewExprs creates per-kind arenas with capHint initial capacity (1<<8 when 0).
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		FuncRefs: NewArena[ExprFuncRefData](capHint),
		VarRefs:  NewArena[ExprVarRefData](capHint),
		Fields:   NewArena[ExprFieldAccessData](capHint),
		TypeRefs: NewArena[ExprTypeRefData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, typ types.TypeID, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Type:    typ,
		Payload: payload,
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// NewFuncRef creates a reference to a function overload set.
func (e *Exprs) NewFuncRef(span source.Span, fn SymbolRef) ExprID {
	payload := e.FuncRefs.Allocate(ExprFuncRefData{Func: fn})
	return e.new(ExprFuncRef, span, types.NoTypeID, PayloadID(payload))
}

// FuncRef returns the payload of a function reference.
func (e *Exprs) FuncRef(id ExprID) (*ExprFuncRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprFuncRef {
		return nil, false
	}
	return e.FuncRefs.Get(uint32(expr.Payload)), true
}

// NewVarRef creates a variable reference of the given type.
func (e *Exprs) NewVarRef(span source.Span, v SymbolRef, typ types.TypeID, kind RefKind) ExprID {
	payload := e.VarRefs.Allocate(ExprVarRefData{Var: v, RefKind: kind})
	return e.new(ExprVarRef, span, typ, PayloadID(payload))
}

// VarRef returns the payload of a variable reference.
func (e *Exprs) VarRef(id ExprID) (*ExprVarRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprVarRef {
		return nil, false
	}
	return e.VarRefs.Get(uint32(expr.Payload)), true
}

// SetRefKind retags a variable reference. Returns false for other nodes.
func (e *Exprs) SetRefKind(id ExprID, kind RefKind) bool {
	data, ok := e.VarRef(id)
	if !ok {
		return false
	}
	data.RefKind = kind
	return true
}

// NewFieldAccess creates base.<index>; typ is the selected member's type.
func (e *Exprs) NewFieldAccess(span source.Span, base ExprID, index int, owner OwnerKind, typ types.TypeID) ExprID {
	payload := e.Fields.Allocate(ExprFieldAccessData{Base: base, Index: index, Owner: owner})
	return e.new(ExprFieldAccess, span, typ, PayloadID(payload))
}

// FieldAccess returns the payload of a field access.
func (e *Exprs) FieldAccess(id ExprID) (*ExprFieldAccessData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprFieldAccess {
		return nil, false
	}
	return e.Fields.Get(uint32(expr.Payload)), true
}

// NewTypeRef creates a type-in-expression-position node.
func (e *Exprs) NewTypeRef(span source.Span, value types.TypeID) ExprID {
	payload := e.TypeRefs.Allocate(ExprTypeRefData{Value: value})
	return e.new(ExprTypeRef, span, types.NoTypeID, PayloadID(payload))
}

// TypeRef returns the payload of a type reference.
func (e *Exprs) TypeRef(id ExprID) (*ExprTypeRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTypeRef {
		return nil, false
	}
	return e.TypeRefs.Get(uint32(expr.Payload)), true
}
