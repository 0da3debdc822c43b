package ast

import (
	"testing"

	"shadec/internal/source"
	"shadec/internal/types"
)

func TestFieldAccessOverVarRef(t *testing.T) {
	e := NewExprs(0)
	span := source.Span{File: 1, Start: 3, End: 4}
	base := e.NewVarRef(span, SymbolRef(7), types.TypeID(11), RefRead)
	fa := e.NewFieldAccess(span, base, 2, OwnerAnonymousInterfaceBlock, types.TypeID(4))

	data, ok := e.FieldAccess(fa)
	if !ok {
		t.Fatalf("expected field access payload")
	}
	if data.Base != base || data.Index != 2 || data.Owner != OwnerAnonymousInterfaceBlock {
		t.Fatalf("unexpected payload %+v", data)
	}
	if got := e.Get(fa).Type; got != types.TypeID(4) {
		t.Fatalf("field access type = %d", got)
	}
	if _, ok := e.VarRef(fa); ok {
		t.Fatalf("VarRef accepted a field access node")
	}
}

func TestSetRefKindRetagsOnlyVarRefs(t *testing.T) {
	e := NewExprs(4)
	v := e.NewVarRef(source.Span{}, SymbolRef(1), types.NoTypeID, RefRead)
	if !e.SetRefKind(v, RefWrite) {
		t.Fatalf("retag failed")
	}
	if data, _ := e.VarRef(v); data.RefKind != RefWrite {
		t.Fatalf("ref kind = %s", data.RefKind)
	}
	ty := e.NewTypeRef(source.Span{}, types.TypeID(3))
	if e.SetRefKind(ty, RefWrite) {
		t.Fatalf("type reference must not accept a ref kind")
	}
	if e.Get(NoExprID) != nil {
		t.Fatalf("NoExprID must resolve to nil")
	}
}

func TestFuncRefPayload(t *testing.T) {
	e := NewExprs(0)
	id := e.NewFuncRef(source.Span{Start: 1, End: 2}, SymbolRef(5))
	data, ok := e.FuncRef(id)
	if !ok || data.Func != SymbolRef(5) {
		t.Fatalf("unexpected func ref %+v %v", data, ok)
	}
	if e.Get(id).Kind.String() != "func-ref" {
		t.Fatalf("kind string: %s", e.Get(id).Kind)
	}
}
