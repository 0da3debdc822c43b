package symbols

import (
	"fmt"

	"shadec/internal/ast"
	"shadec/internal/diag"
	"shadec/internal/source"
	"shadec/internal/types"
)

// Context bundles the collaborators needed to turn a name into an expression.
// Types defaults to the table's interner when nil.
type Context struct {
	Reporter diag.Reporter
	Exprs    *ast.Exprs
	Types    *types.Interner
}

// SymbolRefOf converts a symbol handle into the opaque form stored in nodes.
func SymbolRefOf(id SymbolID) ast.SymbolRef { return ast.SymbolRef(id) }

// SymbolOfRef is the inverse of SymbolRefOf.
func SymbolOfRef(ref ast.SymbolRef) SymbolID { return SymbolID(ref) }

// InstantiateSymbolRef resolves name from scope and builds the reference
// expression for it at span. An unknown name is reported once and yields
// ast.NoExprID.
func (t *Table) InstantiateSymbolRef(ctx Context, scope ScopeID, name string, span source.Span) ast.ExprID {
	id, ok := t.FindString(scope, name)
	if !ok {
		diag.ReportError(ctx.Reporter, diag.SemaUnresolvedSymbol, span,
			fmt.Sprintf("unknown identifier '%s'", name)).Emit()
		return ast.NoExprID
	}
	if ctx.Types == nil {
		ctx.Types = t.Types
	}
	b := refBuilder{table: t, ctx: ctx, span: span}
	t.Symbol(id).Accept(id, &b)
	return b.out
}

type refBuilder struct {
	table *Table
	ctx   Context
	span  source.Span
	out   ast.ExprID
}

func (b *refBuilder) VisitFunction(id SymbolID, _ *Symbol) {
	b.out = b.ctx.Exprs.NewFuncRef(b.span, SymbolRefOf(id))
}

func (b *refBuilder) VisitVariable(id SymbolID, sym *Symbol) {
	b.out = b.ctx.Exprs.NewVarRef(b.span, SymbolRefOf(id), sym.Type, ast.RefRead)
}

func (b *refBuilder) VisitField(_ SymbolID, sym *Symbol) {
	owner := b.table.mustSymbol(sym.Field.Owner)
	base := b.ctx.Exprs.NewVarRef(b.span, SymbolRefOf(sym.Field.Owner), owner.Type, ast.RefRead)
	typ := sym.Type
	if typ == types.NoTypeID {
		if agg, ok := b.ctx.Types.Lookup(owner.Type); ok && sym.Field.Index < len(agg.Fields) {
			typ = agg.Fields[sym.Field.Index].Type
		}
	}
	b.out = b.ctx.Exprs.NewFieldAccess(b.span, base, sym.Field.Index, ast.OwnerAnonymousInterfaceBlock, typ)
}

func (b *refBuilder) VisitType(_ SymbolID, sym *Symbol) {
	b.out = b.ctx.Exprs.NewTypeRef(b.span, sym.Type)
}
