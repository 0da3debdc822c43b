package driver

import (
	"fmt"

	"shadec/internal/ast"
	"shadec/internal/diag"
	"shadec/internal/source"
	"shadec/internal/symbols"
	"shadec/internal/types"
)

// walker feeds the declarations of one module to a resolver.
type walker struct {
	r        *symbols.Resolver
	reporter diag.Reporter
	refs     []ast.ExprID
}

func (w *walker) decls(ds []Decl) {
	for i := range ds {
		w.decl(&ds[i])
	}
}

func (w *walker) decl(d *Decl) {
	switch d.Kind {
	case DeclVar:
		if !w.named(d) {
			return
		}
		typ, ok := w.typeOf(d.Type, d.span)
		if !ok {
			return
		}
		w.r.Declare(symbols.NewVariable(w.r.Intern(d.Name), d.span, typ, 0))

	case DeclFn:
		w.function(d)

	case DeclStruct:
		if !w.named(d) {
			return
		}
		fields := make([]types.Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			typ, ok := w.typeOf(f.Type, f.span)
			if !ok {
				continue
			}
			fields = append(fields, types.Field{Name: w.r.Intern(f.Name), Type: typ})
		}
		name := w.r.Intern(d.Name)
		typ := w.r.Table().Types.New(types.MakeStruct(name, fields))
		w.r.Declare(symbols.NewType(name, d.span, typ))

	case DeclInterface:
		if !w.named(d) {
			return
		}
		members := make([]symbols.Member, 0, len(d.Fields))
		for _, f := range d.Fields {
			typ, ok := w.typeOf(f.Type, f.span)
			if !ok {
				continue
			}
			members = append(members, symbols.Member{Name: f.Name, Type: typ, Span: f.span})
		}
		w.r.DeclareInterfaceBlock(d.Name, members, d.span)

	case DeclBlock:
		scope := w.r.Enter(symbols.ScopeBlock, d.span)
		w.decls(d.Body)
		w.r.Leave(scope)

	case DeclRef:
		if !w.named(d) {
			return
		}
		expr := w.r.Reference(d.Name, d.span)
		if !expr.IsValid() {
			return
		}
		target := expr
		if access, ok := w.r.Exprs().FieldAccess(expr); ok {
			target = access.Base
		}
		if d.Write && !w.r.Exprs().SetRefKind(target, ast.RefWrite) {
			diag.ReportError(w.reporter, diag.SemaBadDeclaration, d.span,
				fmt.Sprintf("'%s' is not assignable", d.Name)).Emit()
		}
		w.refs = append(w.refs, expr)

	case DeclRename:
		if !w.named(d) {
			return
		}
		if d.To == "" {
			w.bad(d.span, "rename of '%s' has no target name", d.Name)
			return
		}
		id, ok := w.r.Lookup(d.Name)
		if !ok {
			diag.ReportError(w.reporter, diag.SemaUnresolvedSymbol, d.span,
				fmt.Sprintf("unknown identifier '%s'", d.Name)).Emit()
			return
		}
		w.r.Rename(id, d.To, d.span)

	default:
		w.bad(d.span, "unknown declaration kind %q", d.Kind)
	}
}

func (w *walker) function(d *Decl) {
	if !w.named(d) {
		return
	}
	resultName := d.Type
	if resultName == "" {
		resultName = "void"
	}
	result, ok := w.typeOf(resultName, d.span)
	if !ok {
		return
	}
	params := make([]types.TypeID, len(d.Params))
	for i, p := range d.Params {
		typ, ok := w.typeOf(p.Type, p.span)
		if !ok {
			return
		}
		params[i] = typ
	}
	if _, ok := w.r.Declare(symbols.NewFunction(w.r.Intern(d.Name), d.span, result, params)); !ok {
		return
	}

	scope := w.r.Enter(symbols.ScopeFunction, d.span)
	for i, p := range d.Params {
		if p.Name == "" {
			continue
		}
		w.r.Declare(symbols.NewVariable(w.r.Intern(p.Name), p.span, params[i], symbols.SymbolFlagParameter))
	}
	w.decls(d.Body)
	w.r.Leave(scope)
}

// typeOf resolves a type expression such as "float[4][]".
func (w *walker) typeOf(expr string, span source.Span) (types.TypeID, bool) {
	base, dims, err := parseTypeExpr(expr)
	if err != nil {
		w.bad(span, "%v", err)
		return types.NoTypeID, false
	}
	typ, ok := w.r.LookupType(base, span)
	if !ok {
		return types.NoTypeID, false
	}
	for _, size := range dims {
		if size == 0 {
			diag.ReportError(w.reporter, diag.SemaBadArraySize, span,
				fmt.Sprintf("array size must be positive in '%s'", expr)).Emit()
			return types.NoTypeID, false
		}
		typ = w.r.ArrayOf(typ, size, span)
		if typ == types.NoTypeID {
			return types.NoTypeID, false
		}
	}
	return typ, true
}

func (w *walker) named(d *Decl) bool {
	if d.Name != "" {
		return true
	}
	w.bad(d.span, "%s declaration without a name", d.Kind)
	return false
}

func (w *walker) bad(span source.Span, format string, args ...any) {
	diag.ReportError(w.reporter, diag.SemaBadDeclaration, span, fmt.Sprintf(format, args...)).Emit()
}
