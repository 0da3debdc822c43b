package symbols

import (
	"fmt"

	"shadec/internal/ast"
	"shadec/internal/diag"
	"shadec/internal/source"
	"shadec/internal/trace"
	"shadec/internal/types"
)

// ResolverOptions configures resolver construction.
type ResolverOptions struct {
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// Exprs receives reference nodes built by Reference. When nil the resolver
	// allocates its own.
	Exprs *ast.Exprs
}

// Resolver drives scope management and declaration/lookup routines on top of
// a Table, turning insertion outcomes into diagnostics.
type Resolver struct {
	table                 *Table
	reporter              diag.Reporter
	tracer                trace.Tracer
	exprs                 *ast.Exprs
	stack                 []ScopeID
	scopeMismatchReported map[ScopeID]bool
}

// NewResolver wires a resolver to an existing scope stack. If root is valid it
// becomes the current scope; otherwise scope-sensitive operations are no-ops.
func NewResolver(table *Table, root ScopeID, opts ResolverOptions) *Resolver {
	r := &Resolver{
		table:                 table,
		reporter:              opts.Reporter,
		tracer:                opts.Tracer,
		exprs:                 opts.Exprs,
		stack:                 make([]ScopeID, 0, 8),
		scopeMismatchReported: make(map[ScopeID]bool),
	}
	if r.tracer == nil {
		r.tracer = trace.Nop
	}
	if r.exprs == nil {
		r.exprs = ast.NewExprs(0)
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table { return r.table }

// Exprs returns the arena reference nodes are allocated in.
func (r *Resolver) Exprs() *ast.Exprs { return r.exprs }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Depth reports how many scopes are on the stack.
func (r *Resolver) Depth() int { return len(r.stack) }

// Enter creates a child scope, pushes it onto the stack, and returns its ID.
func (r *Resolver) Enter(kind ScopeKind, span source.Span) ScopeID {
	parent := r.CurrentScope()
	scope := r.table.NewScope(kind, 0, parent, span)
	r.stack = append(r.stack, scope)
	trace.Point(r.tracer, trace.ScopeNode, "scope.enter", fmt.Sprintf("%s %s", kind, scope))
	return scope
}

// Leave pops the current scope, validating against the expected one. In debug
// builds a mismatch triggers panic; release builds emit a warning diagnostic.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		debugScopeMismatch(expected, top)
		r.reportScopeMismatch(expected, top)
	}
	r.stack = r.stack[:len(r.stack)-1]
	trace.Point(r.tracer, trace.ScopeNode, "scope.leave", fmt.Sprintf("%s bindings=%d", top, r.table.Count(top)))
}

// Declare adds sym to the current scope and reports conflicts. Returns false
// if there is no active scope or the declaration was rejected.
func (r *Resolver) Declare(sym *Symbol) (SymbolID, bool) {
	scope := r.CurrentScope()
	if !scope.IsValid() {
		return NoSymbolID, false
	}
	res := r.table.Add(scope, sym)
	r.reportAdd(res)
	return res.Symbol, res.Kind != AddRejected
}

// Alias binds a symbol owned by another scope into the current one.
func (r *Resolver) Alias(id SymbolID) bool {
	scope := r.CurrentScope()
	if !scope.IsValid() {
		return false
	}
	res := r.table.AddWithoutOwnership(scope, id)
	r.reportAdd(res)
	return res.Kind != AddRejected
}

// Member is one field of an interface block.
type Member struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// DeclareInterfaceBlock declares an interface block without an instance name:
// the block type, a nameless variable of that type and one field symbol per
// member, so that members resolve as bare names. Returns the variable.
func (r *Resolver) DeclareInterfaceBlock(typeName string, members []Member, span source.Span) (SymbolID, bool) {
	scope := r.CurrentScope()
	if !scope.IsValid() {
		return NoSymbolID, false
	}
	fields := make([]types.Field, len(members))
	for i, m := range members {
		fields[i] = types.Field{Name: r.Intern(m.Name), Type: m.Type}
	}
	desc := types.MakeStruct(r.Intern(typeName), fields)
	desc.Flags |= types.FlagAnonymous
	blockType := r.table.Types.New(desc)
	if _, ok := r.Declare(NewType(desc.Name, span, blockType)); !ok {
		return NoSymbolID, false
	}
	owner, _ := r.Declare(NewVariable(source.NoStringID, span, blockType, SymbolFlagInterfaceBlock))
	ok := true
	for i, m := range members {
		if _, declared := r.Declare(NewField(fields[i].Name, m.Span, owner, i, m.Type)); !declared {
			ok = false
		}
	}
	return owner, ok
}

// Intern returns the key for name, interning it into the table.
func (r *Resolver) Intern(name string) source.StringID {
	return r.table.Strings.Intern(name)
}

// Lookup walks the scope chain searching for a symbol with the given name.
func (r *Resolver) Lookup(name string) (SymbolID, bool) {
	return r.table.FindString(r.CurrentScope(), name)
}

// LookupType resolves name to a type, reporting unknown names and names that
// denote something else.
func (r *Resolver) LookupType(name string, span source.Span) (types.TypeID, bool) {
	id, ok := r.Lookup(name)
	if !ok {
		diag.ReportError(r.reporter, diag.SemaUnresolvedSymbol, span,
			fmt.Sprintf("unknown identifier '%s'", name)).Emit()
		return types.NoTypeID, false
	}
	sym := r.table.Symbol(id)
	if sym.Kind != SymbolType {
		diag.ReportError(r.reporter, diag.SemaNotAType, span,
			fmt.Sprintf("'%s' is a %s, not a type", name, sym.Kind)).
			WithNote(sym.Span, "declared here").
			Emit()
		return types.NoTypeID, false
	}
	return sym.Type, true
}

// Rename moves the symbol (or its whole overload set) to newName in the
// current scope. span locates the request.
func (r *Resolver) Rename(id SymbolID, newName string, span source.Span) bool {
	scope := r.CurrentScope()
	sym := r.table.Symbol(id)
	if !scope.IsValid() || sym == nil {
		return false
	}
	if id.Shared() != r.table.Shared() {
		diag.ReportError(r.reporter, diag.SemaBadDeclaration, span,
			fmt.Sprintf("built-in '%s' cannot be renamed", r.table.Name(id))).
			WithNote(sym.Span, "built-in declaration here").
			Emit()
		return false
	}
	res := r.table.RenameSymbol(scope, id, r.Intern(newName))
	r.reportAdd(res)
	return res.Kind != AddRejected
}

// ArrayOf returns the array type elem[size] seen from the current scope.
func (r *Resolver) ArrayOf(elem types.TypeID, size int32, span source.Span) types.TypeID {
	if size != 0 && !types.ValidArraySize(size) {
		diag.ReportError(r.reporter, diag.SemaBadArraySize, span,
			fmt.Sprintf("array size must be positive, got %d", size)).Emit()
		return types.NoTypeID
	}
	typ, res := r.table.AddArrayDimension(r.CurrentScope(), elem, size)
	r.reportAdd(res)
	return typ
}

// Reference builds the expression for a use of name at span.
func (r *Resolver) Reference(name string, span source.Span) ast.ExprID {
	return r.table.InstantiateSymbolRef(Context{
		Reporter: r.reporter,
		Exprs:    r.exprs,
	}, r.CurrentScope(), name, span)
}

// CheckShadow warns when the current scope and other bind a common name.
func (r *Resolver) CheckShadow(other ScopeID, span source.Span) bool {
	current := r.CurrentScope()
	if !r.table.WouldShadowSymbolsFrom(current, other) {
		return false
	}
	msg := "declarations shadow names of the parent module"
	if s := r.table.Scope(other); s != nil && s.Name != "" {
		msg = fmt.Sprintf("declarations shadow names of module '%s'", s.Name)
	}
	diag.ReportWarning(r.reporter, diag.SemaShadowSymbol, span, msg).Emit()
	return true
}

func (r *Resolver) reportAdd(res AddResult) {
	if !res.Conflict() || r.reporter == nil {
		return
	}
	sym := r.table.Symbol(res.Symbol)
	prev := r.table.Symbol(res.Previous)
	if sym == nil || prev == nil {
		return
	}
	msg := fmt.Sprintf("symbol '%s' was already defined", r.table.Strings.MustLookup(prev.Name))
	noteMsg := "previous declaration here"
	if prev.Flags&SymbolFlagBuiltin != 0 {
		noteMsg = "built-in declaration here"
	}
	diag.ReportError(r.reporter, diag.SemaDuplicateSymbol, sym.Span, msg).
		WithNote(prev.Span, noteMsg).
		Emit()
}

func (r *Resolver) reportScopeMismatch(expected, actual ScopeID) {
	if r.reporter == nil {
		return
	}
	if actual.IsValid() && r.scopeMismatchReported[actual] {
		return
	}
	if actual.IsValid() {
		r.scopeMismatchReported[actual] = true
	}

	var primary source.Span
	actualLabel := actual.String()
	if scope := r.table.Scope(actual); scope != nil {
		primary = scope.Span
		actualLabel = fmt.Sprintf("%s %s", scope.Kind, actual)
	}

	expectedLabel := "unknown scope"
	expectedScope := r.table.Scope(expected)
	if expectedScope != nil {
		expectedLabel = fmt.Sprintf("%s %s", expectedScope.Kind, expected)
	}

	msg := fmt.Sprintf("scope stack mismatch: closing %s while expecting %s", actualLabel, expectedLabel)
	builder := diag.ReportWarning(r.reporter, diag.SemaScopeMismatch, primary, msg)
	if expectedScope != nil {
		builder.WithNote(expectedScope.Span, "expected scope declared here")
	}
	builder.Emit()
}
