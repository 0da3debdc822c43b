package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"shadec/internal/source"
	"shadec/internal/types"
)

type fixture struct {
	table *Table
	root  ScopeID
	float types.TypeID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	table := NewTable(Hints{})
	root := table.NewModule("main", NoScopeID, source.Span{File: 1})
	float := table.Types.Intern(types.Type{
		Kind:  types.KindFloat,
		Name:  table.Strings.Intern("float"),
		Flags: types.FlagBuiltin,
	})
	return fixture{table: table, root: root, float: float}
}

func (f fixture) name(s string) source.StringID { return f.table.Strings.Intern(s) }

func (f fixture) variable(s string, pos uint32) *Symbol {
	return NewVariable(f.name(s), source.At(1, pos), f.float, 0)
}

func (f fixture) function(s string, pos uint32) *Symbol {
	return NewFunction(f.name(s), source.At(1, pos), f.float, []types.TypeID{f.float})
}

func TestFindMissesUnknownNamesEverywhere(t *testing.T) {
	f := newFixture(t)
	block := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	inner := f.table.NewScope(ScopeBlock, 0, block, source.Span{})
	f.table.Add(f.root, f.variable("a", 1))
	f.table.Add(inner, f.variable("b", 2))

	missing := f.name("never")
	for _, scope := range []ScopeID{f.root, block, inner} {
		if id, ok := f.table.Find(scope, missing); ok {
			t.Fatalf("Find(%s) = %d for a name never declared", scope, id)
		}
	}
	if _, ok := f.table.FindString(inner, "not-even-interned"); ok {
		t.Fatalf("FindString resolved a string the table never saw")
	}
}

func TestFindVisibleFromDescendantsOnly(t *testing.T) {
	f := newFixture(t)
	fn := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	left := f.table.NewScope(ScopeBlock, 0, fn, source.Span{})
	leftChild := f.table.NewScope(ScopeBlock, 0, left, source.Span{})
	right := f.table.NewScope(ScopeBlock, 0, fn, source.Span{})

	res := f.table.Add(left, f.variable("a", 1))
	if res.Kind != AddInserted {
		t.Fatalf("expected insert, got %s", res.Kind)
	}
	for _, scope := range []ScopeID{left, leftChild} {
		if id, ok := f.table.Find(scope, f.name("a")); !ok || id != res.Symbol {
			t.Fatalf("Find from %s = %d %v, want %d", scope, id, ok, res.Symbol)
		}
	}
	for _, scope := range []ScopeID{right, fn, f.root} {
		if _, ok := f.table.Find(scope, f.name("a")); ok {
			t.Fatalf("name leaked into %s", scope)
		}
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestOverloadChainOrder(t *testing.T) {
	f := newFixture(t)
	const n = 5
	var want []SymbolID
	for i := range n {
		res := f.table.Add(f.root, f.function("blend", uint32(i)))
		if i == 0 && res.Kind != AddInserted {
			t.Fatalf("first overload: %s", res.Kind)
		}
		if i > 0 && (res.Kind != AddChained || res.Previous != want[0]) {
			t.Fatalf("overload %d: %+v", i, res)
		}
		want = append([]SymbolID{res.Symbol}, want...)
	}
	got := f.table.Overloads(f.root, f.name("blend"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("overload order mismatch (-want +got):\n%s", diff)
	}
	seen := make(map[SymbolID]bool)
	for _, id := range got {
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct overloads, got %d", n, len(seen))
	}
	if f.table.Count(f.root) != 1 {
		t.Fatalf("overloads share one binding, Count = %d", f.table.Count(f.root))
	}
}

func TestOverloadChainsAcrossScopes(t *testing.T) {
	f := newFixture(t)
	outer := f.table.Add(f.root, f.function("mix", 1))
	block := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	inner := f.table.Add(block, f.function("mix", 2))
	if inner.Kind != AddChained || inner.Previous != outer.Symbol {
		t.Fatalf("nested overload should chain to the outer one: %+v", inner)
	}
	if diff := cmp.Diff([]SymbolID{inner.Symbol, outer.Symbol}, f.table.Overloads(block, f.name("mix"))); diff != "" {
		t.Fatalf("nested overloads (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]SymbolID{outer.Symbol}, f.table.Overloads(f.root, f.name("mix"))); diff != "" {
		t.Fatalf("outer scope must be untouched (-want +got):\n%s", diff)
	}
}

func TestReplaceNonFunction(t *testing.T) {
	f := newFixture(t)
	block := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	first := f.table.Add(block, f.variable("x", 1))
	second := f.table.Add(block, f.variable("x", 2))
	if second.Kind != AddReplaced || second.Previous != first.Symbol {
		t.Fatalf("expected replacement of %d, got %+v", first.Symbol, second)
	}
	if id, _ := f.table.Find(block, f.name("x")); id != second.Symbol {
		t.Fatalf("slot should hold the newest symbol")
	}
	// a function over a variable replaces too: only function over function chains
	third := f.table.Add(block, f.function("x", 3))
	if third.Kind != AddReplaced {
		t.Fatalf("function over variable: %s", third.Kind)
	}
}

func TestModuleBoundaryRejectsAncestorNames(t *testing.T) {
	f := newFixture(t)
	f.table.Add(f.root, f.variable("shared", 1))
	f.table.Add(f.root, f.function("helper", 2))
	child := f.table.NewModule("child", f.root, source.Span{})

	res := f.table.Add(child, f.variable("shared", 3))
	if res.Kind != AddRejected {
		t.Fatalf("expected rejection, got %s", res.Kind)
	}
	if f.table.Count(child) != 0 {
		t.Fatalf("rejected insert must not mutate the scope")
	}
	if fn := f.table.Add(child, f.function("helper", 4)); fn.Kind != AddChained {
		t.Fatalf("functions still chain across a boundary, got %s", fn.Kind)
	}
	if v := f.table.Add(child, f.variable("helper", 5)); v.Kind != AddRejected {
		t.Fatalf("variable over an inherited function: %s", v.Kind)
	}
}

func TestNamelessSymbolsAreIgnored(t *testing.T) {
	f := newFixture(t)
	res := f.table.Add(f.root, NewVariable(source.NoStringID, source.Span{}, f.float, SymbolFlagParameter))
	if res.Kind != AddIgnored || !res.Symbol.IsValid() {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.table.Count(f.root) != 0 {
		t.Fatalf("nameless symbol must not be bound")
	}
	if f.table.Symbol(res.Symbol).Owner != f.root {
		t.Fatalf("nameless symbol is still owned by the scope")
	}
}

func TestWouldShadowSymbolsFrom(t *testing.T) {
	f := newFixture(t)
	a := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	b := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	c := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	for i, n := range []string{"p", "q", "r", "s"} {
		f.table.Add(a, f.variable(n, uint32(i)))
	}
	f.table.Add(b, f.variable("z", 9))
	f.table.Add(c, f.variable("zz", 10))
	f.table.Add(c, f.variable("r", 11))

	cases := []struct {
		x, y ScopeID
		want bool
	}{
		{a, b, false},
		{b, a, false},
		{a, c, true},
		{c, a, true},
		{b, c, false},
	}
	for _, tc := range cases {
		if got := f.table.WouldShadowSymbolsFrom(tc.x, tc.y); got != tc.want {
			t.Fatalf("WouldShadowSymbolsFrom(%s, %s) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
	// ancestors are not consulted
	f.table.Add(f.root, f.variable("z", 12))
	if f.table.WouldShadowSymbolsFrom(a, b) {
		t.Fatalf("shadow check must only look at direct bindings")
	}
}

func TestRenameOverloadChain(t *testing.T) {
	f := newFixture(t)
	var ids []SymbolID
	for i := range 3 {
		ids = append([]SymbolID{f.table.Add(f.root, f.function("old", uint32(i))).Symbol}, ids...)
	}
	res := f.table.RenameSymbol(f.root, ids[0], f.name("fresh"))
	if res.Conflict() {
		t.Fatalf("rename into a free name conflicted: %+v", res)
	}
	for _, id := range ids {
		if got := f.table.Name(id); got != "fresh" {
			t.Fatalf("symbol %d still named %q", id, got)
		}
	}
	if _, ok := f.table.Find(f.root, f.name("old")); ok {
		t.Fatalf("old name still resolves")
	}
	if diff := cmp.Diff(ids, f.table.Overloads(f.root, f.name("fresh"))); diff != "" {
		t.Fatalf("renamed chain (-want +got):\n%s", diff)
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRenameInNestedScopeKeepsInheritedOverloads(t *testing.T) {
	f := newFixture(t)
	declared := f.table.Add(f.root, f.function("shade", 1)).Symbol
	fn := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	sibling := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	local := f.table.Add(fn, f.function("shade", 2)).Symbol
	other := f.table.Add(sibling, f.function("shade", 3)).Symbol

	if res := f.table.RenameSymbol(fn, local, f.name("shade_local")); res.Conflict() {
		t.Fatalf("rename conflicted: %+v", res)
	}
	if got := f.table.Name(declared); got != "shade" {
		t.Fatalf("module overload renamed to %q", got)
	}
	if id, ok := f.table.Find(f.root, f.name("shade")); !ok || id != declared {
		t.Fatalf("module lost its declaration: %v, %v", id, ok)
	}
	if diff := cmp.Diff([]SymbolID{other, declared}, f.table.Overloads(sibling, f.name("shade"))); diff != "" {
		t.Fatalf("sibling overloads (-want +got):\n%s", diff)
	}
	if id, _ := f.table.Find(fn, f.name("shade")); id != declared {
		t.Fatalf("old name should fall through to the module, got %v", id)
	}
	if diff := cmp.Diff([]SymbolID{local}, f.table.Overloads(fn, f.name("shade_local"))); diff != "" {
		t.Fatalf("renamed overloads (-want +got):\n%s", diff)
	}
	if f.table.Count(fn) != 1 {
		t.Fatalf("function scope should only bind the new name, Count = %d", f.table.Count(fn))
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRenameFromNestedScopeMovesHolderBinding(t *testing.T) {
	f := newFixture(t)
	declared := f.table.Add(f.root, f.function("blend", 1)).Symbol
	fn := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	local := f.table.Add(fn, f.function("blend", 2)).Symbol

	f.table.RenameSymbol(fn, declared, f.name("mix2"))
	if _, ok := f.table.Find(f.root, f.name("blend")); ok {
		t.Fatalf("old module name still resolves")
	}
	if id, _ := f.table.Find(f.root, f.name("mix2")); id != declared {
		t.Fatalf("module should bind the new name, got %v", id)
	}
	if diff := cmp.Diff([]SymbolID{local}, f.table.Overloads(fn, f.name("blend"))); diff != "" {
		t.Fatalf("nested overloads (-want +got):\n%s", diff)
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRenameIntoTakenName(t *testing.T) {
	f := newFixture(t)
	block := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	taken := f.table.Add(block, f.variable("taken", 1))
	moved := f.table.Add(block, f.variable("moved", 2))
	res := f.table.RenameSymbol(block, moved.Symbol, f.name("taken"))
	if res.Kind != AddReplaced || res.Previous != taken.Symbol {
		t.Fatalf("expected replacement, got %+v", res)
	}
	if f.table.Count(block) != 1 {
		t.Fatalf("old key must be unbound, Count = %d", f.table.Count(block))
	}
}

func TestInjectWithoutOwnershipOverwrites(t *testing.T) {
	f := newFixture(t)
	donor := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	target := f.table.NewModule("target", f.root, source.Span{})
	f.table.Add(f.root, f.variable("v", 1))
	moved := f.table.Add(donor, f.variable("v", 2)).Symbol

	if res := f.table.AddWithoutOwnership(target, moved); res.Kind != AddRejected {
		t.Fatalf("boundary policy applies to borrowed symbols, got %s", res.Kind)
	}
	f.table.InjectWithoutOwnership(target, moved)
	if id, _ := f.table.Find(target, f.name("v")); id != moved {
		t.Fatalf("inject must bypass conflict checks")
	}
	if f.table.Symbol(moved).Owner != donor {
		t.Fatalf("borrowed symbol changed owner")
	}
}

func TestDiscardMakesHandlesStale(t *testing.T) {
	f := newFixture(t)
	block := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	nested := f.table.NewScope(ScopeBlock, 0, block, source.Span{})
	owned := f.table.Add(block, f.variable("tmp", 1)).Symbol
	f.table.AddWithoutOwnership(f.root, owned)

	f.table.Discard(block)
	if f.table.Scope(block) != nil || f.table.Scope(nested) != nil {
		t.Fatalf("discarded scopes must not resolve")
	}
	if _, ok := f.table.Find(nested, f.name("tmp")); ok {
		t.Fatalf("lookup through a stale handle must fail closed")
	}
	if _, ok := f.table.Find(f.root, f.name("tmp")); ok {
		t.Fatalf("borrowed binding of a released symbol must behave as absent")
	}
	reused := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	if reused == block || f.table.Scope(block) != nil {
		t.Fatalf("recycled slot must carry a new generation")
	}
	if len(f.table.Scope(f.root).Children) != 1 {
		t.Fatalf("parent should only list the live child")
	}
}

func TestTakeOwnershipOfString(t *testing.T) {
	f := newFixture(t)
	block := f.table.NewScope(ScopeBlock, 0, f.root, source.Span{})
	buf := []byte("generated")
	id := f.table.TakeOwnershipOfString(block, string(buf))
	copy(buf, "XXXXXXXXX")
	for i := range 1000 {
		f.table.TakeOwnershipOfString(block, string(rune('a'+i%26))+"_filler")
	}
	if got := f.table.Strings.MustLookup(id); got != "generated" {
		t.Fatalf("owned string changed to %q", got)
	}
	if n := len(f.table.Scope(block).Strings); n != 1001 {
		t.Fatalf("scope should record every owned string, got %d", n)
	}
}

func TestAddArrayDimension(t *testing.T) {
	f := newFixture(t)
	if got, _ := f.table.AddArrayDimension(f.root, f.float, 0); got != f.float {
		t.Fatalf("size 0 must return the element type")
	}
	a, res := f.table.AddArrayDimension(f.root, f.float, 5)
	if res.Kind != AddInserted {
		t.Fatalf("first array request: %s", res.Kind)
	}
	b, res := f.table.AddArrayDimension(f.root, f.float, 5)
	if a != b || res.Kind != AddNone {
		t.Fatalf("array types must be interned: %d vs %d (%s)", a, b, res.Kind)
	}
	if !f.table.IsType(f.root, f.name("float[5]")) {
		t.Fatalf("array type should be bound under its canonical name")
	}
	unsized, _ := f.table.AddArrayDimension(f.root, f.float, types.ArrayUnsized)
	if f.table.TypeName(unsized) != "float[]" {
		t.Fatalf("unsized array named %q", f.table.TypeName(unsized))
	}
	if bad, _ := f.table.AddArrayDimension(f.root, f.float, -4); bad != types.NoTypeID {
		t.Fatalf("negative sizes are malformed")
	}
	nested, _ := f.table.AddArrayDimension(f.root, a, 2)
	if f.table.TypeName(nested) != "float[5][2]" {
		t.Fatalf("nested array named %q", f.table.TypeName(nested))
	}
}

func TestAddArrayDimensionHoistsBuiltinElements(t *testing.T) {
	f := newFixture(t)
	fn := f.table.NewScope(ScopeFunction, 0, f.root, source.Span{})
	block := f.table.NewScope(ScopeBlock, 0, fn, source.Span{})

	arr, _ := f.table.AddArrayDimension(block, f.float, 3)
	id, ok := f.table.Find(f.root, f.name("float[3]"))
	if !ok || f.table.Symbol(id).Type != arr {
		t.Fatalf("builtin-element array must be bound at the module boundary")
	}
	if f.table.Count(block) != 0 || f.table.Count(fn) != 0 {
		t.Fatalf("nested scopes must not bind hoisted arrays")
	}
	sibling := f.table.NewScope(ScopeBlock, 0, fn, source.Span{})
	if again, _ := f.table.AddArrayDimension(sibling, f.float, 3); again != arr {
		t.Fatalf("sibling scopes share the hoisted array")
	}

	light := f.table.Types.New(types.MakeStruct(f.name("Light"), nil))
	local, _ := f.table.AddArrayDimension(block, light, 2)
	if _, ok := f.table.Find(f.root, f.name("Light[2]")); ok {
		t.Fatalf("user-type arrays stay in the requesting scope")
	}
	if id, ok := f.table.Find(block, f.name("Light[2]")); !ok || f.table.Symbol(id).Type != local {
		t.Fatalf("user-type array must be bound locally")
	}
}

func TestMutatingReadOnlyScopePanics(t *testing.T) {
	f := newFixture(t)
	f.table.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on frozen table")
		}
	}()
	f.table.Add(f.root, NewVariable(source.NoStringID, source.Span{}, f.float, 0))
}

func TestAcceptPanicsOnUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a symbol without kind")
		}
	}()
	var sym Symbol
	sym.Accept(1, nil)
}

func structOf(table *Table, name string) types.Type {
	return types.MakeStruct(table.Strings.Intern(name), nil)
}
