package symbols

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"shadec/internal/source"
)

func TestDefaultUniverseModules(t *testing.T) {
	u := DefaultUniverse()
	if diff := cmp.Diff([]string{"shared", "gpu", "frag", "vert"}, u.Modules()); diff != "" {
		t.Fatalf("modules (-want +got):\n%s", diff)
	}
	if !u.Table().Frozen() || !u.Table().Shared() {
		t.Fatalf("universe must be a frozen shared layer")
	}
	frag, _ := u.Module("frag")
	vert, _ := u.Module("vert")
	tbl := u.Table()
	key := func(s string) source.StringID {
		id, ok := tbl.Strings.Find(s)
		if !ok {
			t.Fatalf("%q not interned", s)
		}
		return id
	}
	if !tbl.IsBuiltinType(frag, key("float4")) {
		t.Fatalf("float4 should be a builtin type from frag")
	}
	if _, ok := tbl.Find(vert, key("sk_FragCoord")); ok {
		t.Fatalf("vert must not see frag globals")
	}
	if got := len(tbl.Overloads(frag, key("abs"))); got != 3 {
		t.Fatalf("abs should have 3 overloads across shared and gpu, got %d", got)
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestIsBuiltinTypeIgnoresLocalShadowing(t *testing.T) {
	u := DefaultUniverse()
	frag, _ := u.Module("frag")
	table := u.Fork(Hints{})
	mod := table.NewModule("main", frag, source.Span{})
	block := table.NewScope(ScopeBlock, 0, mod, source.Span{})
	light := table.Strings.Intern("Light")
	table.Add(block, NewType(light, source.Span{}, table.Types.New(structOf(table, "Light"))))

	if !table.IsType(block, light) || table.IsBuiltinType(block, light) {
		t.Fatalf("local types are types but not builtin types")
	}
	float := table.Strings.Intern("float")
	table.Add(block, NewVariable(float, source.Span{}, 0, 0))
	if table.IsType(block, float) {
		t.Fatalf("a local variable shadows the builtin type name")
	}
	if !table.IsBuiltinType(block, float) {
		t.Fatalf("IsBuiltinType must look past local shadowing")
	}
	if id, ok := table.FindBuiltinSymbol(block, table.Strings.Intern("sk_Clockwise")); !ok || !id.Shared() {
		t.Fatalf("FindBuiltinSymbol should hit the frag module")
	}
	standalone := NewTable(Hints{})
	root := standalone.NewModule("solo", NoScopeID, source.Span{})
	if standalone.IsBuiltinType(root, standalone.Strings.Intern("float")) {
		t.Fatalf("no builtin ancestor means no builtin types")
	}
}

func TestForkCannotMutateUniverse(t *testing.T) {
	u := DefaultUniverse()
	frag, _ := u.Module("frag")
	table := u.Fork(Hints{})
	defer func() {
		if recover() == nil {
			t.Fatalf("mutating a builtin scope through a fork must panic")
		}
	}()
	table.Add(frag, NewVariable(table.Strings.Intern("x"), source.Span{}, 0, 0))
}

func TestConcurrentForksAreIsolated(t *testing.T) {
	u := DefaultUniverse()
	frag, _ := u.Module("frag")
	before := u.Table().Symbols.Len()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for w := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table := u.Fork(Hints{})
			mod := table.NewModule(fmt.Sprintf("m%d", w), frag, source.Span{})
			float, _ := table.FindString(mod, "float")
			elem := table.Symbol(float).Type
			for i := range 50 {
				name := table.Strings.Intern(fmt.Sprintf("v%d", i))
				table.Add(mod, NewVariable(name, source.Span{}, elem, 0))
				table.AddArrayDimension(mod, elem, int32(i+1))
			}
			if _, ok := table.FindString(mod, "v49"); !ok {
				errs[w] = fmt.Errorf("worker %d lost its own declaration", w)
				return
			}
			errs[w] = table.Validate()
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if u.Table().Symbols.Len() != before {
		t.Fatalf("forks leaked symbols into the universe")
	}
}

func TestLoadUniverseErrors(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"unknown parent", "[[module]]\nname = \"a\"\nparent = \"zzz\"\n", "unknown parent"},
		{"unknown type", "[[module]]\nname = \"a\"\n[[module.variable]]\nname = \"v\"\ntype = \"vec9\"\n", "unknown type"},
		{"bad kind", "[[module]]\nname = \"a\"\n[[module.type]]\nname = \"S\"\nkind = \"struct\"\n", "unsupported kind"},
		{"unknown key", "[[module]]\nname = \"a\"\ncolour = 1\n", "unknown key"},
		{"duplicate", "[[module]]\nname = \"a\"\n[[module.type]]\nname = \"int\"\nkind = \"int\"\n[[module.variable]]\nname = \"int\"\ntype = \"int\"\n", "already defined"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadUniverse([]byte(tc.src))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSnapshotListsBindings(t *testing.T) {
	u := DefaultUniverse()
	vert, _ := u.Module("vert")
	snap := u.Table().Snapshot(vert)
	var names []string
	for _, b := range snap.Bindings {
		names = append(names, b.Name)
	}
	if diff := cmp.Diff([]string{"sk_Position", "sk_VertexID"}, names); diff != "" {
		t.Fatalf("bindings (-want +got):\n%s", diff)
	}
	if !snap.Builtin || !snap.ModuleBoundary || snap.Name != "vert" {
		t.Fatalf("unexpected scope header %+v", snap)
	}
	if snap.Bindings[1].Symbols[0].Type != "int" {
		t.Fatalf("sk_VertexID typed %q", snap.Bindings[1].Symbols[0].Type)
	}
}
