package types

import "testing"

func TestInternerDeduplicatesStructuralTypes(t *testing.T) {
	in := NewInterner()
	f := in.Intern(Type{Kind: KindFloat, Name: 1, Flags: FlagBuiltin})
	v1 := in.Intern(MakeVector(2, f, 3))
	v2 := in.Intern(MakeVector(2, f, 3))
	if v1 != v2 {
		t.Fatalf("vector types should be deduplicated")
	}
	if v4 := in.Intern(MakeVector(3, f, 4)); v4 == v1 {
		t.Fatalf("vectors of different width must differ")
	}
	if !in.IsBuiltin(f) || in.IsBuiltin(v1) {
		t.Fatalf("builtin flag not tracked per descriptor")
	}
}

func TestInternerNominalTypesAreFresh(t *testing.T) {
	in := NewInterner()
	f := in.Intern(Type{Kind: KindFloat})
	a1 := in.New(MakeArray(7, f, 4))
	a2 := in.New(MakeArray(7, f, 4))
	if a1 == a2 {
		t.Fatalf("New must never reuse descriptors")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Intern of an array descriptor must panic")
		}
	}()
	in.Intern(MakeArray(7, f, 4))
}

func TestInternerForkKeepsBaseIDs(t *testing.T) {
	base := NewInterner()
	f := base.Intern(Type{Kind: KindFloat, Flags: FlagBuiltin})
	base.Freeze()

	a := base.Fork()
	b := base.Fork()
	if got := a.Intern(Type{Kind: KindFloat, Flags: FlagBuiltin}); got != f {
		t.Fatalf("fork must resolve base descriptors, got %d want %d", got, f)
	}
	sa := a.New(MakeStruct(9, []Field{{Name: 10, Type: f}}))
	sb := b.New(MakeStruct(9, nil))
	if sa != sb {
		t.Fatalf("sibling forks allocate from the same offset: %d vs %d", sa, sb)
	}
	if a.FieldCount(sa) != 1 || b.FieldCount(sb) != 0 {
		t.Fatalf("sibling forks must not share storage")
	}
	if _, ok := base.Lookup(sa); ok {
		t.Fatalf("fork insert leaked into base")
	}
}

func TestArrayName(t *testing.T) {
	cases := []struct {
		elem string
		size int32
		want string
	}{
		{"float", 5, "float[5]"},
		{"Light", 1, "Light[1]"},
		{"int", ArrayUnsized, "int[]"},
		{"float[4]", 2, "float[4][2]"},
	}
	for _, tc := range cases {
		if got := ArrayName(tc.elem, tc.size); got != tc.want {
			t.Fatalf("ArrayName(%q, %d) = %q, want %q", tc.elem, tc.size, got, tc.want)
		}
	}
	if ValidArraySize(0) || ValidArraySize(-3) || !ValidArraySize(ArrayUnsized) {
		t.Fatalf("ValidArraySize disagrees with array rules")
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("half"); !ok || k != KindHalf {
		t.Fatalf("ParseKind(half) = %v %v", k, ok)
	}
	if _, ok := ParseKind("string"); ok {
		t.Fatalf("unexpected kind for string")
	}
}
