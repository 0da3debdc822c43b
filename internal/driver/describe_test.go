package driver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"shadec/internal/source"
)

func TestParseTypeExpr(t *testing.T) {
	cases := []struct {
		in   string
		base string
		dims []int32
		fail bool
	}{
		{in: "float", base: "float"},
		{in: " half4 ", base: "half4"},
		{in: "float[4]", base: "float", dims: []int32{4}},
		{in: "Light[2][]", base: "Light", dims: []int32{2, -1}},
		{in: "int[ 3 ]", base: "int", dims: []int32{3}},
		{in: "[4]", fail: true},
		{in: "float[x]", fail: true},
		{in: "float[4]x", fail: true},
		{in: "float[4", fail: true},
	}
	for _, tc := range cases {
		base, dims, err := parseTypeExpr(tc.in)
		if tc.fail {
			if err == nil {
				t.Errorf("parseTypeExpr(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTypeExpr(%q): %v", tc.in, err)
			continue
		}
		if base != tc.base || !cmp.Equal(dims, tc.dims) {
			t.Errorf("parseTypeExpr(%q) = %q %v, want %q %v", tc.in, base, dims, tc.base, tc.dims)
		}
	}
}

func TestDecodeAndNumber(t *testing.T) {
	desc, err := Decode("m.yaml", []byte(`
module:
  - name: main
    parent: gpu
    decl:
      - kind: fn
        name: f
        params: [{name: a, type: float}]
        body:
          - {kind: ref, name: a}
      - {kind: struct, name: S, fields: [{name: x, type: int}]}
`))
	if err != nil {
		t.Fatal(err)
	}
	labels := number(desc, 3)
	want := Labels{"module main", "fn f", "param a of f", "ref a", "struct S", "field x of S"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	m := desc.Modules[0]
	if m.span != source.At(3, 1) || m.file != 3 {
		t.Fatalf("module span %v file %d", m.span, m.file)
	}
	if body := m.Decls[0].Body[0]; body.span != source.At(3, 4) {
		t.Fatalf("nested entry span %v", body.span)
	}
	if labels.Label(0) != "" || labels.Label(99) != "" || labels.Label(5) != "struct S" {
		t.Fatalf("Label lookup out of line")
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := Decode("m.yml", []byte("module:\n  - name: a\n    parrent: b\n")); err == nil {
		t.Fatalf("yaml unknown field must fail")
	}
	if _, err := Decode("m.toml", []byte("[[module]]\nname = \"a\"\n[[module.decl]]\nkind = \"var\"\ntyp = \"float\"\n")); err == nil {
		t.Fatalf("toml unknown key must fail")
	}
	if _, err := Decode("m.json", []byte("{}")); err == nil {
		t.Fatalf("unsupported extension must fail")
	}
}
