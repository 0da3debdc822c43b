package driver

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"shadec/internal/source"
)

// Declaration kinds accepted in module descriptions.
const (
	DeclVar       = "var"
	DeclFn        = "fn"
	DeclStruct    = "struct"
	DeclInterface = "interface"
	DeclBlock     = "block"
	DeclRef       = "ref"
	DeclRename    = "rename"
)

// Description is one decoded module description file.
type Description struct {
	Modules []Module `toml:"module" yaml:"module"`
}

// Module is a compiled unit. Parent names a builtin module or another module
// of the same run; empty means the default base module.
type Module struct {
	Name   string `toml:"name" yaml:"name"`
	Parent string `toml:"parent" yaml:"parent"`
	Decls  []Decl `toml:"decl" yaml:"decl"`

	file source.FileID
	span source.Span
}

// Decl is one declaration or use inside a module. Which fields matter depends
// on Kind:
//
//	var        Name, Type
//	fn         Name, Type (result), Params, Body
//	struct     Name, Fields
//	interface  Name (block type), Fields
//	block      Body
//	ref        Name, Write
//	rename     Name, To
//
// Type strings may carry array suffixes: float[4], Light[2][], int[].
type Decl struct {
	Kind   string  `toml:"kind" yaml:"kind"`
	Name   string  `toml:"name" yaml:"name"`
	Type   string  `toml:"type" yaml:"type"`
	Params []Param `toml:"params" yaml:"params"`
	Fields []Param `toml:"fields" yaml:"fields"`
	Body   []Decl  `toml:"body" yaml:"body"`
	To     string  `toml:"to" yaml:"to"`
	Write  bool    `toml:"write" yaml:"write"`

	span source.Span
}

// Param is a function parameter or an aggregate member.
type Param struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`

	span source.Span
}

// Decode parses a description, choosing the syntax from the file extension.
func Decode(path string, content []byte) (*Description, error) {
	var desc Description
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(content), &desc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("decode %s: unsupported extension (want .toml, .yaml or .yml)", path)
	}
	return &desc, nil
}

// Labels maps ordinal spans of one file back to the entries they stand for.
type Labels []string

// Label returns the entry recorded for position pos, or "".
func (l Labels) Label(pos uint32) string {
	if pos == 0 || int(pos) > len(l) {
		return ""
	}
	return l[pos-1]
}

// number assigns every module, declaration and parameter of desc a distinct
// position in file, in document order, and records a label for each.
func number(desc *Description, file source.FileID) Labels {
	var labels Labels
	next := func(label string) source.Span {
		labels = append(labels, label)
		return source.At(file, uint32(len(labels)))
	}
	var walk func(decls []Decl)
	walk = func(decls []Decl) {
		for i := range decls {
			d := &decls[i]
			d.span = next(strings.TrimSpace(d.Kind + " " + d.Name))
			for j := range d.Params {
				d.Params[j].span = next("param " + d.Params[j].Name + " of " + d.Name)
			}
			for j := range d.Fields {
				d.Fields[j].span = next("field " + d.Fields[j].Name + " of " + d.Name)
			}
			walk(d.Body)
		}
	}
	for i := range desc.Modules {
		m := &desc.Modules[i]
		m.file = file
		m.span = next("module " + m.Name)
		walk(m.Decls)
	}
	return labels
}

// parseTypeExpr splits "T[4][]" into the base name and its array sizes,
// innermost first. Unsized dimensions are reported as -1.
func parseTypeExpr(s string) (string, []int32, error) {
	s = strings.TrimSpace(s)
	base, rest, found := strings.Cut(s, "[")
	base = strings.TrimSpace(base)
	if base == "" {
		return "", nil, fmt.Errorf("missing type name in %q", s)
	}
	if !found {
		return base, nil, nil
	}
	var dims []int32
	rest = "[" + rest
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("malformed array suffix in %q", s)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated array suffix in %q", s)
		}
		inner := strings.TrimSpace(rest[1:end])
		if inner == "" {
			dims = append(dims, -1)
		} else {
			n, err := strconv.ParseInt(inner, 10, 32)
			if err != nil {
				return "", nil, fmt.Errorf("bad array size %q in %q", inner, s)
			}
			dims = append(dims, int32(n))
		}
		rest = rest[end+1:]
	}
	return base, dims, nil
}
