package symbols

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"shadec/internal/source"
	"shadec/internal/types"
)

//go:embed builtins.toml
var defaultBuiltins []byte

// BuiltinFile is the decoded form of a builtin declarations file.
type BuiltinFile struct {
	Modules []BuiltinModule `toml:"module"`
}

// BuiltinModule lists the declarations of one builtin module.
type BuiltinModule struct {
	Name      string            `toml:"name"`
	Parent    string            `toml:"parent"`
	Types     []BuiltinType     `toml:"type"`
	Functions []BuiltinFunction `toml:"function"`
	Variables []BuiltinVariable `toml:"variable"`
}

// BuiltinType declares a scalar, vector, matrix or sampler type.
type BuiltinType struct {
	Name  string `toml:"name"`
	Kind  string `toml:"kind"`
	Elem  string `toml:"elem"`
	Count int32  `toml:"count"`
	Rows  int32  `toml:"rows"`
}

// BuiltinFunction declares one overload.
type BuiltinFunction struct {
	Name   string   `toml:"name"`
	Result string   `toml:"result"`
	Params []string `toml:"params"`
}

// BuiltinVariable declares a predefined global.
type BuiltinVariable struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Universe is the frozen shared layer holding the builtin modules. It is safe
// for concurrent use; compilations obtain writable tables through Fork.
type Universe struct {
	table   *Table
	modules map[string]ScopeID
	order   []string
}

var (
	defaultOnce     sync.Once
	defaultUniverse *Universe
)

// DefaultUniverse returns the universe built from the embedded declarations.
func DefaultUniverse() *Universe {
	defaultOnce.Do(func() {
		u, err := LoadUniverse(defaultBuiltins)
		if err != nil {
			panic(fmt.Errorf("embedded builtins: %w", err))
		}
		defaultUniverse = u
	})
	return defaultUniverse
}

// DefaultBuiltins returns the embedded declarations file.
func DefaultBuiltins() []byte { return defaultBuiltins }

// LoadUniverse decodes a TOML declarations file and builds a frozen universe.
func LoadUniverse(data []byte) (*Universe, error) {
	var file BuiltinFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("decode builtins: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode builtins: unknown key %q", undecoded[0].String())
	}
	return BuildUniverse(file)
}

// BuildUniverse seeds one builtin scope per module, in declaration order.
// A module's parent must be declared before it.
func BuildUniverse(file BuiltinFile) (*Universe, error) {
	u := &Universe{
		table:   newTable(Hints{Scopes: uint(len(file.Modules))}, true, source.NewInterner(), types.NewInterner(), nil),
		modules: make(map[string]ScopeID, len(file.Modules)),
	}
	b := universeBuilder{u: u}
	for _, mod := range file.Modules {
		b.module(mod)
	}
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	u.table.Freeze()
	return u, nil
}

// Table returns the frozen shared table.
func (u *Universe) Table() *Table { return u.table }

// Module returns the scope of a builtin module.
func (u *Universe) Module(name string) (ScopeID, bool) {
	id, ok := u.modules[name]
	return id, ok
}

// Modules lists builtin module names in declaration order.
func (u *Universe) Modules() []string { return append([]string(nil), u.order...) }

// Fork returns a writable compilation table over the universe.
func (u *Universe) Fork(h Hints) *Table { return u.table.Fork(h) }

type universeBuilder struct {
	u    *Universe
	pos  uint32
	errs []error
}

func (b *universeBuilder) errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// span hands out distinct positions in the builtin file so that builtin
// declarations can be told apart in diagnostics.
func (b *universeBuilder) span() source.Span {
	b.pos++
	return source.At(0, b.pos)
}

func (b *universeBuilder) module(mod BuiltinModule) {
	t := b.u.table
	if mod.Name == "" {
		b.errorf("builtin module without name")
		return
	}
	if _, dup := b.u.modules[mod.Name]; dup {
		b.errorf("builtin module %q declared twice", mod.Name)
		return
	}
	parent := NoScopeID
	if mod.Parent != "" {
		p, ok := b.u.modules[mod.Parent]
		if !ok {
			b.errorf("builtin module %q: unknown parent %q", mod.Name, mod.Parent)
			return
		}
		parent = p
	}
	scope := t.NewScope(ScopeBuiltin, ScopeFlagBuiltin|ScopeFlagModuleBoundary, parent, b.span())
	t.Scopes.Get(scope).Name = mod.Name
	b.u.modules[mod.Name] = scope
	b.u.order = append(b.u.order, mod.Name)

	for _, bt := range mod.Types {
		b.declareType(scope, mod.Name, bt)
	}
	for _, fn := range mod.Functions {
		result, ok := b.resolveType(scope, mod.Name, fn.Result)
		params := make([]types.TypeID, 0, len(fn.Params))
		for _, p := range fn.Params {
			pt, pok := b.resolveType(scope, mod.Name, p)
			ok = ok && pok
			params = append(params, pt)
		}
		if !ok {
			continue
		}
		sym := NewFunction(t.Strings.Intern(fn.Name), b.span(), result, params)
		sym.Flags |= SymbolFlagBuiltin
		b.add(scope, mod.Name, sym)
	}
	for _, v := range mod.Variables {
		typ, ok := b.resolveType(scope, mod.Name, v.Type)
		if !ok {
			continue
		}
		b.add(scope, mod.Name, NewVariable(t.Strings.Intern(v.Name), b.span(), typ, SymbolFlagBuiltin))
	}
}

func (b *universeBuilder) declareType(scope ScopeID, module string, bt BuiltinType) {
	t := b.u.table
	kind, ok := types.ParseKind(bt.Kind)
	if !ok || kind == types.KindStruct || kind == types.KindArray {
		b.errorf("builtin module %q: type %q has unsupported kind %q", module, bt.Name, bt.Kind)
		return
	}
	name := t.Strings.Intern(bt.Name)
	desc := types.Type{Kind: kind, Name: name, Count: bt.Count, Rows: bt.Rows, Flags: types.FlagBuiltin}
	if kind == types.KindVector || kind == types.KindMatrix {
		elem, eok := b.resolveType(scope, module, bt.Elem)
		if !eok {
			return
		}
		desc.Elem = elem
	}
	b.add(scope, module, NewType(name, b.span(), t.Types.Intern(desc)))
}

func (b *universeBuilder) resolveType(scope ScopeID, module, name string) (types.TypeID, bool) {
	id, ok := b.u.table.FindString(scope, name)
	if !ok {
		b.errorf("builtin module %q: unknown type %q", module, name)
		return types.NoTypeID, false
	}
	sym := b.u.table.Symbol(id)
	if sym.Kind != SymbolType {
		b.errorf("builtin module %q: %q is not a type", module, name)
		return types.NoTypeID, false
	}
	return sym.Type, true
}

func (b *universeBuilder) add(scope ScopeID, module string, sym *Symbol) {
	sym.Flags |= SymbolFlagBuiltin
	if res := b.u.table.Add(scope, sym); res.Conflict() {
		b.errorf("builtin module %q: symbol %q was already defined", module, b.u.table.Name(res.Symbol))
	}
}
