package symbols

import (
	"slices"
	"strings"

	"shadec/internal/types"
)

// ScopeSnapshot is a serialisable view of a scope subtree.
type ScopeSnapshot struct {
	ID             string            `json:"id" msgpack:"id" yaml:"id"`
	Kind           string            `json:"kind" msgpack:"kind" yaml:"kind"`
	Name           string            `json:"name,omitempty" msgpack:"name,omitempty" yaml:"name,omitempty"`
	Builtin        bool              `json:"builtin,omitempty" msgpack:"builtin,omitempty" yaml:"builtin,omitempty"`
	ModuleBoundary bool              `json:"module_boundary,omitempty" msgpack:"module_boundary,omitempty" yaml:"module_boundary,omitempty"`
	Parent         string            `json:"parent,omitempty" msgpack:"parent,omitempty" yaml:"parent,omitempty"`
	Bindings       []BindingSnapshot `json:"bindings" msgpack:"bindings" yaml:"bindings"`
	Strings        []string          `json:"strings,omitempty" msgpack:"strings,omitempty" yaml:"strings,omitempty"`
	Children       []ScopeSnapshot   `json:"children,omitempty" msgpack:"children,omitempty" yaml:"children,omitempty"`
}

// BindingSnapshot is one name slot. Symbols holds more than one entry only
// for overloaded functions, most recent first.
type BindingSnapshot struct {
	Name    string           `json:"name" msgpack:"name" yaml:"name"`
	Symbols []SymbolSnapshot `json:"symbols" msgpack:"symbols" yaml:"symbols"`
}

// SymbolSnapshot describes one symbol.
type SymbolSnapshot struct {
	Kind   string   `json:"kind" msgpack:"kind" yaml:"kind"`
	Type   string   `json:"type,omitempty" msgpack:"type,omitempty" yaml:"type,omitempty"`
	Params []string `json:"params,omitempty" msgpack:"params,omitempty" yaml:"params,omitempty"`
	Flags  []string `json:"flags,omitempty" msgpack:"flags,omitempty" yaml:"flags,omitempty"`
	Owner  string   `json:"owner,omitempty" msgpack:"owner,omitempty" yaml:"owner,omitempty"`
	Field  int      `json:"field,omitempty" msgpack:"field,omitempty" yaml:"field,omitempty"`
	Span   string   `json:"span" msgpack:"span" yaml:"span"`
}

// Snapshot captures the subtree rooted at root. Children are only reachable
// for scopes of this table's layer.
func (t *Table) Snapshot(root ScopeID) ScopeSnapshot {
	scope := t.Scope(root)
	if scope == nil {
		return ScopeSnapshot{ID: root.String(), Kind: ScopeInvalid.String()}
	}
	snap := ScopeSnapshot{
		ID:             root.String(),
		Kind:           scope.Kind.String(),
		Name:           scope.Name,
		Builtin:        scope.Builtin(),
		ModuleBoundary: scope.ModuleBoundary(),
		Bindings:       make([]BindingSnapshot, 0, len(scope.NameIndex)),
	}
	if scope.Parent.IsValid() {
		snap.Parent = scope.Parent.String()
	}
	for key := range scope.NameIndex {
		seq := t.local(scope, key)
		if seq == nil {
			continue
		}
		binding := BindingSnapshot{Name: t.Strings.MustLookup(key)}
		for _, id := range seq {
			if sym := t.Symbol(id); sym != nil {
				binding.Symbols = append(binding.Symbols, t.snapshotSymbol(sym))
			}
		}
		snap.Bindings = append(snap.Bindings, binding)
	}
	slices.SortFunc(snap.Bindings, func(a, b BindingSnapshot) int { return strings.Compare(a.Name, b.Name) })
	for _, id := range scope.Strings {
		snap.Strings = append(snap.Strings, t.Strings.MustLookup(id))
	}
	for _, child := range scope.Children {
		snap.Children = append(snap.Children, t.Snapshot(child))
	}
	return snap
}

func (t *Table) snapshotSymbol(sym *Symbol) SymbolSnapshot {
	out := SymbolSnapshot{
		Kind:  sym.Kind.String(),
		Type:  t.TypeName(sym.Type),
		Flags: sym.Flags.Strings(),
		Span:  sym.Span.String(),
	}
	for _, p := range sym.Params {
		out.Params = append(out.Params, t.TypeName(p))
	}
	if sym.Kind == SymbolField {
		if owner := t.Symbol(sym.Field.Owner); owner != nil {
			out.Owner = t.TypeName(owner.Type)
		}
		out.Field = sym.Field.Index
	}
	return out
}

// TypeName returns the display name of a type.
func (t *Table) TypeName(id types.TypeID) string {
	tt, ok := t.Types.Lookup(id)
	if !ok {
		return ""
	}
	if tt.Name != 0 {
		return t.Strings.MustLookup(tt.Name)
	}
	return tt.Kind.String()
}
