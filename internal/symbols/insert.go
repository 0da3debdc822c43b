package symbols

import (
	"fmt"
	"slices"

	"shadec/internal/source"
	"shadec/internal/types"
)

// AddKind describes what an insertion did to the scope.
type AddKind uint8

const (
	// AddNone means the scope was left untouched and no symbol was added.
	AddNone AddKind = iota
	// AddInserted bound the name in a previously empty slot.
	AddInserted
	// AddReplaced displaced a different symbol from the slot.
	AddReplaced
	// AddChained prepended a function to an existing overload set.
	AddChained
	// AddRejected refused a name already bound beyond a module boundary.
	AddRejected
	// AddIgnored accepted a nameless symbol without binding it.
	AddIgnored
)

func (k AddKind) String() string {
	switch k {
	case AddInserted:
		return "inserted"
	case AddReplaced:
		return "replaced"
	case AddChained:
		return "chained"
	case AddRejected:
		return "rejected"
	case AddIgnored:
		return "ignored"
	default:
		return "none"
	}
}

// AddResult reports the outcome of an insertion. Previous is the displaced
// symbol for AddReplaced, the former head of the set for AddChained and the
// ancestor binding for AddRejected.
type AddResult struct {
	Kind     AddKind
	Symbol   SymbolID
	Previous SymbolID
}

// Conflict reports whether the insertion collided with another declaration.
func (r AddResult) Conflict() bool {
	return r.Kind == AddReplaced || r.Kind == AddRejected
}

// Add stores sym in the arena, makes scope its owner and binds it. The scope
// owns the symbol even when the binding is rejected or ignored.
func (t *Table) Add(scope ScopeID, sym *Symbol) AddResult {
	s := t.mutableScope(scope)
	stored := *sym
	stored.Owner = scope
	id := t.Symbols.New(&stored)
	s.Owned = append(s.Owned, id)
	return t.bind(scope, s, id)
}

// AddWithoutOwnership binds a symbol owned elsewhere. The owner must outlive
// scope; once the owner is discarded the binding behaves as absent.
func (t *Table) AddWithoutOwnership(scope ScopeID, id SymbolID) AddResult {
	return t.bind(scope, t.mutableScope(scope), id)
}

// InjectWithoutOwnership overwrites the slot for the symbol's name, skipping
// every conflict check. Reserved for bootstrap placement.
func (t *Table) InjectWithoutOwnership(scope ScopeID, id SymbolID) {
	s := t.mutableScope(scope)
	sym := t.mustSymbol(id)
	if sym.Name == source.NoStringID {
		return
	}
	s.NameIndex[sym.Name] = []SymbolID{id}
}

func (t *Table) mustSymbol(id SymbolID) *Symbol {
	sym := t.Symbol(id)
	if sym == nil {
		panic(fmt.Sprintf("symbols: unknown or released symbol %d", id))
	}
	return sym
}

func (t *Table) bind(scopeID ScopeID, scope *Scope, id SymbolID) AddResult {
	sym := t.mustSymbol(id)
	if sym.Name == source.NoStringID {
		return AddResult{Kind: AddIgnored, Symbol: id}
	}
	key := sym.Name

	if sym.Kind == SymbolFunction {
		if prev, _ := t.lookup(scopeID, key); len(prev) > 0 && t.Symbol(prev[0]).Kind == SymbolFunction {
			seq := make([]SymbolID, 0, len(prev)+1)
			seq = append(seq, id)
			for _, p := range prev {
				if p != id {
					seq = append(seq, p)
				}
			}
			scope.NameIndex[key] = seq
			return AddResult{Kind: AddChained, Symbol: id, Previous: prev[0]}
		}
	}

	if scope.ModuleBoundary() && scope.Parent.IsValid() {
		if prev, _ := t.lookup(scope.Parent, key); len(prev) > 0 {
			return AddResult{Kind: AddRejected, Symbol: id, Previous: prev[0]}
		}
	}

	old := t.local(scope, key)
	scope.NameIndex[key] = []SymbolID{id}
	if len(old) == 0 || old[0] == id {
		return AddResult{Kind: AddInserted, Symbol: id}
	}
	return AddResult{Kind: AddReplaced, Symbol: id, Previous: old[0]}
}

// RenameSymbol gives id a new name and binds it again in the scope that
// holds it, which is scope or its nearest writable ancestor binding id. For a
// function the later overloads declared in that scope move along with it,
// keeping their order. Overloads inherited from ancestors or from a read-only
// layer keep their name and binding. The old name is unbound from the holder
// and from the slots of its descendants that chained onto the moved set.
func (t *Table) RenameSymbol(scope ScopeID, id SymbolID, newName source.StringID) AddResult {
	sym := t.mustSymbol(id)
	if id.Shared() != t.Shared() {
		panic(fmt.Sprintf("symbols: rename of read-only symbol %d", id))
	}
	oldName := sym.Name
	scope = t.holderOf(scope, oldName, id)
	s := t.mutableScope(scope)

	members := []SymbolID{id}
	if sym.Kind == SymbolFunction {
		inherited, _ := t.lookup(s.Parent, oldName)
		if seq := t.local(s, oldName); seq != nil {
			if idx := slices.Index(seq, id); idx >= 0 {
				members = members[:0]
				for _, m := range seq[idx:] {
					if m.Shared() != t.Shared() || slices.Contains(inherited, m) {
						break
					}
					members = append(members, m)
				}
			}
		}
	}

	if oldName != source.NoStringID {
		t.unbindMembers(scope, oldName, members)
	}

	for _, m := range members {
		t.mustSymbol(m).Name = newName
	}

	// Oldest first, so that the set ends up most recent first again.
	var res, conflict AddResult
	for i := len(members) - 1; i >= 0; i-- {
		res = t.bind(scope, s, members[i])
		if res.Conflict() && !conflict.Conflict() {
			conflict = res
		}
	}
	if conflict.Conflict() && !res.Conflict() {
		return conflict
	}
	return res
}

// holderOf returns the nearest writable scope from scopeID that binds id for
// key itself rather than through an overload set inherited from its parent,
// or scopeID when there is none.
func (t *Table) holderOf(scopeID ScopeID, key source.StringID, id SymbolID) ScopeID {
	for cur := scopeID; cur.IsValid() && !t.ReadOnly(cur); {
		cs := t.Scopes.Get(cur)
		if cs == nil {
			break
		}
		if slices.Contains(cs.NameIndex[key], id) {
			if inherited, _ := t.lookup(cs.Parent, key); !slices.Contains(inherited, id) {
				return cur
			}
		}
		cur = cs.Parent
	}
	return scopeID
}

// unbindMembers drops members from the key slot of scopeID and its
// descendants. A slot left holding only what the parent chain already
// provides is removed.
func (t *Table) unbindMembers(scopeID ScopeID, key source.StringID, members []SymbolID) {
	cs := t.Scopes.Get(scopeID)
	if cs == nil {
		return
	}
	if seq, ok := cs.NameIndex[key]; ok {
		seq = slices.DeleteFunc(slices.Clone(seq), func(x SymbolID) bool { return slices.Contains(members, x) })
		inherited, _ := t.lookup(cs.Parent, key)
		redundant := !slices.ContainsFunc(seq, func(x SymbolID) bool { return !slices.Contains(inherited, x) })
		if len(seq) == 0 || redundant {
			delete(cs.NameIndex, key)
		} else {
			cs.NameIndex[key] = seq
		}
	}
	for _, child := range cs.Children {
		if !child.Shared() {
			t.unbindMembers(child, key, members)
		}
	}
}

// AddArrayDimension returns the array type of size elements of elem as seen
// from scope, creating and binding it on first use.
//
// Size 0 returns elem itself. Arrays of builtin types are created in the
// highest writable ancestor below the module boundary so that nested scopes
// share them. A repeated request returns the same TypeID.
func (t *Table) AddArrayDimension(scope ScopeID, elem types.TypeID, size int32) (types.TypeID, AddResult) {
	if size == 0 {
		return elem, AddResult{}
	}
	if !types.ValidArraySize(size) {
		return types.NoTypeID, AddResult{}
	}
	elemType, ok := t.Types.Lookup(elem)
	if !ok || elemType.Name == source.NoStringID {
		return types.NoTypeID, AddResult{}
	}
	s := t.Scope(scope)
	if s == nil {
		return types.NoTypeID, AddResult{}
	}
	if elemType.IsBuiltin() && !s.ModuleBoundary() && !s.Builtin() &&
		s.Parent.IsValid() && !t.ReadOnly(s.Parent) {
		return t.AddArrayDimension(s.Parent, elem, size)
	}

	name := types.ArrayName(t.Strings.MustLookup(elemType.Name), size)
	if key, found := t.Strings.Find(name); found {
		if id, ok := t.Find(scope, key); ok {
			if existing := t.Symbol(id); existing.Kind == SymbolType {
				return existing.Type, AddResult{Symbol: id}
			}
		}
	}

	key := t.TakeOwnershipOfString(scope, name)
	arr := t.Types.New(types.MakeArray(key, elem, size))
	res := t.Add(scope, NewType(key, s.Span, arr))
	return arr, res
}
