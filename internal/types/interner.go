package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Interner stores type descriptors. Structural types (scalars, vectors,
// matrices) are hashed so that equal descriptors share a TypeID. Nominal types
// (structs, arrays) always get a fresh TypeID: array identity is decided by
// the symbol scopes that name them.
//
// An interner may be forked on top of a frozen base; base TypeIDs stay valid
// and are never copied.
type Interner struct {
	base   *Interner
	offset TypeID
	types  []Type
	index  map[typeKey]TypeID
	frozen bool
}

// NewInterner constructs an empty interner with the NoTypeID sentinel.
func NewInterner() *Interner {
	return &Interner{
		types: []Type{{Kind: KindInvalid}},
		index: make(map[typeKey]TypeID, 64),
	}
}

// Fork returns a writable layer over a frozen interner.
func (in *Interner) Fork() *Interner {
	if !in.frozen {
		panic("types: Fork on a mutable interner")
	}
	return &Interner{
		base:   in,
		offset: TypeID(in.Len()),
		index:  make(map[typeKey]TypeID),
	}
}

// Freeze forbids further insertions.
func (in *Interner) Freeze() { in.frozen = true }

// Len counts every addressable TypeID including the sentinel and base layers.
func (in *Interner) Len() int { return int(in.offset) + len(in.types) }

// Intern ensures the structural descriptor has a stable TypeID. Struct and
// array descriptors are rejected; use New for those.
func (in *Interner) Intern(t Type) TypeID {
	switch t.Kind {
	case KindInvalid:
		return NoTypeID
	case KindStruct, KindArray:
		panic(fmt.Sprintf("types: %s types are nominal, use New", t.Kind))
	}
	key := keyOf(t)
	if id, ok := in.find(key); ok {
		return id
	}
	id := in.append(t)
	in.index[key] = id
	return id
}

// New allocates a descriptor without consulting the structural index.
func (in *Interner) New(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	return in.append(t)
}

func (in *Interner) append(t Type) TypeID {
	if in.frozen {
		panic("types: insert into frozen interner")
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := in.offset + TypeID(n)
	in.types = append(in.types, t)
	return id
}

func (in *Interner) find(key typeKey) (TypeID, bool) {
	if in.base != nil {
		if id, ok := in.base.find(key); ok {
			return id, true
		}
	}
	id, ok := in.index[key]
	return id, ok
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID {
		return Type{}, false
	}
	if id < in.offset {
		return in.base.Lookup(id)
	}
	local := int(id - in.offset)
	if local >= len(in.types) {
		return Type{}, false
	}
	return in.types[local], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IsBuiltin reports whether id names a builtin type.
func (in *Interner) IsBuiltin(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.IsBuiltin()
}

// FieldCount returns the number of members of a struct type, or 0.
func (in *Interner) FieldCount(id TypeID) int {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return 0
	}
	return len(tt.Fields)
}

type typeKey struct {
	Kind  Kind
	Elem  TypeID
	Count int32
	Rows  int32
	Flags Flags
}

func keyOf(t Type) typeKey {
	return typeKey{Kind: t.Kind, Elem: t.Elem, Count: t.Count, Rows: t.Rows, Flags: t.Flags}
}
