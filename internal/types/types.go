package types

import (
	"fmt"

	"shadec/internal/source"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindUint
	KindFloat
	KindHalf
	KindVector
	KindMatrix
	KindSampler
	KindStruct
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindHalf:
		return "half"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindSampler:
		return "sampler"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind maps the spelling used in builtin declarations to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindVoid; k <= KindArray; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// IsScalar reports whether k is a numeric or boolean scalar.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindHalf
}

// Flags encode misc attributes.
type Flags uint8

const (
	// FlagBuiltin marks types declared by the builtin universe.
	FlagBuiltin Flags = 1 << iota
	// FlagAnonymous marks the struct type synthesized for an interface block.
	FlagAnonymous
)

// ArrayUnsized is the Count of a runtime-sized array (T[]).
const ArrayUnsized int32 = -1

// Field is one member of a struct type.
type Field struct {
	Name source.StringID
	Type TypeID
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   Kind
	Name   source.StringID
	Elem   TypeID  // vector/matrix component, array element
	Count  int32   // vector width, matrix columns, array length
	Rows   int32   // matrix rows
	Fields []Field // struct members
	Flags  Flags
}

// IsBuiltin reports whether the type comes from the builtin universe.
func (t Type) IsBuiltin() bool { return t.Flags&FlagBuiltin != 0 }

// Descriptor helpers ---------------------------------------------------------

// MakeScalar describes a builtin scalar, void or sampler type.
func MakeScalar(kind Kind, name source.StringID) Type {
	return Type{Kind: kind, Name: name}
}

// MakeVector describes an n-component vector of elem.
func MakeVector(name source.StringID, elem TypeID, n int32) Type {
	return Type{Kind: KindVector, Name: name, Elem: elem, Count: n}
}

// MakeMatrix describes a cols x rows matrix of elem.
func MakeMatrix(name source.StringID, elem TypeID, cols, rows int32) Type {
	return Type{Kind: KindMatrix, Name: name, Elem: elem, Count: cols, Rows: rows}
}

// MakeStruct describes a named aggregate.
func MakeStruct(name source.StringID, fields []Field) Type {
	return Type{Kind: KindStruct, Name: name, Fields: fields}
}

// MakeArray describes an array of elem. Use ArrayUnsized for T[].
func MakeArray(name source.StringID, elem TypeID, count int32) Type {
	return Type{Kind: KindArray, Name: name, Elem: elem, Count: count}
}
