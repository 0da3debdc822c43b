package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps strings to dense IDs. An interner may be layered over a frozen
// base: IDs below the layer offset belong to the base and are shared, so a
// compilation can extend the builtin names without copying or locking them.
type Interner struct {
	base   *Interner
	offset StringID
	byID   []string            // индекс - offset -> строка
	index  map[string]StringID // строка -> ID
	frozen bool
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""}, // NoStringID → пустая строка
		index: map[string]StringID{"": NoStringID},
	}
}

// Fork returns a fresh writable layer on top of i. The receiver must be
// frozen; concurrent forks of the same base are safe.
func (i *Interner) Fork() *Interner {
	if !i.frozen {
		panic("source: Fork on a mutable interner")
	}
	return &Interner{
		base:   i,
		offset: StringID(i.Len()),
		index:  make(map[string]StringID),
	}
}

// Freeze forbids further insertions. Lookups stay valid.
func (i *Interner) Freeze() { i.frozen = true }

// Frozen reports whether Freeze was called.
func (i *Interner) Frozen() bool { return i.frozen }

// Intern вставляет строку и возвращает её ID.
// Если строка уже есть (в этом слое или в базовом), возвращает её ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.find(s); ok {
		return id
	}
	if i.frozen {
		panic(fmt.Sprintf("source: intern %q into frozen interner", s))
	}

	// Собственная копия, чтобы не зависеть от исходного буфера.
	cpy := string([]byte(s))
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	id := i.offset + StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// InternBytes inserts b as a string.
func (i *Interner) InternBytes(b []byte) StringID {
	return i.Intern(string(b))
}

// Find returns the ID of s without inserting it.
func (i *Interner) Find(s string) (StringID, bool) {
	return i.find(s)
}

func (i *Interner) find(s string) (StringID, bool) {
	if i.base != nil {
		if id, ok := i.base.find(s); ok {
			return id, true
		}
	}
	id, ok := i.index[s]
	return id, ok
}

// Lookup возвращает строку по ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if id < i.offset {
		return i.base.Lookup(id)
	}
	local := int(id - i.offset)
	if local >= len(i.byID) {
		return "", false
	}
	return i.byID[local], true
}

// MustLookup паникует на невалидном ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has проверяет, валиден ли ID.
func (i *Interner) Has(id StringID) bool {
	_, ok := i.Lookup(id)
	return ok
}

// Len returns the number of IDs addressable through this layer, including
// NoStringID and every base layer.
func (i *Interner) Len() int {
	return int(i.offset) + len(i.byID)
}

// Snapshot returns a copy of every string addressable through this layer,
// indexed by ID.
func (i *Interner) Snapshot() []string {
	var out []string
	if i.base != nil {
		out = i.base.Snapshot()
	}
	return append(out, slices.Clone(i.byID)...)
}
