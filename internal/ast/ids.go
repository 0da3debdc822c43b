package ast

type (
	ExprID    uint32
	PayloadID uint32
	// SymbolRef is the resolver's symbol handle carried opaquely by nodes.
	SymbolRef uint32
)

const (
	NoExprID    ExprID    = 0
	NoPayloadID PayloadID = 0
	NoSymbolRef SymbolRef = 0
)

func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
func (id SymbolRef) IsValid() bool { return id != NoSymbolRef }
