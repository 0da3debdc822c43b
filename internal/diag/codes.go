package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Семантические: scopes and name resolution.
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaDuplicateSymbol  Code = 3002
	SemaScopeMismatch    Code = 3003
	SemaShadowSymbol     Code = 3004
	SemaUnresolvedSymbol Code = 3005
	SemaNotAType         Code = 3006
	SemaBadArraySize     Code = 3007
	SemaNotAnAggregate   Code = 3008
	SemaBadDeclaration   Code = 3009

	// Module descriptions.
	IOLoadFileError Code = 4001

	ProjInfo            Code = 5000
	ProjDuplicateModule Code = 5001
	ProjMissingModule   Code = 5002
	ProjModuleCycle     Code = 5003
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SemaInfo:             "Semantic information",
		SemaError:            "Semantic error",
		SemaDuplicateSymbol:  "Duplicate symbol",
		SemaScopeMismatch:    "Scope mismatch",
		SemaShadowSymbol:     "Shadowed symbol",
		SemaUnresolvedSymbol: "Unknown identifier",
		SemaNotAType:         "Name does not denote a type",
		SemaBadArraySize:     "Invalid array size",
		SemaNotAnAggregate:   "Type has no fields",
		SemaBadDeclaration:   "Malformed declaration",
		IOLoadFileError:      "I/O load file error",
		ProjInfo:             "Project information",
		ProjDuplicateModule:  "Duplicate module definition",
		ProjMissingModule:    "Missing module",
		ProjModuleCycle:      "Module parent cycle detected",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
