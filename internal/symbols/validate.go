package symbols

import (
	"errors"
	"fmt"
	"slices"

	"shadec/internal/source"
)

// Validate walks the table's own layer checking structural invariants. Returns
// nil if everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	t.Scopes.Each(func(id ScopeID, scope *Scope) {
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("%s has invalid kind", id))
		}
		if scope.Parent.IsValid() {
			parent := t.Scope(scope.Parent)
			switch {
			case parent == nil || scope.Parent == id:
				errs = append(errs, fmt.Errorf("%s has invalid parent %s", id, scope.Parent))
			case scope.Parent.Shared() == id.Shared() && !slices.Contains(parent.Children, id):
				errs = append(errs, fmt.Errorf("%s parent %s missing backlink", id, scope.Parent))
			}
		}
		for _, child := range scope.Children {
			cs := t.Scope(child)
			if cs == nil || child == id {
				errs = append(errs, fmt.Errorf("%s has invalid child %s", id, child))
				continue
			}
			if cs.Parent != id {
				errs = append(errs, fmt.Errorf("%s child %s missing parent backlink", id, child))
			}
		}
		errs = append(errs, t.validateBindings(id, scope)...)
		for _, sym := range scope.Owned {
			if s := t.Symbol(sym); s != nil && s.Owner != id {
				errs = append(errs, fmt.Errorf("%s owns symbol %d recorded under %s", id, sym, s.Owner))
			}
		}
	})

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		sym := &t.Symbols.data[idx]
		if sym.Kind == SymbolInvalid {
			continue
		}
		if t.Scope(sym.Owner) == nil {
			errs = append(errs, fmt.Errorf("symbol %d has released owner %s", idx, sym.Owner))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) validateBindings(id ScopeID, scope *Scope) []error {
	var errs []error
	for key, seq := range scope.NameIndex {
		if key == source.NoStringID {
			errs = append(errs, fmt.Errorf("%s binds the empty name", id))
		}
		if len(seq) == 0 {
			errs = append(errs, fmt.Errorf("%s has an empty slot for %d", id, key))
			continue
		}
		for i, symID := range seq {
			sym := t.Symbol(symID)
			if sym == nil {
				continue // released by its owner
			}
			if sym.Name != key {
				errs = append(errs, fmt.Errorf("%s slot %q holds symbol %d named %q",
					id, t.Strings.MustLookup(key), symID, t.Strings.MustLookup(sym.Name)))
			}
			if len(seq) > 1 && sym.Kind != SymbolFunction {
				errs = append(errs, fmt.Errorf("%s slot %q chains non-function symbol %d at %d",
					id, t.Strings.MustLookup(key), symID, i))
			}
		}
	}
	return errs
}
