//go:build !shadec_debug

package symbols

func debugScopeMismatch(ScopeID, ScopeID) {}
