package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"shadec/internal/symbols"
)

// DumpFormat selects the encoding of scope snapshots.
type DumpFormat string

const (
	DumpJSON    DumpFormat = "json"
	DumpMsgpack DumpFormat = "msgpack"
	DumpYAML    DumpFormat = "yaml"
)

// ParseDumpFormat accepts json, msgpack (or mp) and yaml (or yml).
func ParseDumpFormat(s string) (DumpFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return DumpJSON, nil
	case "msgpack", "mp":
		return DumpMsgpack, nil
	case "yaml", "yml":
		return DumpYAML, nil
	}
	return "", fmt.Errorf("unknown dump format %q (want json, msgpack or yaml)", s)
}

// ModuleDump is the snapshot of one module scope subtree.
type ModuleDump struct {
	Name   string                `json:"name" msgpack:"name" yaml:"name"`
	Parent string                `json:"parent" msgpack:"parent" yaml:"parent"`
	Scope  symbols.ScopeSnapshot `json:"scope" msgpack:"scope" yaml:"scope"`
}

// Snapshots captures the named modules. Without names it captures the
// modules that extend a builtin module directly; their subtrees already
// contain the modules extending them.
func (r *CheckResult) Snapshots(names ...string) ([]ModuleDump, error) {
	var picked []*ModuleResult
	if len(names) == 0 {
		for _, m := range r.Modules {
			if parent := m.Table.Scope(m.Scope).Parent; parent.Shared() {
				picked = append(picked, m)
			}
		}
	} else {
		for _, name := range names {
			m := r.Module(name)
			if m == nil {
				return nil, fmt.Errorf("module %q was not checked", name)
			}
			picked = append(picked, m)
		}
	}
	out := make([]ModuleDump, 0, len(picked))
	for _, m := range picked {
		out = append(out, ModuleDump{Name: m.Name, Parent: m.Parent, Scope: m.Table.Snapshot(m.Scope)})
	}
	return out, nil
}

// WriteDump encodes v to w.
func WriteDump(w io.Writer, v any, format DumpFormat) error {
	switch format {
	case DumpJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case DumpMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(v)
	case DumpYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown dump format %q", format)
}
