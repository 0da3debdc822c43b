package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"shadec/internal/symbols"
)

type treeNode struct {
	label    string
	children []*treeNode
}

// ScopeTree prints a scope snapshot as an indented tree. Binding names of a
// scope are padded to a common width.
func ScopeTree(w io.Writer, snap symbols.ScopeSnapshot, colored bool) error {
	name := color.New(color.Bold)
	kind := color.New(color.FgCyan)
	for _, c := range []*color.Color{name, kind} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	var lines []string
	renderTree(buildScopeNode(snap, name, kind), "", true, true, &lines)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func buildScopeNode(snap symbols.ScopeSnapshot, name, kind *color.Color) *treeNode {
	label := kind.Sprint(snap.Kind)
	if snap.Name != "" {
		label += " " + name.Sprint(snap.Name)
	}
	label += " " + snap.ID
	var flags []string
	if snap.Builtin {
		flags = append(flags, "builtin")
	}
	if snap.ModuleBoundary {
		flags = append(flags, "boundary")
	}
	if len(flags) > 0 {
		label += " [" + strings.Join(flags, ", ") + "]"
	}
	node := &treeNode{label: label}

	pad := 0
	for _, b := range snap.Bindings {
		pad = max(pad, runewidth.StringWidth(b.Name))
	}
	for _, b := range snap.Bindings {
		for i, sym := range b.Symbols {
			shown := b.Name
			if i > 0 {
				shown = ""
			}
			node.children = append(node.children, &treeNode{
				label: runewidth.FillRight(shown, pad) + "  " + describeSymbol(sym),
			})
		}
	}
	if len(snap.Strings) > 0 {
		node.children = append(node.children, &treeNode{label: "owned strings: " + strings.Join(snap.Strings, ", ")})
	}
	for _, child := range snap.Children {
		node.children = append(node.children, buildScopeNode(child, name, kind))
	}
	return node
}

func describeSymbol(sym symbols.SymbolSnapshot) string {
	var sb strings.Builder
	sb.WriteString(sym.Kind)
	switch sym.Kind {
	case "function":
		fmt.Fprintf(&sb, " (%s) -> %s", strings.Join(sym.Params, ", "), sym.Type)
	case "field":
		fmt.Fprintf(&sb, " %s of %s#%d", sym.Type, sym.Owner, sym.Field)
	default:
		if sym.Type != "" {
			sb.WriteString(" " + sym.Type)
		}
	}
	if len(sym.Flags) > 0 {
		sb.WriteString(" [" + strings.Join(sym.Flags, ", ") + "]")
	}
	return sb.String()
}

func renderTree(node *treeNode, prefix string, last, root bool, out *[]string) {
	switch {
	case root:
		*out = append(*out, node.label)
	case last:
		*out = append(*out, prefix+"└── "+node.label)
	default:
		*out = append(*out, prefix+"├── "+node.label)
	}
	childPrefix := prefix
	if !root {
		if last {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range node.children {
		renderTree(child, childPrefix, i == len(node.children)-1, false, out)
	}
}
