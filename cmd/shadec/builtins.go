package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadec/internal/diagfmt"
	"shadec/internal/driver"
	"shadec/internal/symbols"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins [flags] [module...]",
	Short: "List the built-in modules and their declarations",
	RunE:  runBuiltins,
}

func init() {
	builtinsCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack|yaml)")
	builtinsCmd.Flags().Bool("raw", false, "print the built-in TOML source and exit")
}

func runBuiltins(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return fmt.Errorf("failed to get raw flag: %w", err)
	}
	if raw {
		_, err := cmd.OutOrStdout().Write(symbols.DefaultBuiltins())
		return err
	}

	universe, err := loadUniverse(cmd)
	if err != nil {
		return err
	}
	if universe == nil {
		universe = symbols.DefaultUniverse()
	}
	// roots already carry the modules extending them
	names := args
	if len(names) == 0 {
		for _, name := range universe.Modules() {
			if scope, _ := universe.Module(name); !universe.Table().Scope(scope).Parent.IsValid() {
				names = append(names, name)
			}
		}
	}

	dumps := make([]driver.ModuleDump, 0, len(names))
	for _, name := range names {
		scope, ok := universe.Module(name)
		if !ok {
			return fmt.Errorf("unknown built-in module %q", name)
		}
		parent := ""
		if p := universe.Table().Scope(scope).Parent; p.IsValid() {
			parent = universe.Table().Scope(p).Name
		}
		dumps = append(dumps, driver.ModuleDump{Name: name, Parent: parent, Scope: universe.Table().Snapshot(scope)})
	}

	if format == "pretty" {
		colored, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		for _, d := range dumps {
			if err := diagfmt.ScopeTree(cmd.OutOrStdout(), d.Scope, colored); err != nil {
				return err
			}
		}
		return nil
	}
	encoding, err := driver.ParseDumpFormat(format)
	if err != nil {
		return err
	}
	return driver.WriteDump(cmd.OutOrStdout(), dumps, encoding)
}
