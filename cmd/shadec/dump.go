package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shadec/internal/diagfmt"
	"shadec/internal/driver"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <module.toml|module.yaml>...",
	Short: "Check module descriptions and print their scopes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack|yaml)")
	dumpCmd.Flags().StringSlice("module", nil, "modules to dump (default: every module extending a built-in one)")
	dumpCmd.Flags().StringP("output", "o", "", "write the dump to this file instead of stdout")
	addModuleFlags(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	modules, err := cmd.Flags().GetStringSlice("module")
	if err != nil {
		return fmt.Errorf("failed to get module flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	var encoding driver.DumpFormat
	if format != "pretty" {
		if encoding, err = driver.ParseDumpFormat(format); err != nil {
			return err
		}
	}

	res, err := runDriver(cmd, args)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, res.Bag, res); err != nil {
		return err
	}
	printTimings(cmd, res)

	dumps, err := res.Snapshots(modules...)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, output)
	if err != nil {
		return err
	}
	defer closeOut()

	if format == "pretty" {
		colored := false
		if output == "" {
			if colored, err = useColor(cmd, os.Stdout); err != nil {
				return err
			}
		}
		for _, d := range dumps {
			if err := diagfmt.ScopeTree(out, d.Scope, colored); err != nil {
				return err
			}
		}
	} else if err := driver.WriteDump(out, dumps, encoding); err != nil {
		return err
	}

	if res.Bag.HasErrors() {
		return errFailed
	}
	return nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close %s: %v\n", path, err)
		}
	}, nil
}
