package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadec/internal/diag"
	"shadec/internal/diagfmt"
	"shadec/internal/driver"
	"shadec/internal/symbols"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <module.toml|module.yaml>...",
	Short: "Check shader module descriptions",
	Long: `Build the symbol table of every module in the given description files and
report duplicate declarations, unresolved names and module graph errors`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Int("width", 0, "truncate pretty output lines to this many cells (0=off)")
	addModuleFlags(checkCmd)
}

// addModuleFlags registers the flags runDriver reads from the command.
func addModuleFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("shadow", false, "warn when a module rebinds names of its parent module")
	cmd.Flags().String("default-parent", driver.DefaultParentModule, "built-in module extended by modules without a parent")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}

	res, err := runDriver(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, res.Bag, res.FileSet, res, diagfmt.JSONOpts{IncludeNotes: withNotes})
	default:
		colored, cerr := useColor(cmd, os.Stdout)
		if cerr != nil {
			return cerr
		}
		err = diagfmt.Pretty(out, res.Bag, res, diagfmt.PrettyOpts{Color: colored, ShowNotes: withNotes, Width: width})
	}
	if err != nil {
		return err
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet && format == "pretty" {
		summary := diagfmt.Summary(res.Bag)
		if summary == "" {
			summary = "no problems"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d modules checked: %s\n", len(res.Modules), summary)
	}
	printTimings(cmd, res)

	if res.Bag.HasErrors() || (warningsAsErrors && res.Bag.HasWarnings()) {
		return errFailed
	}
	return nil
}

// runDriver reads the shared flags and runs the checker over paths.
func runDriver(cmd *cobra.Command, paths []string) (*driver.CheckResult, error) {
	flags := cmd.Root().PersistentFlags()
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	universe, err := loadUniverse(cmd)
	if err != nil {
		return nil, err
	}

	shadow, err := cmd.Flags().GetBool("shadow")
	if err != nil {
		return nil, fmt.Errorf("failed to get shadow flag: %w", err)
	}
	defaultParent, err := cmd.Flags().GetString("default-parent")
	if err != nil {
		return nil, fmt.Errorf("failed to get default-parent flag: %w", err)
	}

	return driver.Check(cmd.Context(), paths, driver.CheckOptions{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		CheckShadow:    shadow,
		EnableTimings:  timings,
		Universe:       universe,
		DefaultParent:  defaultParent,
	})
}

// loadUniverse honours --builtins; nil means the embedded default.
func loadUniverse(cmd *cobra.Command) (*symbols.Universe, error) {
	path, err := cmd.Root().PersistentFlags().GetString("builtins")
	if err != nil {
		return nil, fmt.Errorf("failed to get builtins flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read builtins: %w", err)
	}
	u, err := symbols.LoadUniverse(data)
	if err != nil {
		return nil, fmt.Errorf("load builtins %s: %w", path, err)
	}
	return u, nil
}

func printTimings(cmd *cobra.Command, res *driver.CheckResult) {
	if res.Timing == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), res.Timing.Summary())
}

// printDiagnostics writes diagnostics to stderr for commands whose stdout
// carries other data.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, loc diagfmt.Locator) error {
	if bag.Len() == 0 {
		return nil
	}
	colored, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	return diagfmt.Pretty(cmd.ErrOrStderr(), bag, loc, diagfmt.PrettyOpts{Color: colored, ShowNotes: true})
}
