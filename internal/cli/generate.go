package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/lherron/fitmigrate/internal/cli/appctx"
	"github.com/lherron/fitmigrate/internal/export"
	"github.com/lherron/fitmigrate/internal/id"
	"github.com/lherron/fitmigrate/internal/patch"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the migration SQL script",
	Long: `Reads weekly_plan_rows.csv, sessions_rows.csv and daily_nutrition_rows.csv
from the source directory, keeps the rows owned by the source user and writes
one INSERT statement per row to the output script. Every row's user_id is
replaced by the placeholder. Missing export files are skipped unless --strict
is set.

Examples:
  fitmigrate generate --source-user 0a17aa0e-65a0-41ad-a0af-b7ce6ba83fc4
  fitmigrate generate --source-dir ./export --out ./populate_data.sql
  fitmigrate generate --check      # Diff against the existing script
  fitmigrate generate --stdout     # Print the script instead of writing it
`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.ForExport(), runGenerate),
}

var (
	generateCheck   bool
	generateStdout  bool
	generateUnified int
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "Compare with the existing output file instead of writing it")
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Write the script to stdout")
	generateCmd.Flags().IntVar(&generateUnified, "unified", 3, "Lines of unified context for --check")
}

func runGenerate(app *appctx.App, cmd *cobra.Command, args []string) error {
	cfg := app.Config
	if warning := id.CheckUserID("source user id", cfg.SourceUserID); warning != "" {
		app.Logger.Warn(warning)
	}

	exporter := export.New(cfg, app.Logger)

	switch {
	case generateCheck:
		return runGenerateCheck(app, cmd, exporter)
	case generateStdout:
		report, err := exporter.Run(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return renderReport(cmd.ErrOrStderr(), cfg, report)
	}

	report, err := exporter.Generate()
	if err != nil {
		return err
	}

	if err := renderReport(cmd.ErrOrStderr(), cfg, report); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ SQL generation complete.\n")
	fmt.Fprintf(out, "  Output: %s\n", report.OutputPath)
	fmt.Fprintf(out, "  Statements: %d\n", report.Emitted())
	fmt.Fprintf(out, "  Replace '%s' with the new user id before running it.\n", cfg.PlaceholderID)
	return nil
}

func runGenerateCheck(app *appctx.App, cmd *cobra.Command, exporter *export.Exporter) error {
	path := app.Config.OutputPath

	var fresh bytes.Buffer
	if _, err := exporter.Run(&fresh); err != nil {
		return err
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := patch.Unified(string(existing), fresh.String(), path, "regenerated", generateUnified)
	if err != nil {
		return err
	}

	if !result.Changed {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is up to date\n", path)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Diff)
	return fmt.Errorf("%s is out of date (+%d -%d lines)", path, result.Added, result.Removed)
}
