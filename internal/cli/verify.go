package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lherron/fitmigrate/internal/cli/appctx"
	"github.com/lherron/fitmigrate/internal/config"
	"github.com/lherron/fitmigrate/internal/db"
	"github.com/lherron/fitmigrate/internal/export"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [script]",
	Short: "Load a generated script into a scratch SQLite database",
	Long: `Loads a generated script (default: the configured output path) into a
throwaway SQLite database with the destination tables, then reports the rows
each table received. Fails when a statement does not load or when any row is
owned by something other than the placeholder.

The destination database is never contacted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runVerify),
}

var verifyKeep string

type verifyReport struct {
	Script        string            `json:"script" yaml:"script"`
	PlaceholderID string            `json:"placeholder_id" yaml:"placeholder_id"`
	Tables        []db.TableSummary `json:"tables" yaml:"tables"`
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyKeep, "keep", "", "Keep the scratch database at this path for inspection")
}

func runVerify(app *appctx.App, cmd *cobra.Command, args []string) error {
	cfg := app.Config

	scriptPath := cfg.OutputPath
	if len(args) == 1 {
		scriptPath = args[0]
	}

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	dbPath := db.MemoryPath
	if verifyKeep != "" {
		dbPath = verifyKeep
	}

	scratch, err := db.Open(dbPath, cfg.Schema)
	if err != nil {
		return err
	}
	defer scratch.Close()

	if _, err := scratch.Migrate(); err != nil {
		return err
	}

	if err := scratch.LoadScript(string(script)); err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}
	app.Logger.Debug("script loaded", "script", scriptPath, "database", scratch.Path())

	var names []string
	for _, table := range export.Tables(cfg.Schema, cfg.SourceUserID, cfg.PlaceholderID) {
		names = append(names, table.Name)
	}

	summaries, err := scratch.Summarize(names)
	if err != nil {
		return err
	}

	report := verifyReport{Script: scriptPath, PlaceholderID: cfg.PlaceholderID, Tables: summaries}
	if err := renderVerifyReport(cmd, cfg, report); err != nil {
		return err
	}

	var foreign []string
	for _, summary := range summaries {
		for _, owner := range summary.Owners {
			if owner != cfg.PlaceholderID {
				foreign = append(foreign, fmt.Sprintf("%s:%s", summary.Table, owner))
			}
		}
	}
	if len(foreign) > 0 {
		return fmt.Errorf("rows not owned by placeholder %q: %s", cfg.PlaceholderID, strings.Join(foreign, ", "))
	}

	return nil
}

func renderVerifyReport(cmd *cobra.Command, cfg *config.Config, report verifyReport) error {
	r, err := newRenderer(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}

	headers := []string{"Table", "Rows", "Owners"}
	rows := make([][]string, 0, len(report.Tables))
	for _, t := range report.Tables {
		rows = append(rows, []string{t.Table, strconv.Itoa(t.Rows), strings.Join(t.Owners, ",")})
	}

	return r.Render(report, headers, rows)
}
