package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lherron/fitmigrate/internal/cli/appctx"
	"github.com/lherron/fitmigrate/internal/config"
	"github.com/lherron/fitmigrate/internal/export"
	"github.com/lherron/fitmigrate/internal/id"
	"github.com/lherron/fitmigrate/internal/parse"
	"github.com/lherron/fitmigrate/internal/render"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check source exports and configuration",
	Long: `Reports, per table, whether its CSV export is present and readable, how
many rows it holds and how many belong to the source user. Also checks the
configured identifiers and the output location.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runDoctor),
}

var (
	doctorJSON    bool
	doctorVerbose bool
)

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

type checkResult struct {
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Status   string   `json:"status" yaml:"status"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Details  []string `json:"details,omitempty" yaml:"details,omitempty"`
}

type doctorReport struct {
	Version       string        `json:"version" yaml:"version"`
	SourceDir     string        `json:"source_dir" yaml:"source_dir"`
	Checks        []checkResult `json:"checks" yaml:"checks"`
	Warnings      int           `json:"warnings" yaml:"warnings"`
	Errors        int           `json:"errors" yaml:"errors"`
	OverallStatus string        `json:"overall_status" yaml:"overall_status"`
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output JSON")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false, "Verbose output")
}

func runDoctor(app *appctx.App, cmd *cobra.Command, args []string) error {
	cfg := app.Config
	report := buildDoctorReport(cfg)

	switch {
	case doctorJSON || cfg.Output == string(render.FormatJSON):
		if err := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON, Porcelain: cfg.Porcelain}).RenderJSON(report); err != nil {
			return err
		}
	case cfg.Output == string(render.FormatYAML):
		if err := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatYAML}).RenderYAML(report); err != nil {
			return err
		}
	case cfg.Porcelain:
		printPorcelainReport(cmd, report)
	default:
		printHumanReport(cmd, report)
	}

	if report.Errors > 0 {
		return fmt.Errorf("doctor found %d error(s)", report.Errors)
	}
	return nil
}

func buildDoctorReport(cfg *config.Config) *doctorReport {
	report := &doctorReport{
		Version:       Version,
		SourceDir:     cfg.SourceDir,
		Checks:        []checkResult{},
		OverallStatus: statusOK,
	}

	report.Checks = append(report.Checks, checkSourceDir(cfg))
	for _, table := range export.Tables(cfg.Schema, cfg.SourceUserID, cfg.PlaceholderID) {
		report.Checks = append(report.Checks, checkSourceFile(cfg, table))
	}
	report.Checks = append(report.Checks, checkIdentifiers(cfg)...)
	report.Checks = append(report.Checks, checkOutputPath(cfg.OutputPath))

	for _, check := range report.Checks {
		switch check.Status {
		case statusWarning:
			report.Warnings++
		case statusError:
			report.Errors++
			report.OverallStatus = statusError
		}
	}

	if report.Warnings > 0 && report.OverallStatus == statusOK {
		report.OverallStatus = statusWarning
	}

	return report
}

func checkSourceDir(cfg *config.Config) checkResult {
	dir := cfg.SourceDir
	result := checkResult{Name: "source_dir", Category: "Sources"}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Source directory not found: %s, every table will be skipped", dir)
		if cfg.Strict {
			result.Status = statusError
			result.Message = fmt.Sprintf("Source directory not found: %s (strict mode)", dir)
		}
	case err != nil:
		result.Status = statusError
		result.Message = fmt.Sprintf("Source directory: %v", err)
	case !info.IsDir():
		result.Status = statusError
		result.Message = fmt.Sprintf("Source path is not a directory: %s", dir)
	default:
		result.Status = statusOK
		result.Message = fmt.Sprintf("Source directory: %s", dir)
	}
	return result
}

func checkSourceFile(cfg *config.Config, table export.Table) checkResult {
	path := cfg.SourcePath(table.File)
	result := checkResult{Name: "source_" + table.Name, Category: "Sources"}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%s: missing, %s will be skipped", table.File, table.Name)
			if cfg.Strict {
				result.Status = statusError
				result.Message = fmt.Sprintf("%s: missing (strict mode)", table.File)
			}
			return result
		}
		result.Status = statusError
		result.Message = fmt.Sprintf("%s: %v", table.File, err)
		return result
	}
	defer f.Close()

	reader, err := parse.NewReader(f)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("%s: %v", table.File, err)
		return result
	}

	header := make(map[string]bool, len(reader.Header()))
	for _, name := range reader.Header() {
		header[name] = true
	}
	for _, column := range table.ColumnNames() {
		if !header[column] {
			result.Details = append(result.Details, fmt.Sprintf("column %q not in header; it will be written as NULL or 0", column))
		}
	}

	total, owned := 0, 0
	err = reader.Each(func(row parse.Row) error {
		total++
		if table.Filter(row) {
			owned++
		}
		return nil
	})
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("%s: %v", table.File, err)
		return result
	}

	result.Status = statusOK
	if len(result.Details) > 0 {
		result.Status = statusWarning
	}
	result.Message = fmt.Sprintf("%s: %d row(s), %d owned by source user", table.File, total, owned)
	return result
}

func checkIdentifiers(cfg *config.Config) []checkResult {
	source := checkResult{Name: "source_user_id", Category: "Identifiers", Status: statusOK}
	switch warning := id.CheckUserID("source user id", cfg.SourceUserID); {
	case cfg.SourceUserID == "":
		source.Status = statusWarning
		source.Message = "Source user id not set; generate will refuse to run"
	case warning != "":
		source.Status = statusWarning
		source.Message = warning
	default:
		source.Message = fmt.Sprintf("Source user id: %s", cfg.SourceUserID)
	}

	placeholder := checkResult{Name: "placeholder_id", Category: "Identifiers", Status: statusOK}
	switch {
	case cfg.PlaceholderID == config.DefaultPlaceholderID:
		placeholder.Status = statusWarning
		placeholder.Message = fmt.Sprintf("Placeholder %q must be replaced before the script is run", cfg.PlaceholderID)
	case !id.IsUUID(cfg.PlaceholderID):
		placeholder.Status = statusWarning
		placeholder.Message = id.CheckUserID("placeholder", cfg.PlaceholderID)
	default:
		placeholder.Message = fmt.Sprintf("Placeholder: %s", cfg.PlaceholderID)
	}
	if cfg.PlaceholderID == cfg.SourceUserID {
		placeholder.Details = append(placeholder.Details, "placeholder equals the source user id; rows keep their owner")
	}

	return []checkResult{source, placeholder}
}

func checkOutputPath(path string) checkResult {
	result := checkResult{Name: "output_path", Category: "Output", Status: statusOK}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			result.Status = statusError
			result.Message = fmt.Sprintf("Output path is a directory: %s", path)
			return result
		}
		result.Message = fmt.Sprintf("%s exists and will be overwritten", path)
		return result
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		result.Message = fmt.Sprintf("%s will be created (directory %s does not exist yet)", path, dir)
		return result
	}

	result.Message = fmt.Sprintf("%s will be created", path)
	return result
}

// printPorcelainReport writes one tab-separated line per check
func printPorcelainReport(cmd *cobra.Command, report *doctorReport) {
	rows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		rows = append(rows, []string{check.Category, check.Name, check.Status, check.Message})
	}
	render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatTSV}).
		RenderTSV([]string{"Category", "Check", "Status", "Message"}, rows)
}

func printHumanReport(cmd *cobra.Command, report *doctorReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "fitmigrate doctor %s\n\n", report.Version)

	for _, category := range []string{"Sources", "Identifiers", "Output"} {
		printed := false
		for _, check := range report.Checks {
			if check.Category != category {
				continue
			}
			if !printed {
				fmt.Fprintf(out, "%s\n", category)
				printed = true
			}

			icon := "✓"
			if check.Status == statusWarning {
				icon = "⚠"
			} else if check.Status == statusError {
				icon = "✗"
			}

			fmt.Fprintf(out, "  %s %s\n", icon, check.Message)

			if doctorVerbose {
				for _, detail := range check.Details {
					fmt.Fprintf(out, "      %s\n", detail)
				}
			}
		}
		if printed {
			fmt.Fprintln(out)
		}
	}

	if report.Errors > 0 {
		fmt.Fprintf(out, "Summary: %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	} else if report.Warnings > 0 {
		fmt.Fprintf(out, "Summary: %d warning(s)\n", report.Warnings)
	} else {
		fmt.Fprintf(out, "Summary: All checks passed ✓\n")
	}

	if !doctorVerbose && (report.Warnings > 0 || report.Errors > 0) {
		fmt.Fprintf(out, "\nRun with --verbose for detailed information\n")
	}
}
