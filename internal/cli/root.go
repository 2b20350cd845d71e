package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fitmigrate",
	Short: "Generate SQL to move one user's fitness data to a new account",
	Long: `fitmigrate reads the per-table CSV exports of the fitness tracker
(weekly_plan, sessions, daily_nutrition) and writes a SQL script of INSERT
statements that recreate one user's rows under a placeholder user id.
Substitute the placeholder with the new account's id before running the
script against the destination database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("source-dir", "", "Directory holding the *_rows.csv exports (overrides FITMIGRATE_SOURCE_DIR)")
	flags.String("out", "", "Path of the SQL script to write (overrides FITMIGRATE_OUTPUT)")
	flags.String("source-user", "", "User id whose rows are migrated (overrides FITMIGRATE_SOURCE_USER_ID)")
	flags.String("placeholder", "", "User id written into every row (overrides FITMIGRATE_PLACEHOLDER_ID)")
	flags.String("schema", "", "Destination schema (overrides FITMIGRATE_SCHEMA)")
	flags.Bool("strict", false, "Fail when a source export file is missing")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("format", "", "Report format: table, json, yaml, tsv")
	flags.Bool("porcelain", false, "Machine-readable output: compact JSON, TSV instead of tables")
}
