package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

//go:embed usage.md
var usageContent string

var usageCmd = &cobra.Command{
	Use:     "usage",
	Aliases: []string{"info"},
	Short:   "Display the migration runbook",
	Long:    `Displays the embedded operator notes for exporting, generating, verifying and applying a migration script.`,
	RunE:    runUsage,
}

var usageJSON bool

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Output as JSON")
}

func runUsage(cmd *cobra.Command, args []string) error {
	if usageJSON {
		output := map[string]interface{}{
			"content": usageContent,
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	fmt.Fprint(cmd.OutOrStdout(), usageContent)
	return nil
}
