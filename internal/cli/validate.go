package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cspdemo/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a cspdemo config file",
	Long: `Load and validate a cspdemo YAML config file without starting the server.

Checks for YAML syntax errors, malformed directives (empty source lists,
duplicate names, separators inside sources) and missing required fields.
Exits 0 on success, 1 on validation failure.`,
	Example: `  cspdemo validate demo.yaml
  cspdemo validate demo.yaml && echo "Config OK"`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, err := config.Load(args[0])
	if err != nil {
		cmd.PrintErrln(err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("validation failed")
	}
	cmd.Println("config OK")
	return nil
}
