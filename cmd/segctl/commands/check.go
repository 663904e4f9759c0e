package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentd/internal/condition"
)

var checkCmd = &cobra.Command{
	Use:   "check <condition>",
	Short: "Check a rule condition offline",
	Long: `Parse a rule condition locally and report syntax errors with their
position. No server connection is needed.

Examples:
  segctl check "age >= 18 AND country = 'DE'"
  segctl check "status IN ('active', 'trial') AND NOT banned"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]

		rule, err := condition.Parse(text)
		if err != nil {
			return fmt.Errorf("invalid condition: %w", err)
		}

		if !quiet {
			fmt.Println("OK")
			if fields := rule.Fields(); len(fields) > 0 {
				fmt.Printf("References: %s\n", strings.Join(fields, ", "))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
