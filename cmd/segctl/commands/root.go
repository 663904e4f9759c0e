package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "segctl",
	Short: "CLI tool for managing user segments",
	Long: `Segctl is a command-line tool for managing user segments in the segmentd service.

It provides commands for creating, reading, and deleting segments, for
checking rule syntax offline, and for evaluating users against rules.

Examples:
  segctl list --env prod
  segctl create power_users --condition "age >= 18 AND country = 'DE'"
  segctl get power_users --env prod
  segctl check "status = 'active' AND NOT banned"
  segctl eval "age > 21" --user '{"id":"u1","attributes":{"age":30}}'`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the segmentd API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
