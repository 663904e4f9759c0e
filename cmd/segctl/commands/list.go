package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all segments",
	Long: `List all segments in the specified environment.

Examples:
  segctl list --env prod
  segctl list --env prod --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		segments, err := c.ListSegments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}

		if !quiet {
			if len(segments) == 0 {
				fmt.Println("No segments found")
				return nil
			}
			return cli.PrintSegments(segments, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
