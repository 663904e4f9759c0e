package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a segment",
	Long: `Get details of a specific segment.

Examples:
  segctl get power_users --env prod
  segctl get power_users --env prod --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		ctx := context.Background()
		segment, err := c.GetSegment(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to get segment: %w", err)
		}

		if !quiet {
			return cli.PrintSegment(segment, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
