package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
	"github.com/TimurManjosov/segmentd/internal/condition"
	"github.com/TimurManjosov/segmentd/internal/store"
)

var (
	createCondition   string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create or update a segment",
	Long: `Create a segment with the specified key and rule condition.
The condition is parsed locally before the request is sent, so syntax
errors are reported without a round trip.

Examples:
  segctl create power_users --condition "age >= 18 AND country = 'DE'" --env prod
  segctl create dormant --condition "last_login IS NULL OR status = 'inactive'"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if createCondition == "" {
			return fmt.Errorf("--condition is required")
		}
		if _, err := condition.Parse(createCondition); err != nil {
			return fmt.Errorf("invalid condition: %w", err)
		}

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		params := store.UpsertParams{
			Key:         key,
			Description: createDescription,
			Condition:   createCondition,
			Env:         effectiveEnv,
		}

		ctx := context.Background()
		if err := c.UpsertSegment(ctx, params); err != nil {
			return fmt.Errorf("failed to create segment: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully created segment '%s' in environment '%s'\n", key, effectiveEnv)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createCondition, "condition", "", "Segment rule condition")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Segment description")
}
