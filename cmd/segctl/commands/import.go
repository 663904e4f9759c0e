package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
	"github.com/TimurManjosov/segmentd/internal/condition"
	"github.com/TimurManjosov/segmentd/internal/store"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import segments from a file",
	Long: `Import segments from a YAML or JSON file. Every condition is parsed
locally before anything is sent, so a file with a broken rule is rejected
as a whole.

Examples:
  segctl import segments.yaml --env prod
  segctl import segments.yaml --env staging --dry-run
  segctl import segments.yaml --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Segments) == 0 {
			return fmt.Errorf("no segments found in file")
		}

		// Validate every condition before touching the server
		for _, seg := range importData.Segments {
			if _, err := condition.Parse(seg.Condition); err != nil {
				return fmt.Errorf("segment '%s': invalid condition: %w", seg.Key, err)
			}
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following segments would be imported:")
			for _, seg := range importData.Segments {
				fmt.Printf("  - %s (env: %s): %s\n", seg.Key, seg.Env, seg.Condition)
			}
			return nil
		}

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctx := context.Background()

		successCount := 0
		errorCount := 0

		for _, seg := range importData.Segments {
			// Use the environment from the segment or override with --env flag
			targetEnv := seg.Env
			if effectiveEnv != "" {
				targetEnv = effectiveEnv
			}

			params := store.UpsertParams{
				Key:         seg.Key,
				Description: seg.Description,
				Condition:   seg.Condition,
				Env:         targetEnv,
			}

			if err := c.UpsertSegment(ctx, params); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import segment '%s': %v\n", seg.Key, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
