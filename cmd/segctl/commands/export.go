package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
)

var exportOutput string

// ExportFormat represents the structure for exporting segments. It matches
// the segments file the file store reads, so an export can be served
// directly with STORE_TYPE=file.
type ExportFormat struct {
	Segments []snapshot.SegmentView `yaml:"segments" json:"segments"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export segments to a file",
	Long: `Export all segments from the specified environment to a YAML or JSON file.

Examples:
  segctl export --env prod --output segments.yaml
  segctl export --env prod --output segments.json --format json
  segctl export --env prod > backup.yaml`,
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

		exportData := ExportFormat{Segments: segments}

		// Determine output destination
		var output *os.File
		if exportOutput == "" || exportOutput == "-" {
			output = os.Stdout
		} else {
			output, err = os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}

		switch format {
		case "json":
			encoder := json.NewEncoder(output)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
		case "yaml", "table":
			// Default to YAML for export
			encoder := yaml.NewEncoder(output)
			defer encoder.Close()
			encoder.SetIndent(2)
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
		default:
			return fmt.Errorf("unsupported export format: %s", format)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(os.Stderr, "Successfully exported %d segment(s) to %s\n", len(segments), exportOutput)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
