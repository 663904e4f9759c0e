package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/segmentd/internal/evaluation"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintSegments outputs segments in the specified format
func PrintSegments(segments []snapshot.SegmentView, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]snapshot.SegmentView{"segments": segments})
	case FormatYAML:
		return printYAML(segments)
	case FormatTable:
		return printSegmentTable(segments)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintSegment outputs a single segment in the specified format
func PrintSegment(segment *snapshot.SegmentView, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(segment)
	case FormatYAML:
		return printYAML(segment)
	case FormatTable:
		return printSegmentTable([]snapshot.SegmentView{*segment})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResults outputs evaluation results in the specified format
func PrintResults(results []evaluation.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]evaluation.Result{"results": results})
	case FormatYAML:
		return printYAML(results)
	case FormatTable:
		return printResultTable(results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printSegmentTable(segments []snapshot.SegmentView) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "Condition", "Env", "Description", "Updated At")

	for _, seg := range segments {
		condition := seg.Condition
		if len(condition) > 60 {
			condition = condition[:57] + "..."
		}
		description := seg.Description
		if len(description) > 30 {
			description = description[:27] + "..."
		}

		table.Append(
			seg.Key,
			condition,
			seg.Env,
			description,
			seg.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

func printResultTable(results []evaluation.Result) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Segment", "Matched", "Diagnostic")

	for _, res := range results {
		matched := "no"
		if res.Matched {
			matched = "yes"
		}
		table.Append(res.Segment, matched, res.Diagnostic)
	}

	return table.Render()
}
