package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/layout"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <result.json>",
	Short: "Validate a layout result for overlaps and gaps",
	Long: `Validate re-checks a previously produced layout: room pairs whose
footprints overlap beyond tolerance make the layout invalid; small gaps
between almost-touching rooms are reported as warnings.

Exits non-zero when the layout is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringP("format", "f", "json", "output format (json, pretty)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read result file: %w", err)
	}

	var result floorplan.FloorplanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse result file: %w", err)
	}
	if len(result.Rooms) == 0 {
		return floorplan.ErrNoRooms
	}

	report := layout.Validate(result.Rooms)

	format, _ := cmd.Flags().GetString("format")
	var out []byte
	switch format {
	case "json":
		out, err = json.Marshal(report)
	case "pretty":
		out, err = json.MarshalIndent(report, "", "  ")
	default:
		return fmt.Errorf("unknown output format %q (json, pretty)", format)
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, _ = cmd.OutOrStdout().Write(append(out, '\n'))

	if !report.IsValid {
		return fmt.Errorf("layout invalid: %d overlapping room pairs", len(report.Overlaps))
	}
	return nil
}
