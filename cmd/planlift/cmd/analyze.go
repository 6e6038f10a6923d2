package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/pipeline"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Analyze a floorplan into a 3D room layout",
	Long: `Analyze runs the full pipeline: room boundary detection on the image,
matching of semantic rooms to detected contours, adjacency resolution and
3D placement. The image argument is optional; without it the layout is
built from synthetic geometry derived from the room data alone.

The --rooms file carries the semantic extraction result: room ids, names,
dimensions in meters and optional label pixel positions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("rooms", "", "semantic rooms JSON file (required)")
	analyzeCmd.Flags().StringP("format", "f", "json", "output format (json, pretty)")
	analyzeCmd.Flags().StringP("output", "o", "", "write result to file instead of stdout")
	analyzeCmd.Flags().String("overlay-dir", "", "write a detection overlay PNG into this directory")
	analyzeCmd.Flags().Bool("use-oracle", false, "resolve adjacency with the reasoning oracle")
	analyzeCmd.Flags().String("oracle-url", "", "oracle endpoint base URL (or PLANLIFT_ORACLE_BASE_URL)")
	_ = analyzeCmd.MarkFlagRequired("rooms")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	roomsPath, _ := cmd.Flags().GetString("rooms")
	data, err := os.ReadFile(roomsPath)
	if err != nil {
		return fmt.Errorf("read rooms file: %w", err)
	}
	req, err := floorplan.ParseRequest(data)
	if err != nil {
		return fmt.Errorf("parse rooms file: %w", err)
	}

	var img image.Image
	if len(args) == 1 {
		img, err = loadImage(args[0])
		if err != nil {
			return err
		}
	}

	pipelineCfg := cfg.ToPipelineConfig()
	if useOracle, _ := cmd.Flags().GetBool("use-oracle"); useOracle {
		pipelineCfg.UseOracle = true
	}
	if oracleURL, _ := cmd.Flags().GetString("oracle-url"); oracleURL != "" {
		pipelineCfg.Oracle.BaseURL = oracleURL
		pipelineCfg.UseOracle = true
	}
	if pipelineCfg.UseOracle && pipelineCfg.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle requested but no endpoint configured (--oracle-url or %s_ORACLE_BASE_URL)", "PLANLIFT")
	}

	pl, err := pipeline.NewBuilder().WithConfig(pipelineCfg).Build()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	result, err := pl.Analyze(cmd.Context(), img, req)
	if err != nil {
		return fmt.Errorf("analyze floorplan: %w", err)
	}

	if overlayDir := flagOrConfig(cmd, "overlay-dir", cfg.Output.OverlayDir); overlayDir != "" && img != nil {
		if err := writeOverlay(overlayDir, result.ID, img, pipelineCfg); err != nil {
			return fmt.Errorf("write overlay: %w", err)
		}
	}

	format, _ := cmd.Flags().GetString("format")
	out, err := encodeResult(result, format)
	if err != nil {
		return err
	}

	if outPath := flagOrConfig(cmd, "output", cfg.Output.File); outPath != "" {
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		return nil
	}
	_, _ = cmd.OutOrStdout().Write(out)
	return nil
}

// flagOrConfig prefers an explicitly set flag over the config value.
func flagOrConfig(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	if fallback != "" {
		return fallback
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

// loadImage reads and decodes a floorplan raster.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// writeOverlay re-runs detection and saves the contour overlay for review.
func writeOverlay(dir, id string, img image.Image, cfg pipeline.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	contours := detector.New(cfg.Detector).Detect(img)
	overlay := detector.VisualizeContours(img, contours, detector.VisualizeOptions{})
	name := strings.ReplaceAll(id, string(os.PathSeparator), "_") + "_contours.png"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, overlay)
}

// encodeResult marshals the result in the requested format.
func encodeResult(result *floorplan.FloorplanResult, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return append(out, '\n'), nil
	case "pretty":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (json, pretty)", format)
	}
}
