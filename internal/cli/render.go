package cli

import (
	"StrokeRecorder/internal/service/export"
	"StrokeRecorder/internal/service/raster"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	renderOut     string
	renderSurface string
	renderSize    int
	renderColumns int
	renderWidth   float64
)

func init() {
	cmd := &cobra.Command{
		Use:   "render <export.json>",
		Short: "Re-render character thumbnails and composite them into a PNG grid",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	cmd.Flags().StringVarP(&renderOut, "output", "o", "", "Output PNG path (default: handwriting-image-<unix-ms>.png)")
	cmd.Flags().StringVar(&renderSurface, "surface", fmt.Sprintf("%dx%d", raster.DefaultSurfaceSize, raster.DefaultSurfaceSize), "Capture surface size, WxH")
	cmd.Flags().IntVar(&renderSize, "size", raster.DefaultThumbnailSize, "Thumbnail side, px")
	cmd.Flags().IntVar(&renderColumns, "columns", raster.DefaultColumns, "Thumbnails per row")
	cmd.Flags().Float64Var(&renderWidth, "width", raster.DefaultStrokeWidth, "Stroke width on the capture surface")

	RootCmd.AddCommand(cmd)
}

func parseSurface(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid surface %q, want WxH: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid surface %q: sides must be positive", s)
	}
	return w, h, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	w, h, err := parseSurface(renderSurface)
	if err != nil {
		return err
	}
	chars, err := loadCharacters(args[0])
	if err != nil {
		return err
	}
	if len(chars) == 0 {
		return errors.New("export contains no characters")
	}

	r := raster.Renderer{SurfaceWidth: w, SurfaceHeight: h, ThumbnailSize: renderSize, StrokeWidth: renderWidth}
	thumbs := make([]image.Image, 0, len(chars))
	for _, c := range chars {
		img, err := r.Thumbnail(c.Strokes)
		if err != nil {
			return fmt.Errorf("character %d: %w", c.Index, err)
		}
		thumbs = append(thumbs, img)
	}
	grid, err := raster.Grid(thumbs, renderColumns)
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = export.ImageFilename(time.Now())
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := raster.EncodePNG(f, grid); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	b := grid.Bounds()
	if formatFlag == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"path": out, "characters": len(chars), "width": b.Dx(), "height": b.Dy()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d characters, %dx%d\n", out, len(chars), b.Dx(), b.Dy())
	return nil
}
