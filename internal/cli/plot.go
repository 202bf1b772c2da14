package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/pipeline"
	"github.com/matzehuels/lindhard/pkg/render"
)

// plotOptions holds the flags of the plot command.
type plotOptions struct {
	output    string
	axis      string
	index     int
	component int
	title     string
}

// plotCommand creates the plot command for drawing grid slices.
func (c *CLI) plotCommand() *cobra.Command {
	var po plotOptions

	cmd := &cobra.Command{
		Use:   "plot [chi.dx]",
		Short: "Render one slice of a grid file as a heatmap",
		Long: `Render one slice of a grid file as a heatmap.

The slice is perpendicular to --axis at mesh index --index. For files with
several values per point (bands, or the real and imaginary part of chi)
--component picks the column. The image format follows the output
extension: png (default), svg or pdf.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlot(cmd.Context(), args[0], po)
		},
	}

	cmd.Flags().StringVarP(&po.output, "output", "o", "", "output image (default <input>_<axis><index>.png)")
	cmd.Flags().StringVar(&po.axis, "axis", string(render.AxisZ), "slice normal: x, y, z")
	cmd.Flags().IntVar(&po.index, "index", 0, "mesh index of the slice along --axis")
	cmd.Flags().IntVar(&po.component, "component", 0, "value column to draw")
	cmd.Flags().StringVar(&po.title, "title", "", "plot title (default \"<axis> = <index>\")")

	return cmd
}

// runPlot decodes the input, cuts the slice and writes the image.
func (c *CLI) runPlot(ctx context.Context, input string, po plotOptions) error {
	if po.output == "" {
		base := strings.TrimSuffix(filepath.Base(input), ".gz")
		base = strings.TrimSuffix(base, filepath.Ext(base))
		po.output = filepath.Join(filepath.Dir(input), fmt.Sprintf("%s_%s%d.%s", base, strings.ToLower(po.axis), po.index, render.FormatPNG))
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(po.output)), ".")
	if !render.ValidFormats[format] {
		return errors.UnsupportedFormatError(format, render.FormatPNG, render.FormatSVG, render.FormatPDF)
	}

	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, _, err := runner.Decode(ctx, pipeline.Options{Input: input, Logger: c.Logger})
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering heatmap...")
	spinner.Start()

	if err := writePlot(g.Values.Field(), po, format); err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s = %d", strings.ToLower(po.axis), po.index))
	printFile(po.output)
	return nil
}

func writePlot(f *grid.Field, po plotOptions, format string) (err error) {
	plane, err := render.Slice(f, render.Axis(po.axis), po.index, po.component)
	if err != nil {
		return err
	}
	opts := render.Options{Title: po.title}
	plt, err := render.Heatmap(plane, opts)
	if err != nil {
		return err
	}

	out, err := os.Create(po.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return render.Write(out, plt, format, opts)
}
