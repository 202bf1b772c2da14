package render

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

// Axis names the mesh axis a slice is taken perpendicular to.
type Axis string

// Mesh axes.
const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Image formats supported by Write.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported image formats.
var ValidFormats = map[string]bool{
	FormatPNG: true,
	FormatSVG: true,
	FormatPDF: true,
}

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// paletteSize is the number of colours the heatmap palette is sampled at.
const paletteSize = 255

// Options controls the look of a heatmap.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o *Options) setDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
}

// Plane is a two-dimensional slice of a field. It implements
// plotter.GridXYZ with column c and row r addressing Data[r*Cols+c].
type Plane struct {
	Axis  Axis
	Index int
	Cols  int
	Rows  int
	Data  []float64

	// XLabel and YLabel name the in-plane axes.
	XLabel, YLabel string
}

// Dims implements plotter.GridXYZ.
func (p *Plane) Dims() (c, r int) { return p.Cols, p.Rows }

// Z implements plotter.GridXYZ.
func (p *Plane) Z(c, r int) float64 { return p.Data[r*p.Cols+c] }

// X implements plotter.GridXYZ.
func (p *Plane) X(c int) float64 { return float64(c) }

// Y implements plotter.GridXYZ.
func (p *Plane) Y(r int) float64 { return float64(r) }

// Range returns the smallest and largest value of the plane.
func (p *Plane) Range() (lo, hi float64) {
	return floats.Min(p.Data), floats.Max(p.Data)
}

// Slice cuts the plane perpendicular to axis at mesh index and keeps
// component c of every point.
func Slice(f *grid.Field, axis Axis, index, c int) (*Plane, error) {
	if c < 0 || c >= f.Components {
		return nil, errors.New(errors.ErrCodeInvalidInput, "component %d out of range [0, %d)", c, f.Components)
	}

	axis = Axis(strings.ToLower(string(axis)))
	d := f.Dims
	var n, cols, rows int
	var at func(u, v int) float64
	p := &Plane{Axis: axis, Index: index}
	switch axis {
	case AxisX:
		n, cols, rows = d.X, d.Y, d.Z
		at = func(u, v int) float64 { return f.At(index, u, v, c) }
		p.XLabel, p.YLabel = "y", "z"
	case AxisY:
		n, cols, rows = d.Y, d.X, d.Z
		at = func(u, v int) float64 { return f.At(u, index, v, c) }
		p.XLabel, p.YLabel = "x", "z"
	case AxisZ:
		n, cols, rows = d.Z, d.X, d.Y
		at = func(u, v int) float64 { return f.At(u, v, index, c) }
		p.XLabel, p.YLabel = "x", "y"
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid axis: %q (must be one of: x, y, z)", axis)
	}
	if index < 0 || index >= n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "index %d out of range [0, %d) along %s", index, n, axis)
	}
	if cols < 2 || rows < 2 {
		return nil, errors.ShapeMismatchError("a %dx%d slice is too small to draw", cols, rows)
	}

	p.Cols, p.Rows = cols, rows
	p.Data = make([]float64, cols*rows)
	for v := 0; v < rows; v++ {
		for u := 0; u < cols; u++ {
			p.Data[v*cols+u] = at(u, v)
		}
	}
	return p, nil
}

// Heatmap builds a plot of the plane.
func Heatmap(p *Plane, opts Options) (*plot.Plot, error) {
	if p.Cols*p.Rows == 0 || len(p.Data) != p.Cols*p.Rows {
		return nil, errors.ShapeMismatchError("plane holds %d values for %dx%d cells", len(p.Data), p.Cols, p.Rows)
	}

	// The palette is sampled on [0, 1]; the heatmap rescales it to the data.
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(0)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(p, cmap.Palette(paletteSize))

	// A flat plane has no range to spread the palette over.
	if hm.Min == hm.Max {
		hm.Min -= 0.5
		hm.Max += 0.5
	}

	plt := plot.New()
	plt.Title.Text = opts.Title
	if plt.Title.Text == "" {
		plt.Title.Text = fmt.Sprintf("%s = %d", p.Axis, p.Index)
	}
	plt.X.Label.Text = p.XLabel
	plt.Y.Label.Text = p.YLabel
	plt.Add(hm)
	return plt, nil
}

// Write encodes the plot as an image in the given format.
func Write(w io.Writer, plt *plot.Plot, format string, opts Options) error {
	format = strings.ToLower(format)
	if !ValidFormats[format] {
		return errors.UnsupportedFormatError(format, FormatPNG, FormatSVG, FormatPDF)
	}
	opts.setDefaults()

	wt, err := plt.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}
