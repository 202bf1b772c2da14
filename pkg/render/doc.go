// Package render draws two-dimensional slices of grid data as heatmaps.
//
// # Overview
//
// A [grid.Field] is a volume; a heatmap shows one plane of it. [Slice]
// cuts the plane perpendicular to an axis at a mesh index and picks one
// component (a band for eigenvalue grids, or the single value of a chi
// grid). [Heatmap] turns the slice into a gonum plot, and [Write] encodes
// the plot as PNG, SVG or PDF.
//
//	s, err := render.Slice(field, render.AxisZ, 0, 0)
//	p, err := render.Heatmap(s, render.Options{Title: "Re chi, qz = 0"})
//	err = render.Write(w, p, render.FormatPNG, render.Options{})
//
// Values are mapped through a diverging blue-red palette centred on the
// data range, which suits susceptibilities that change sign.
//
// [grid.Field]: github.com/matzehuels/lindhard/pkg/grid.Field
package render
