package grid

import (
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/lindhard/pkg/errors"
)

// Bands holds eigenvalues indexed (band, x, y, z).
type Bands struct {
	Dims  Dims
	Count int
	Data  []float64
}

// NewBands allocates a zeroed band tensor.
func NewBands(count int, d Dims) (*Bands, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "band count must be positive, got %d", count)
	}
	return &Bands{Dims: d, Count: count, Data: make([]float64, count*d.Points())}, nil
}

// Index returns the flat offset of band n at (i, j, k).
func (b *Bands) Index(n, i, j, k int) int {
	return n*b.Dims.Points() + b.Dims.Index(i, j, k)
}

// At returns the eigenvalue of band n at (i, j, k).
func (b *Bands) At(n, i, j, k int) float64 {
	return b.Data[b.Index(n, i, j, k)]
}

// Set stores the eigenvalue of band n at (i, j, k).
func (b *Bands) Set(n, i, j, k int, v float64) {
	b.Data[b.Index(n, i, j, k)] = v
}

// Band returns the mesh of band n as a slice aliasing b.Data.
func (b *Bands) Band(n int) []float64 {
	p := b.Dims.Points()
	return b.Data[n*p : (n+1)*p]
}

// Field transposes b into point-major order (x, y, z, band).
func (b *Bands) Field() *Field {
	p := b.Dims.Points()
	f := &Field{Dims: b.Dims, Components: b.Count, Data: make([]float64, len(b.Data))}
	for n := 0; n < b.Count; n++ {
		for q := 0; q < p; q++ {
			f.Data[q*b.Count+n] = b.Data[n*p+q]
		}
	}
	return f
}

// Interior drops the last slice along every spatial axis. Grid files list
// both ends of the periodic cell, so the last slice repeats the first one.
func (b *Bands) Interior() (*Bands, error) {
	d := b.Dims
	if d.X < 2 || d.Y < 2 || d.Z < 2 {
		return nil, errors.ShapeMismatchError("interior of a %s mesh is empty: every axis needs at least 2 points", d)
	}
	in := Dims{X: d.X - 1, Y: d.Y - 1, Z: d.Z - 1}
	out := &Bands{Dims: in, Count: b.Count, Data: make([]float64, b.Count*in.Points())}
	for n := 0; n < b.Count; n++ {
		for i := 0; i < in.X; i++ {
			for j := 0; j < in.Y; j++ {
				src := b.Index(n, i, j, 0)
				dst := out.Index(n, i, j, 0)
				copy(out.Data[dst:dst+in.Z], b.Data[src:src+in.Z])
			}
		}
	}
	return out, nil
}

// Range returns the smallest and largest eigenvalue of band n.
func (b *Bands) Range(n int) (lo, hi float64) {
	band := b.Band(n)
	return floats.Min(band), floats.Max(band)
}
