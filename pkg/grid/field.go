package grid

import (
	"github.com/matzehuels/lindhard/pkg/errors"
)

// Field holds values indexed (x, y, z, component). A row of a grid file is
// one mesh point with all of its components.
type Field struct {
	Dims       Dims
	Components int
	Data       []float64
}

// FromRows wraps flat row data read from a grid file. It fails with
// SHAPE_MISMATCH unless rows holds exactly d.Points()*components values.
func FromRows(rows []float64, d Dims, components int) (*Field, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if components <= 0 {
		return nil, errors.ShapeMismatchError("shape must be positive, got %d", components)
	}
	if len(rows)%components != 0 {
		return nil, errors.ShapeMismatchError("%d values do not divide into rows of %d", len(rows), components)
	}
	if n := len(rows) / components; n != d.Points() {
		return nil, errors.ShapeMismatchError("%d rows of %d values, want %d rows for a %s mesh", n, components, d.Points(), d)
	}
	return &Field{Dims: d, Components: components, Data: rows}, nil
}

// At returns component c at (i, j, k).
func (f *Field) At(i, j, k, c int) float64 {
	return f.Data[f.Dims.Index(i, j, k)*f.Components+c]
}

// Row returns the components at flat point p, aliasing f.Data.
func (f *Field) Row(p int) []float64 {
	return f.Data[p*f.Components : (p+1)*f.Components]
}

// Bands transposes f into band-major order (component, x, y, z).
func (f *Field) Bands() *Bands {
	p := f.Dims.Points()
	b := &Bands{Dims: f.Dims, Count: f.Components, Data: make([]float64, len(f.Data))}
	for q := 0; q < p; q++ {
		for n := 0; n < f.Components; n++ {
			b.Data[n*p+q] = f.Data[q*f.Components+n]
		}
	}
	return b
}
