package grid

import (
	"math/cmplx"
)

// Scalar is the element type of a Volume.
type Scalar interface {
	~float64 | ~complex128
}

// Volume holds one value per mesh point, indexed (x, y, z).
type Volume[T Scalar] struct {
	Dims Dims
	Data []T
}

// NewVolume allocates a zeroed volume.
func NewVolume[T Scalar](d Dims) (*Volume[T], error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	return &Volume[T]{Dims: d, Data: make([]T, d.Points())}, nil
}

// At returns the value at (i, j, k).
func (v *Volume[T]) At(i, j, k int) T {
	return v.Data[v.Dims.Index(i, j, k)]
}

// Set stores the value at (i, j, k).
func (v *Volume[T]) Set(i, j, k int, x T) {
	v.Data[v.Dims.Index(i, j, k)] = x
}

// Expand closes a periodic cell: the result has one extra point on every
// axis, and out[i,j,k] = in[i mod X, j mod Y, k mod Z]. Boundary points on
// several axes at once wrap on all of them.
func Expand[T Scalar](v *Volume[T]) (*Volume[T], error) {
	if err := validate(v.Dims); err != nil {
		return nil, err
	}
	in := v.Dims
	out := &Volume[T]{Dims: in.Grow(1), Data: make([]T, in.Grow(1).Points())}
	for p := range out.Data {
		i, j, k := out.Dims.Coord(p)
		out.Data[p] = v.Data[in.Index(mod(i, in.X), mod(j, in.Y), mod(k, in.Z))]
	}
	return out, nil
}

// Component selects which real quantity of a complex volume is written out.
type Component string

// Components a complex volume can be projected onto.
const (
	ComponentReal    Component = "real"
	ComponentImag    Component = "imag"
	ComponentAbs     Component = "abs"
	ComponentComplex Component = "complex"
)

// ValidComponents lists the accepted component selectors.
var ValidComponents = map[Component]bool{
	ComponentReal:    true,
	ComponentImag:    true,
	ComponentAbs:     true,
	ComponentComplex: true,
}

// Width returns the number of real values per point the component produces.
func (c Component) Width() int {
	if c == ComponentComplex {
		return 2
	}
	return 1
}

// ComplexField projects a complex volume onto a Field. ComponentComplex
// yields two components per point (real, imaginary), the others one.
func ComplexField(v *Volume[complex128], c Component) *Field {
	w := c.Width()
	f := &Field{Dims: v.Dims, Components: w, Data: make([]float64, len(v.Data)*w)}
	for p, z := range v.Data {
		switch c {
		case ComponentImag:
			f.Data[p] = imag(z)
		case ComponentAbs:
			f.Data[p] = cmplx.Abs(z)
		case ComponentComplex:
			f.Data[2*p] = real(z)
			f.Data[2*p+1] = imag(z)
		default:
			f.Data[p] = real(z)
		}
	}
	return f
}

// RealField wraps a real volume as a single-component Field.
func RealField(v *Volume[float64]) *Field {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Field{Dims: v.Dims, Components: 1, Data: data}
}
