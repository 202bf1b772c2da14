// Package grid provides the dense tensors that flow through lindhard.
//
// Three layouts are used, all stored as one flat slice in row-major order:
//
//   - [Bands]: band-major eigenvalues indexed (band, x, y, z), as produced by
//     the grid decoder and consumed by the susceptibility engine.
//   - [Field]: point-major values indexed (x, y, z, component), the order in
//     which rows appear inside a grid file and the order the encoder writes.
//   - [Volume]: a scalar per mesh point indexed (x, y, z), generic over
//     float64 and complex128.
//
// [Field.Bands] and [Bands.Field] are exact inverses of each other, and
// [Expand] closes a periodic cell by adding one wrapped boundary slice per
// axis. [Bands.Interior] drops that slice again.
package grid

import (
	"fmt"

	"github.com/matzehuels/lindhard/pkg/errors"
)

// Dims is the extent of a regular mesh along x, y and z.
type Dims struct {
	X, Y, Z int
}

// Points returns the number of mesh points.
func (d Dims) Points() int {
	return d.X * d.Y * d.Z
}

// Index returns the flat row-major offset of (i, j, k), z fastest.
func (d Dims) Index(i, j, k int) int {
	return (i*d.Y+j)*d.Z + k
}

// Coord is the inverse of Index.
func (d Dims) Coord(p int) (i, j, k int) {
	k = p % d.Z
	j = (p / d.Z) % d.Y
	i = p / (d.Z * d.Y)
	return i, j, k
}

// Grow returns the dims enlarged by n on every axis.
func (d Dims) Grow(n int) Dims {
	return Dims{X: d.X + n, Y: d.Y + n, Z: d.Z + n}
}

// Valid reports whether every axis is at least one point long.
func (d Dims) Valid() bool {
	return d.X > 0 && d.Y > 0 && d.Z > 0
}

// String formats dims as "XxYxZ".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

func validate(d Dims) error {
	if !d.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "mesh dimensions must be positive, got %s", d)
	}
	return nil
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
