package dx

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

// gzipMagic is the two-byte header of a gzip member.
var gzipMagic = []byte{0x1f, 0x8b}

// Grid is a decoded grid file: its header and the values indexed
// (band, x, y, z).
type Grid struct {
	Header
	Values *grid.Bands
}

// ReciprocalVectors returns the delta vectors as a 3×3 matrix, one row per
// lattice direction.
func (g *Grid) ReciprocalVectors() *mat.Dense {
	return g.Lattice.Matrix()
}

// Matrix returns the delta vectors as a 3×3 matrix, one row per axis.
func (l Lattice) Matrix() *mat.Dense {
	data := make([]float64, 0, 9)
	for _, d := range l.Deltas {
		data = append(data, d[:]...)
	}
	return mat.NewDense(3, 3, data)
}

// VoxelVolume returns the volume spanned by the three delta vectors.
func (l Lattice) VoxelVolume() float64 {
	v := mat.Det(l.Matrix())
	if v < 0 {
		return -v
	}
	return v
}

// Decode reads an uncompressed grid file from r.
//
// Decode returns an INVALID_FORMAT error when the counts, origin, the three
// delta vectors, the array shape or the "data follows" block are missing or
// malformed, and a SHAPE_MISMATCH error when the number of values does not
// fill the declared mesh exactly. Decode does not close r.
func Decode(r io.Reader) (*Grid, error) {
	p := newParser(newLexer(r))
	if err := p.file(); err != nil {
		return nil, err
	}
	return p.finish()
}

// Read decodes a grid from r, transparently inflating gzip input.
func Read(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return Decode(br)
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "gzip")
	}
	defer zr.Close()
	return Decode(zr)
}

// ReadFile opens the grid file at path and decodes it. Both gzip-compressed
// and plain text files are accepted.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
