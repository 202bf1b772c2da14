package dx

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

// valueWidth is the fixed field width of one value in a native data row.
const valueWidth = 12

// csvHeader is the first line of a tabular artifact.
var csvHeader = []string{"band_index", "kx", "ky", "kz", "energy"}

const footer = ` object "regular positions regular connections" class field
 component "positions" value 1
 component "connections" value 2
 component "data" value 3
 end
`

// Encode writes f to w in the requested format. For FormatDX the lattice
// is written into the header so the output decodes back to the same grid;
// FormatCSV ignores it.
func Encode(w io.Writer, f *grid.Field, lat Lattice, format Format) error {
	if !f.Dims.Valid() || f.Components <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot encode an empty %s field with %d components", f.Dims, f.Components)
	}
	if len(f.Data) != f.Dims.Points()*f.Components {
		return errors.ShapeMismatchError("field holds %d values, want %d", len(f.Data), f.Dims.Points()*f.Components)
	}
	for i, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "value %d is %v; only finite values can be encoded", i, v)
		}
	}

	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatDX:
		err = writeNative(bw, f, lat)
	case FormatCSV:
		err = writeCSV(bw, f)
	default:
		err = errors.UnsupportedFormatError(string(format), string(FormatDX), string(FormatCSV))
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile encodes f into a new file at path. Paths ending in ".gz" are
// gzip-compressed.
func WriteFile(path string, f *grid.Field, lat Lattice, format Format) (err error) {
	format, err = ParseFormat(string(format))
	if err != nil {
		return err
	}

	out, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return Encode(out, f, lat, format)
}

// Create opens path for writing. Paths ending in ".gz" get a gzip stream
// that is finished when the returned writer is closed.
func Create(path string) (io.WriteCloser, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return out, nil
	}
	return &gzipFile{Writer: gzip.NewWriter(out), file: out}, nil
}

type gzipFile struct {
	*gzip.Writer
	file *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Writer.Close(); err != nil {
		g.file.Close()
		return fmt.Errorf("close %s: %w", g.file.Name(), err)
	}
	if err := g.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", g.file.Name(), err)
	}
	return nil
}

func writeNative(w *bufio.Writer, f *grid.Field, lat Lattice) error {
	d := f.Dims
	o := lat.Origin
	fmt.Fprintf(w, " object 1 class gridpositions counts  %11d %11d %11d\n", d.X, d.Y, d.Z)
	fmt.Fprintf(w, "origin %14.8f %14.8f %14.8f\n", o[0], o[1], o[2])
	for _, v := range lat.Deltas {
		fmt.Fprintf(w, "delta      %11.8f %11.8f %11.8f\n", v[0], v[1], v[2])
	}
	fmt.Fprintf(w, " object 2 class gridconnections counts  %11d %11d %11d\n", d.X, d.Y, d.Z)
	fmt.Fprintf(w, " object 3 class array type float rank 1 shape  %11d  items  %11d\n", f.Components, d.Points())
	fmt.Fprintln(w, "  data follows")

	buf := make([]byte, 0, valueWidth*f.Components+1)
	for p := 0; p < d.Points(); p++ {
		buf = buf[:0]
		for c, v := range f.Row(p) {
			buf = appendValue(buf, v, c > 0)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	_, err := w.WriteString(footer)
	return err
}

// appendValue right-aligns v with six decimals in a valueWidth field. A
// value that fills the whole field gets a separating space so that rows
// always split back into the same tokens.
func appendValue(buf []byte, v float64, sep bool) []byte {
	s := strconv.AppendFloat(nil, v, 'f', 6, 64)
	if pad := valueWidth - len(s); pad > 0 {
		for ; pad > 0; pad-- {
			buf = append(buf, ' ')
		}
	} else if sep {
		buf = append(buf, ' ')
	}
	return append(buf, s...)
}

func writeCSV(w io.Writer, f *grid.Field) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	d := f.Dims
	record := make([]string, len(csvHeader))
	for i := 0; i < d.X; i++ {
		for j := 0; j < d.Y; j++ {
			for k := 0; k < d.Z; k++ {
				for n := 0; n < f.Components; n++ {
					record[0] = strconv.Itoa(n)
					record[1] = strconv.Itoa(i)
					record[2] = strconv.Itoa(j)
					record[3] = strconv.Itoa(k)
					record[4] = strconv.FormatFloat(f.At(i, j, k, n), 'g', -1, 64)
					if err := cw.Write(record); err != nil {
						return err
					}
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
