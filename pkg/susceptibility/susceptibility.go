package susceptibility

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

// Default physical parameters, in the energy unit of the eigenvalues.
const (
	DefaultGamma       = 0.01
	DefaultTemperature = 0.025
)

// Params controls a susceptibility calculation.
type Params struct {
	// Gamma is the imaginary broadening added to every denominator. Must be > 0.
	Gamma float64

	// Temperature enters the Fermi occupation. Must be > 0.
	Temperature float64

	// Workers bounds the number of q-points computed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Progress, if set, is called after every finished q-point with the
	// number done so far. It may be called from several goroutines at once.
	Progress func(done, total int)
}

// Validate checks the physical parameters.
func (p Params) Validate() error {
	if err := errors.ValidatePositive("gamma", p.Gamma); err != nil {
		return err
	}
	if err := errors.ValidatePositive("temperature", p.Temperature); err != nil {
		return err
	}
	return errors.ValidateNonNegative("workers", p.Workers)
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Occupation is the Fermi-Dirac occupation 1/(exp(e/T)+1) of an energy
// measured from the Fermi level. Occupation(0, T) is exactly 0.5.
func Occupation(e, temperature float64) float64 {
	return 1 / (math.Exp(e/temperature) + 1)
}

// Terms returns the number of band-pair terms a calculation on b sums:
// points² · bands².
func Terms(b *grid.Bands) int {
	n := b.Dims.Points()
	return n * n * b.Count * b.Count
}

// Compute evaluates chi(q) for every q of the mesh of b. The result has
// the same spatial dims as b.
func Compute(ctx context.Context, b *grid.Bands, p Params) (*grid.Volume[complex128], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if b == nil || b.Count <= 0 || !b.Dims.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no eigenvalues to compute")
	}
	if len(b.Data) != b.Count*b.Dims.Points() {
		return nil, errors.ShapeMismatchError("band tensor holds %d values, want %d", len(b.Data), b.Count*b.Dims.Points())
	}

	chi, err := grid.NewVolume[complex128](b.Dims)
	if err != nil {
		return nil, err
	}

	occ := make([]float64, len(b.Data))
	for i, e := range b.Data {
		occ[i] = Occupation(e, p.Temperature)
	}
	k := &kernel{
		bands: b,
		occ:   occ,
		gamma: p.Gamma,
		wrapX: shifts(b.Dims.X),
		wrapY: shifts(b.Dims.Y),
		wrapZ: shifts(b.Dims.Z),
	}

	total := b.Dims.Points()
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for q := 0; q < total; q++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chi.Data[q] = k.sum(q)
			if p.Progress != nil {
				p.Progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	norm := complex(2*float64(total), 0)
	for i := range chi.Data {
		chi.Data[i] /= norm
	}
	return chi, nil
}

// kernel holds the read-only state shared by all q tasks.
type kernel struct {
	bands *grid.Bands
	occ   []float64
	gamma float64

	// wrapA[q][k] is (k − q) mod n along axis A.
	wrapX, wrapY, wrapZ [][]int
}

// shifts tabulates (k − q) mod n for every q and k on an axis of length n.
func shifts(n int) [][]int {
	t := make([][]int, n)
	for q := range t {
		t[q] = make([]int, n)
		for k := range t[q] {
			t[q][k] = ((k-q)%n + n) % n
		}
	}
	return t
}

// sum accumulates the band-pair terms for the flat mesh index q. The
// shifted tensor is the eigenvalues rolled by q, read through the wrap
// tables rather than copied.
func (k *kernel) sum(q int) complex128 {
	d := k.bands.Dims
	n := d.Points()
	qx, qy, qz := d.Coord(q)
	wx, wy, wz := k.wrapX[qx], k.wrapY[qy], k.wrapZ[qz]
	e, f := k.bands.Data, k.occ
	g2 := k.gamma * k.gamma

	var re, im float64
	for i := 0; i < d.X; i++ {
		for j := 0; j < d.Y; j++ {
			for l := 0; l < d.Z; l++ {
				at := d.Index(i, j, l)
				from := d.Index(wx[i], wy[j], wz[l])
				for a := 0; a < k.bands.Count; a++ {
					ea, fa := e[a*n+at], f[a*n+at]
					for b := 0; b < k.bands.Count; b++ {
						eb, fb := e[b*n+from], f[b*n+from]
						// (fb − fa) / (Δ + iγ) = (fb − fa)(Δ − iγ) / (Δ² + γ²)
						delta := eb - ea
						w := (fb - fa) / (delta*delta + g2)
						re += w * delta
						im -= w * k.gamma
					}
				}
			}
		}
	}
	return complex(re, im)
}
