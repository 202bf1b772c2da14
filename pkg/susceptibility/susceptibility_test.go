package susceptibility

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

func randomBands(t *testing.T, count int, d grid.Dims, seed int64) *grid.Bands {
	t.Helper()
	b, err := grid.NewBands(count, d)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Data {
		b.Data[i] = rng.Float64()*2 - 1
	}
	return b
}

// reference evaluates chi by materializing every rolled tensor, the
// straightforward way.
func reference(b *grid.Bands, gamma, temperature float64) []complex128 {
	d := b.Dims
	out := make([]complex128, d.Points())
	wrap := func(k, q, n int) int { return ((k-q)%n + n) % n }
	for q := range out {
		qx, qy, qz := d.Coord(q)
		rolled := make([]float64, len(b.Data))
		for n := 0; n < b.Count; n++ {
			for i := 0; i < d.X; i++ {
				for j := 0; j < d.Y; j++ {
					for k := 0; k < d.Z; k++ {
						rolled[b.Index(n, i, j, k)] = b.At(n, wrap(i, qx, d.X), wrap(j, qy, d.Y), wrap(k, qz, d.Z))
					}
				}
			}
		}
		var sum complex128
		for p := 0; p < d.Points(); p++ {
			for a := 0; a < b.Count; a++ {
				ea := b.Data[a*d.Points()+p]
				for c := 0; c < b.Count; c++ {
					eb := rolled[c*d.Points()+p]
					num := complex(Occupation(eb, temperature)-Occupation(ea, temperature), 0)
					sum += num / complex(eb-ea, gamma)
				}
			}
		}
		out[q] = sum / complex(2*float64(d.Points()), 0)
	}
	return out
}

func TestOccupation(t *testing.T) {
	for _, temp := range []float64{1e-4, 0.025, 0.1, 1, 300} {
		assert.Equal(t, 0.5, Occupation(0, temp), "T=%v", temp)
	}

	assert.InDelta(t, 1, Occupation(-1, 0.01), 1e-12)
	assert.InDelta(t, 0, Occupation(1, 0.01), 1e-12)
	assert.InDelta(t, 1, Occupation(0.3, 0.1)+Occupation(-0.3, 0.1), 1e-15)

	// Far from the Fermi level the exponential overflows; the limits must hold.
	assert.Equal(t, 0.0, Occupation(1e6, 1e-3))
	assert.Equal(t, 1.0, Occupation(-1e6, 1e-3))
}

func TestComputeUniformBands(t *testing.T) {
	const gamma, temp = 0.01, 0.1
	d := grid.Dims{X: 2, Y: 2, Z: 2}
	b, err := grid.NewBands(2, d)
	require.NoError(t, err)
	for p := 0; p < d.Points(); p++ {
		b.Band(0)[p] = -1
		b.Band(1)[p] = 1
	}

	chi, err := Compute(context.Background(), b, Params{Gamma: gamma, Temperature: temp})
	require.NoError(t, err)
	require.Equal(t, d, chi.Dims)

	df := Occupation(1, temp) - Occupation(-1, temp)
	want := 2 * df / (4 + gamma*gamma)
	for q, v := range chi.Data {
		assert.InDelta(t, want, real(v), 1e-12, "Re chi at q=%d", q)
		assert.InDelta(t, 0, imag(v), 1e-12, "Im chi at q=%d", q)
		assert.Equal(t, chi.Data[0], v, "chi should not depend on q")
	}
	assert.Less(t, real(chi.Data[0]), -0.49)
}

func TestComputeMatchesReference(t *testing.T) {
	tests := []struct {
		name  string
		count int
		dims  grid.Dims
	}{
		{"cube", 2, grid.Dims{X: 3, Y: 3, Z: 3}},
		{"anisotropic", 3, grid.Dims{X: 4, Y: 2, Z: 3}},
		{"single band", 1, grid.Dims{X: 5, Y: 1, Z: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := randomBands(t, tt.count, tt.dims, 7)
			chi, err := Compute(context.Background(), b, Params{Gamma: 0.05, Temperature: 0.2})
			require.NoError(t, err)

			want := reference(b, 0.05, 0.2)
			require.Len(t, chi.Data, len(want))
			for q := range want {
				assert.InDelta(t, real(want[q]), real(chi.Data[q]), 1e-10, "Re chi at q=%d", q)
				assert.InDelta(t, imag(want[q]), imag(chi.Data[q]), 1e-10, "Im chi at q=%d", q)
			}
		})
	}
}

func TestComputeZeroWavevectorIsReal(t *testing.T) {
	b := randomBands(t, 3, grid.Dims{X: 3, Y: 2, Z: 2}, 11)
	chi, err := Compute(context.Background(), b, Params{Gamma: 0.01, Temperature: 0.05})
	require.NoError(t, err)
	assert.InDelta(t, 0, imag(chi.At(0, 0, 0)), 1e-12)
}

func TestComputeCoincidentEigenvalues(t *testing.T) {
	d := grid.Dims{X: 2, Y: 3, Z: 2}
	b, err := grid.NewBands(3, d)
	require.NoError(t, err)
	for i := range b.Data {
		b.Data[i] = 0.25 // every band degenerate at every k
	}

	chi, err := Compute(context.Background(), b, Params{Gamma: 1e-9, Temperature: 0.01})
	require.NoError(t, err)
	for q, v := range chi.Data {
		assert.False(t, cmplx.IsNaN(v) || cmplx.IsInf(v), "chi at q=%d = %v", q, v)
		assert.Equal(t, complex128(0), v)
	}
}

func TestComputeParallelMatchesSerial(t *testing.T) {
	b := randomBands(t, 2, grid.Dims{X: 4, Y: 3, Z: 5}, 3)
	p := Params{Gamma: 0.02, Temperature: 0.05}

	p.Workers = 1
	serial, err := Compute(context.Background(), b, p)
	require.NoError(t, err)

	p.Workers = 8
	parallel, err := Compute(context.Background(), b, p)
	require.NoError(t, err)

	assert.Equal(t, serial.Data, parallel.Data)
}

func TestComputeProgress(t *testing.T) {
	b := randomBands(t, 1, grid.Dims{X: 2, Y: 2, Z: 3}, 5)

	var mu sync.Mutex
	calls, maxDone := 0, 0
	_, err := Compute(context.Background(), b, Params{
		Gamma:       0.01,
		Temperature: 0.1,
		Workers:     4,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			maxDone = max(maxDone, done)
			assert.Equal(t, 12, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, calls)
	assert.Equal(t, 12, maxDone)
}

func TestComputeCancelled(t *testing.T) {
	b := randomBands(t, 2, grid.Dims{X: 3, Y: 3, Z: 3}, 1)

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		chi, err := Compute(ctx, b, Params{Gamma: 0.01, Temperature: 0.1})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, chi)
	})

	t.Run("mid run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		chi, err := Compute(ctx, b, Params{
			Gamma:       0.01,
			Temperature: 0.1,
			Workers:     1,
			Progress: func(done, total int) {
				if done == 2 {
					cancel()
				}
			},
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, chi)
	})
}

func TestComputeInvalidParams(t *testing.T) {
	b := randomBands(t, 1, grid.Dims{X: 2, Y: 2, Z: 2}, 1)
	tests := []struct {
		name string
		p    Params
	}{
		{"zero gamma", Params{Gamma: 0, Temperature: 0.1}},
		{"negative gamma", Params{Gamma: -0.01, Temperature: 0.1}},
		{"NaN gamma", Params{Gamma: math.NaN(), Temperature: 0.1}},
		{"zero temperature", Params{Gamma: 0.01, Temperature: 0}},
		{"infinite temperature", Params{Gamma: 0.01, Temperature: math.Inf(1)}},
		{"negative workers", Params{Gamma: 0.01, Temperature: 0.1, Workers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(context.Background(), b, tt.p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "code = %v", errors.GetCode(err))
		})
	}
}

func TestComputeEmptyInput(t *testing.T) {
	_, err := Compute(context.Background(), nil, Params{Gamma: 0.01, Temperature: 0.1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = Compute(context.Background(), &grid.Bands{Dims: grid.Dims{X: 1, Y: 1, Z: 1}, Count: 2, Data: []float64{1}},
		Params{Gamma: 0.01, Temperature: 0.1})
	assert.True(t, errors.Is(err, errors.ErrCodeShapeMismatch))
}

func TestTerms(t *testing.T) {
	b := randomBands(t, 3, grid.Dims{X: 2, Y: 2, Z: 2}, 1)
	assert.Equal(t, 8*8*3*3, Terms(b))
}
