package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/lindhard/pkg/cache"
	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/susceptibility"
)

const (
	testGamma = 0.01
	testTemp  = 0.1
)

// writeUniformGrid writes a 3x3x3 grid with two flat bands at -1 and +1.
// Its interior is a 2x2x2 cell.
func writeUniformGrid(t *testing.T, name string) string {
	t.Helper()
	d := grid.Dims{X: 3, Y: 3, Z: 3}
	b, err := grid.NewBands(2, d)
	if err != nil {
		t.Fatal(err)
	}
	for p := 0; p < d.Points(); p++ {
		b.Band(0)[p] = -1
		b.Band(1)[p] = 1
	}
	lat := dx.Lattice{Deltas: [3][3]float64{{0.5, 0, 0}, {0, 0.5, 0}, {0, 0, 0.5}}}
	path := filepath.Join(t.TempDir(), name)
	if err := dx.WriteFile(path, b.Field(), lat, dx.FormatDX); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// uniformChi is chi of the uniform two-band grid at every q.
func uniformChi() float64 {
	df := susceptibility.Occupation(1, testTemp) - susceptibility.Occupation(-1, testTemp)
	return 2 * df / (4 + testGamma*testGamma)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: "bands.dx.gz"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Gamma != DefaultGamma {
		t.Errorf("Gamma should be %v, got %v", DefaultGamma, opts.Gamma)
	}
	if opts.Temperature != DefaultTemperature {
		t.Errorf("Temperature should be %v, got %v", DefaultTemperature, opts.Temperature)
	}
	if opts.Format != DefaultFormat {
		t.Errorf("Format should be %s, got %s", DefaultFormat, opts.Format)
	}
	if opts.Component != DefaultComponent {
		t.Errorf("Component should be %s, got %s", DefaultComponent, opts.Component)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsFormatFromOutput(t *testing.T) {
	tests := []struct {
		output string
		format dx.Format
		want   dx.Format
	}{
		{"chi.csv", "", dx.FormatCSV},
		{"chi.dx.gz", "", dx.FormatDX},
		{"chi.out", "", dx.FormatDX},
		{"chi.csv", dx.FormatDX, dx.FormatDX}, // explicit format wins
		{"", "CSV", dx.FormatCSV},
	}

	for _, tt := range tests {
		opts := Options{Output: tt.output, Format: tt.format}
		if err := opts.ValidateForEncode(); err != nil {
			t.Errorf("ValidateForEncode(%q, %q) error: %v", tt.output, tt.format, err)
			continue
		}
		if opts.Format != tt.want {
			t.Errorf("Format for (%q, %q) = %s, want %s", tt.output, tt.format, opts.Format, tt.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing input", Options{}, ""},
		{"negative gamma", Options{Input: "in.dx", Gamma: -0.01}, errors.ErrCodeInvalidInput},
		{"negative temperature", Options{Input: "in.dx", Temperature: -1}, errors.ErrCodeInvalidInput},
		{"negative workers", Options{Input: "in.dx", Workers: -2}, errors.ErrCodeInvalidInput},
		{"unknown format", Options{Input: "in.dx", Format: "xyz"}, errors.ErrCodeUnsupportedFormat},
		{"unknown component", Options{Input: "in.dx", Component: "phase"}, errors.ErrCodeInvalidInput},
		{"control characters", Options{Input: "in\x00.dx"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("ValidateAndSetDefaults() should fail")
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("error code = %q, want %q", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "in.dx", Output: "chi.csv"}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalGamma := opts.Gamma
	originalFormat := opts.Format

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Gamma != originalGamma {
		t.Error("Gamma changed on second call")
	}
	if opts.Format != originalFormat {
		t.Error("Format changed on second call")
	}
}

func TestValidateComponent(t *testing.T) {
	tests := []struct {
		component grid.Component
		wantErr   bool
	}{
		{"real", false},
		{"imag", false},
		{"abs", false},
		{"complex", false},
		{"Real", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateComponent(tt.component)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateComponent(%q) error = %v, wantErr %v", tt.component, err, tt.wantErr)
		}
	}
}

func TestExecute(t *testing.T) {
	input := writeUniformGrid(t, "bands.dx.gz")
	output := filepath.Join(t.TempDir(), "chi.dx")

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Input:       input,
		Output:      output,
		Gamma:       testGamma,
		Temperature: testTemp,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Stats.Points != 8 || result.Stats.Bands != 2 {
		t.Errorf("Stats = %+v, want 8 points and 2 bands", result.Stats)
	}
	if result.Chi.Dims != (grid.Dims{X: 3, Y: 3, Z: 3}) {
		t.Errorf("Chi dims = %v, want the input counts 3x3x3", result.Chi.Dims)
	}
	if result.CacheInfo.ComputeHit || result.CacheInfo.EncodeHit {
		t.Error("NullCache should never hit")
	}

	g, err := dx.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile(output) error: %v", err)
	}
	if g.Counts != result.Chi.Dims || g.Shape != 1 {
		t.Errorf("output = %v shape %d", g.Counts, g.Shape)
	}
	if g.Deltas != result.Grid.Deltas {
		t.Errorf("output deltas = %v, want input deltas %v", g.Deltas, result.Grid.Deltas)
	}
	want := uniformChi()
	for i, v := range g.Values.Data {
		if math.Abs(v-want) > 1e-6 {
			t.Fatalf("output[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestExecuteComplexCSV(t *testing.T) {
	input := writeUniformGrid(t, "bands.dx")
	output := filepath.Join(t.TempDir(), "chi.csv.gz")

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:       input,
		Output:      output,
		Format:      dx.FormatCSV,
		Component:   grid.ComponentComplex,
		Gamma:       testGamma,
		Temperature: testTemp,
		Workers:     2,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(result.Artifact)), "\n")
	if lines[0] != "band_index,kx,ky,kz,energy" {
		t.Errorf("header = %q", lines[0])
	}
	if got, want := len(lines)-1, 27*2; got != want {
		t.Errorf("rows = %d, want %d", got, want)
	}
	if !strings.HasPrefix(lines[2], "1,0,0,0,") {
		t.Errorf("second row should hold the imaginary part: %q", lines[2])
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		t.Error(".gz output should be gzip-compressed")
	}
}

func TestExecuteCacheHit(t *testing.T) {
	input := writeUniformGrid(t, "bands.dx")
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Input: input, Gamma: testGamma, Temperature: testTemp}
	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.ComputeHit {
		t.Error("first run should miss")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.ComputeHit || !second.CacheInfo.EncodeHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if string(first.Artifact) != string(second.Artifact) {
		t.Error("cached artifact should equal the computed one")
	}
	if first.InputHash != second.InputHash {
		t.Error("input hash should be stable")
	}

	// Different physics must not reuse the entry
	opts.Gamma = 2 * testGamma
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ComputeHit {
		t.Error("a different gamma should miss")
	}

	// Refresh bypasses the cache
	opts.Refresh = true
	fourth, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.ComputeHit || fourth.CacheInfo.EncodeHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteCorruptCacheEntry(t *testing.T) {
	input := writeUniformGrid(t, "bands.dx")
	c, _ := cache.NewFileCache(t.TempDir())
	runner := NewRunner(c, nil, nil)

	g, hash, err := runner.Decode(context.Background(), Options{Input: input})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Input: input, Gamma: testGamma, Temperature: testTemp}
	key := runner.Keyer.SusceptibilityKey(hash, opts.SusceptibilityKeyOpts())
	if err := c.Set(context.Background(), key, []byte(`{"dims":{"X":2,"Y":2,"Z":2},"re":[1]}`), 0); err != nil {
		t.Fatal(err)
	}

	chi, hit, err := runner.ComputeWithCacheInfo(context.Background(), g, hash, opts)
	if err != nil {
		t.Fatalf("ComputeWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("a malformed entry should be recomputed")
	}
	if math.Abs(real(chi.Data[0])-uniformChi()) > 1e-12 {
		t.Errorf("chi[0] = %v, want %v", chi.Data[0], uniformChi())
	}
}

func TestExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)

	_, err := runner.Execute(context.Background(), Options{Input: filepath.Join(t.TempDir(), "missing.dx")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing input error = %v, want FILE_NOT_FOUND", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.dx")
	if err := os.WriteFile(bad, []byte("object 1 class gridpositions counts 2 2 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = runner.Execute(context.Background(), Options{Input: bad})
	if !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("malformed input error = %v, want INVALID_FORMAT", err)
	}

	input := writeUniformGrid(t, "bands.dx")
	_, err = runner.Execute(context.Background(), Options{Input: input, Format: "xyz"})
	if !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("format xyz error = %v, want UNSUPPORTED_FORMAT", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Execute(ctx, Options{Input: input}); err == nil || ctx.Err() == nil {
		t.Errorf("cancelled run error = %v", err)
	}
}

func TestConvert(t *testing.T) {
	input := writeUniformGrid(t, "bands.dx.gz")
	output := filepath.Join(t.TempDir(), "bands.csv")

	data, err := NewRunner(nil, nil, nil).Convert(context.Background(), Options{Input: input, Output: output})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if got, want := len(lines), 1+27*2; got != want {
		t.Fatalf("lines = %d, want %d", got, want)
	}
	if lines[1] != "0,0,0,0,-1" || lines[2] != "1,0,0,0,1" {
		t.Errorf("first rows = %q, %q", lines[1], lines[2])
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != string(data) {
		t.Error("written file should match returned artifact")
	}
}

func TestChiCacheEntry(t *testing.T) {
	chi, _ := grid.NewVolume[complex128](grid.Dims{X: 1, Y: 2, Z: 2})
	for i := range chi.Data {
		chi.Data[i] = complex(float64(i)/3, -float64(i)*1e-9)
	}

	data, err := marshalChi(chi)
	if err != nil {
		t.Fatal(err)
	}
	got, err := unmarshalChi(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Dims != chi.Dims {
		t.Errorf("Dims = %v, want %v", got.Dims, chi.Dims)
	}
	for i := range chi.Data {
		if got.Data[i] != chi.Data[i] {
			t.Errorf("Data[%d] = %v, want %v", i, got.Data[i], chi.Data[i])
		}
	}
}
