package dx

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/lindhard/pkg/errors"
)

// Format selects the text layout an artifact is written in.
type Format string

// Supported output formats.
const (
	// FormatDX is the native grid layout, readable by [Decode].
	FormatDX Format = "dx"

	// FormatCSV is one row per (point, component) with a header line.
	FormatCSV Format = "csv"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatDX, FormatCSV}

// ParseFormat resolves a format selector. Unknown selectors yield an
// UNSUPPORTED_FORMAT error.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDX, FormatCSV:
		return f, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", errors.UnsupportedFormatError(s, names...)
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FormatFromPath guesses the format from a file name such as "chi.csv" or
// "chi.dx.gz". It returns false when the extension is not recognised.
func FormatFromPath(path string) (Format, bool) {
	base := strings.TrimSuffix(strings.ToLower(path), ".gz")
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(base), "."))
	return f, err == nil
}
