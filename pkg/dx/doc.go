// Package dx reads and writes OpenDX-style regular grid files.
//
// # Overview
//
// DFT codes dump band eigenvalues on a regular reciprocal-space mesh as a
// small text format: a handful of header objects describing the mesh,
// followed by a block of numbers with one row per mesh point and one column
// per band. Files are usually gzip-compressed. This package turns such a
// file into a [Grid] (header plus a band-major [grid.Bands] tensor) and
// writes a [grid.Field] back out, either in the same format or as CSV.
//
// # Grammar
//
// The reader is a tokenizer feeding a recursive-descent parser. '#' starts
// a comment that runs to the end of the line.
//
//	file       := { object | attribute } [ "end" ]
//	object     := "object" id "class" body
//	body       := "gridpositions" "counts" INT INT INT { "origin" NUM NUM NUM | "delta" NUM NUM NUM }
//	            | "gridconnections" "counts" INT INT INT
//	            | "array" { "type" WORD | "rank" INT | "shape" INT | "items" INT | WORD } "data" "follows" NUM*
//	            | "field" { "component" STRING "value" VALUE }
//	attribute  := "attribute" STRING ( "string" STRING | NUM )
//	NUM        := [+-]? DIGITS [ "." DIGITS ] [ ("e"|"E") [+-]? DIGITS ]
//
// Object ids are not interpreted; objects are recognised by class. A
// typical file looks like:
//
//	object 1 class gridpositions counts 9 9 9
//	origin 0.0 0.0 0.0
//	delta  0.125 0.0 0.0
//	delta  0.0 0.125 0.0
//	delta  0.0 0.0 0.125
//	object 2 class gridconnections counts 9 9 9
//	object 3 class array type float rank 1 shape 4 items 729
//	data follows
//	  -1.204 -0.331  0.562  1.870
//	  ...
//	object "regular positions regular connections" class field
//	component "positions" value 1
//	component "connections" value 2
//	component "data" value 3
//	end
//
// # Errors
//
// Every field the reader needs is checked explicitly. A missing or
// malformed counts, origin, delta, shape or data field is reported as an
// INVALID_FORMAT error naming the field. A payload whose value count is
// not shape × nx × ny × nz, or whose declared items disagree with the
// counts, is reported as SHAPE_MISMATCH. See [errors.Is].
//
// # Writing
//
// [Encode] and [WriteFile] accept a [Format]. [FormatDX] reproduces the
// header layout above with fixed-width columns (six decimals), so a file
// survives decode → encode → decode up to that precision. [FormatCSV]
// writes "band_index,kx,ky,kz,energy" rows. Any other selector is an
// UNSUPPORTED_FORMAT error; [ParseFormat] resolves user input. NaN and
// infinite values are rejected with INVALID_INPUT before anything is
// written.
//
// [errors.Is]: github.com/matzehuels/lindhard/pkg/errors.Is
package dx
