package dx

import (
	"strconv"

	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
)

// Lattice places a regular mesh in space: the first point sits at Origin
// and Deltas[a] is the step between neighbouring points along axis a.
type Lattice struct {
	Origin [3]float64
	Deltas [3][3]float64
}

// Header is everything a grid file declares about its payload.
type Header struct {
	Lattice

	// Counts is the gridpositions mesh size.
	Counts grid.Dims

	// Shape is the number of values per mesh point (rank 0 means 1).
	Shape int

	// Rank, Items and Type echo the array object; Items is 0 when absent.
	Rank  int
	Items int
	Type  string

	// Components maps field component names to the object they refer to.
	Components map[string]string
}

// parser is a recursive-descent reader over the token stream. Productions
// map one-to-one onto the grammar in the package docs; every required
// field that never shows up is reported as an INVALID_FORMAT error naming
// the field.
type parser struct {
	lx     *lexer
	tok    token
	peeked bool

	h    Header
	data []float64

	hasCounts  bool
	hasOrigin  bool
	hasShape   bool
	hasData    bool
	deltas     int
	connection *grid.Dims
}

func newParser(lx *lexer) *parser {
	return &parser{lx: lx, h: Header{Components: make(map[string]string)}}
}

func (p *parser) peek() token {
	if !p.peeked {
		p.tok = p.lx.next()
		p.peeked = true
	}
	return p.tok
}

func (p *parser) next() token {
	t := p.peek()
	p.peeked = false
	return t
}

func (p *parser) isWord(text string) bool {
	t := p.peek()
	return t.kind == tokWord && t.text == text
}

func (p *parser) expectWord(field, text string) error {
	t := p.next()
	if t.kind != tokWord || t.text != text {
		return errors.FormatError(field, "line %d: expected %q, got %s", t.line, text, t)
	}
	return nil
}

func (p *parser) expectInt(field string) (int, error) {
	t := p.next()
	if !t.isInt() {
		return 0, errors.FormatError(field, "line %d: expected integer, got %s", t.line, t)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, errors.FormatError(field, "line %d: %v", t.line, err)
	}
	return n, nil
}

func (p *parser) expectFloat(field string) (float64, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, errors.FormatError(field, "line %d: expected number, got %s", t.line, t)
	}
	v, err := parseFloat(t)
	if err != nil {
		return 0, errors.FormatError(field, "line %d: %v", t.line, err)
	}
	return v, nil
}

func (p *parser) triple(field string) ([3]float64, error) {
	var v [3]float64
	for i := range v {
		x, err := p.expectFloat(field)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}

func (p *parser) counts(field string) (grid.Dims, error) {
	if err := p.expectWord(field, "counts"); err != nil {
		return grid.Dims{}, err
	}
	var n [3]int
	for i := range n {
		v, err := p.expectInt(field)
		if err != nil {
			return grid.Dims{}, err
		}
		if v <= 0 {
			return grid.Dims{}, errors.FormatError(field, "mesh counts must be positive, got %d", v)
		}
		n[i] = v
	}
	return grid.Dims{X: n[0], Y: n[1], Z: n[2]}, nil
}

// file := { object | attribute | origin | delta } [ "end" ]
func (p *parser) file() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.lx.err
		case t.kind == tokWord && t.text == "end":
			p.next()
			return p.lx.err
		case t.kind == tokWord && t.text == "object":
			p.next()
			if err := p.object(); err != nil {
				return err
			}
		case t.kind == tokWord && t.text == "attribute":
			p.next()
			if err := p.attribute(); err != nil {
				return err
			}
		case t.kind == tokWord && (t.text == "origin" || t.text == "delta"):
			if err := p.positionsAttr(); err != nil {
				return err
			}
		default:
			return errors.FormatError("object", "line %d: unexpected %s", t.line, t)
		}
	}
}

// object := "object" id "class" class-body
func (p *parser) object() error {
	id := p.next()
	if id.kind != tokNumber && id.kind != tokString && id.kind != tokWord {
		return errors.FormatError("object", "line %d: missing object id", id.line)
	}
	if err := p.expectWord("object", "class"); err != nil {
		return err
	}
	class := p.next()
	if class.kind != tokWord {
		return errors.FormatError("object", "line %d: expected class name, got %s", class.line, class)
	}
	switch class.text {
	case "gridpositions":
		return p.gridPositions()
	case "gridconnections":
		d, err := p.counts("counts")
		if err != nil {
			return err
		}
		p.connection = &d
		return nil
	case "array":
		return p.array()
	case "field":
		return p.field()
	default:
		p.skipObject()
		return nil
	}
}

// gridpositions := "counts" INT INT INT { origin | delta }
func (p *parser) gridPositions() error {
	d, err := p.counts("counts")
	if err != nil {
		return err
	}
	if !p.hasCounts {
		p.h.Counts = d
		p.hasCounts = true
	}
	for p.isWord("origin") || p.isWord("delta") {
		if err := p.positionsAttr(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) positionsAttr() error {
	t := p.next()
	v, err := p.triple(t.text)
	if err != nil {
		return err
	}
	if t.text == "origin" {
		if p.hasOrigin {
			return errors.FormatError("origin", "line %d: origin declared twice", t.line)
		}
		p.h.Origin = v
		p.hasOrigin = true
		return nil
	}
	if p.deltas == 3 {
		return errors.FormatError("delta", "line %d: more than 3 delta vectors", t.line)
	}
	p.h.Deltas[p.deltas] = v
	p.deltas++
	return nil
}

// array := { "type" WORD | "rank" INT | "shape" INT | "items" INT | WORD } "data" "follows" NUM*
func (p *parser) array() error {
	h := Header{Rank: -1}
	shape := 0
	for {
		t := p.next()
		if t.kind != tokWord {
			return errors.FormatError("data", "line %d: unexpected %s in array header", t.line, t)
		}
		switch t.text {
		case "type":
			w := p.next()
			h.Type = w.text
		case "rank":
			n, err := p.expectInt("rank")
			if err != nil {
				return err
			}
			h.Rank = n
		case "shape":
			n, err := p.expectInt("shape")
			if err != nil {
				return err
			}
			if n <= 0 {
				return errors.FormatError("shape", "line %d: shape must be positive, got %d", t.line, n)
			}
			shape = n
		case "items":
			n, err := p.expectInt("items")
			if err != nil {
				return err
			}
			h.Items = n
		case "binary", "ieee", "msb", "lsb":
			return errors.FormatError("data", "line %d: %s encoding is not supported, only ascii", t.line, t.text)
		case "data":
			mode := p.next()
			if mode.kind != tokWord || mode.text != "follows" {
				return errors.FormatError("data", "line %d: only inline \"data follows\" blocks are supported, got %s", mode.line, mode)
			}
			return p.payload(h, shape)
		}
	}
}

func (p *parser) payload(h Header, shape int) error {
	var values []float64
	for p.peek().kind == tokNumber {
		t := p.next()
		v, err := parseFloat(t)
		if err != nil {
			return errors.FormatError("data", "line %d: %v", t.line, err)
		}
		values = append(values, v)
	}
	if p.hasData {
		// Only the first array carries the eigenvalues.
		return nil
	}
	if len(values) == 0 {
		return errors.FormatError("data", "empty data block")
	}
	if shape == 0 && h.Rank == 0 {
		shape = 1
	}
	if h.Rank < 0 {
		h.Rank = 1
	}
	if shape > 0 {
		p.h.Shape = shape
		p.hasShape = true
	}
	p.h.Rank = h.Rank
	p.h.Items = h.Items
	p.h.Type = h.Type
	p.data = values
	p.hasData = true
	return nil
}

// field := { "component" STRING "value" (INT | STRING) }
func (p *parser) field() error {
	for p.isWord("component") {
		p.next()
		name := p.next()
		if name.kind != tokString && name.kind != tokWord {
			return errors.FormatError("component", "line %d: expected component name, got %s", name.line, name)
		}
		if err := p.expectWord("component", "value"); err != nil {
			return err
		}
		value := p.next()
		if value.kind == tokEOF {
			return errors.FormatError("component", "line %d: missing value for %q", value.line, name.text)
		}
		p.h.Components[name.text] = value.text
	}
	return nil
}

// attribute := "attribute" STRING ( "string" STRING | NUM )
func (p *parser) attribute() error {
	name := p.next()
	if name.kind == tokEOF {
		return errors.FormatError("attribute", "line %d: missing attribute name", name.line)
	}
	if p.isWord("string") {
		p.next()
	}
	if v := p.next(); v.kind == tokEOF {
		return errors.FormatError("attribute", "line %d: missing value for %q", v.line, name.text)
	}
	return nil
}

// skipObject discards the body of an object class the reader does not use.
func (p *parser) skipObject() {
	for {
		t := p.peek()
		if t.kind == tokEOF || (t.kind == tokWord && (t.text == "object" || t.text == "end")) {
			return
		}
		p.next()
	}
}

// finish checks that every required field was seen and that the payload
// fits the declared mesh.
func (p *parser) finish() (*Grid, error) {
	switch {
	case !p.hasCounts:
		return nil, errors.FormatError("counts", "missing gridpositions counts")
	case !p.hasOrigin:
		return nil, errors.FormatError("origin", "missing origin")
	case p.deltas != 3:
		return nil, errors.FormatError("delta", "found %d delta vectors, want 3", p.deltas)
	case !p.hasData:
		return nil, errors.FormatError("data", "missing \"data follows\" block")
	case !p.hasShape:
		return nil, errors.FormatError("shape", "missing array shape")
	}

	h := p.h
	if p.connection != nil && *p.connection != h.Counts {
		return nil, errors.ShapeMismatchError("gridconnections counts %s differ from gridpositions counts %s", *p.connection, h.Counts)
	}
	if h.Items > 0 && h.Items != h.Counts.Points() {
		return nil, errors.ShapeMismatchError("array declares %d items, mesh %s has %d points", h.Items, h.Counts, h.Counts.Points())
	}

	f, err := grid.FromRows(p.data, h.Counts, h.Shape)
	if err != nil {
		return nil, err
	}
	return &Grid{Header: h, Values: f.Bands()}, nil
}
