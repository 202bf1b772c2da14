package dx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// tokenKind classifies a lexeme of the grid grammar.
type tokenKind int

const (
	tokEOF    tokenKind = iota
	tokWord             // bare keyword: object, class, counts, delta, ...
	tokNumber           // [+-]?digits[.digits][(e|E)[+-]?digits]
	tokString           // "quoted text"
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokWord:
		return "keyword"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	}
	return "unknown"
}

// token is one lexeme with the line it started on.
type token struct {
	kind tokenKind
	text string
	line int
}

// isInt reports whether the number token has no fraction or exponent.
func (t token) isInt() bool {
	if t.kind != tokNumber {
		return false
	}
	for _, c := range t.text {
		if c == '.' || c == 'e' || c == 'E' {
			return false
		}
	}
	return true
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

// lexer splits grid text into tokens. '#' comments run to end of line.
// It streams from a bufio.Reader so payloads of millions of values never
// have to be held as one string.
type lexer struct {
	r    *bufio.Reader
	line int
	buf  []byte
	err  error

	// queue holds numbers split off a run like "-3.250000-1000.123456".
	queue []string
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

func (l *lexer) read() (byte, bool) {
	c, err := l.r.ReadByte()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		return 0, false
	}
	return c, true
}

func (l *lexer) unread() {
	_ = l.r.UnreadByte()
}

// next returns the next token. Malformed numbers come back as words so the
// parser can report them in context.
func (l *lexer) next() token {
	if len(l.queue) > 0 {
		text := l.queue[0]
		l.queue = l.queue[1:]
		return token{kind: tokNumber, text: text, line: l.line}
	}
	for {
		c, ok := l.read()
		if !ok {
			return token{kind: tokEOF, line: l.line}
		}
		switch {
		case c == '\n':
			l.line++
		case c == ' ' || c == '\t' || c == '\r' || c == ',':
		case c == '#':
			l.skipLine()
		case c == '"':
			return l.quoted()
		default:
			l.unread()
			return l.bare()
		}
	}
}

func (l *lexer) skipLine() {
	for {
		c, ok := l.read()
		if !ok {
			return
		}
		if c == '\n' {
			l.line++
			return
		}
	}
}

func (l *lexer) quoted() token {
	line := l.line
	l.buf = l.buf[:0]
	for {
		c, ok := l.read()
		if !ok || c == '"' {
			return token{kind: tokString, text: string(l.buf), line: line}
		}
		if c == '\n' {
			l.line++
		}
		l.buf = append(l.buf, c)
	}
}

func (l *lexer) bare() token {
	l.buf = l.buf[:0]
	for {
		c, ok := l.read()
		if !ok {
			break
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ',' || c == '#' || c == '"' {
			l.unread()
			break
		}
		l.buf = append(l.buf, c)
	}
	if isNumber(l.buf) {
		return token{kind: tokNumber, text: string(l.buf), line: l.line}
	}
	// Fixed-width columns leave no blank before a negative value.
	if parts := splitNumbers(l.buf); len(parts) > 1 {
		l.queue = append(l.queue, parts[1:]...)
		return token{kind: tokNumber, text: parts[0], line: l.line}
	}
	return token{kind: tokWord, text: string(l.buf), line: l.line}
}

// splitNumbers cuts b into consecutive numbers, each after the first
// starting with its sign. It returns nil unless all of b is consumed.
func splitNumbers(b []byte) []string {
	var parts []string
	for len(b) > 0 {
		n := numberPrefix(b)
		if n == 0 || (n < len(b) && b[n] != '+' && b[n] != '-') {
			return nil
		}
		parts = append(parts, string(b[:n]))
		b = b[n:]
	}
	return parts
}

// isNumber matches [+-]?digits[.digits][(e|E)[+-]?digits]. A trailing dot
// ("1.") is accepted as well.
func isNumber(b []byte) bool {
	return len(b) > 0 && numberPrefix(b) == len(b)
}

// numberPrefix returns the length of the longest number at the start of b,
// or 0. An exponent marker without digits is not part of the number.
func numberPrefix(b []byte) int {
	i := 0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	start := i
	for i < len(b) && isDigit(b[i]) {
		i++
	}
	if i == start {
		return 0
	}
	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && isDigit(b[i]) {
			i++
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		j := i + 1
		if j < len(b) && (b[j] == '+' || b[j] == '-') {
			j++
		}
		exp := j
		for j < len(b) && isDigit(b[j]) {
			j++
		}
		if j > exp {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func parseFloat(t token) (float64, error) {
	return strconv.ParseFloat(t.text, 64)
}
