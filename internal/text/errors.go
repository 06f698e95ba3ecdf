package text

import "fmt"

// Position is a single point in source text.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Span covers a range of source text; Start == End for a point error.
type Span struct {
	Start Position
	End   Position
}

// ErrorKind partitions the parser's closed error taxonomy (spec §7): these
// are the only errors the parser surface exposes, recoverable and carrying
// a span back to the caller rather than panicking.
type ErrorKind int

const (
	// ExpectFunctionDef is reported at the top level when the next form is
	// not "(fn ...)".
	ExpectFunctionDef ErrorKind = iota
	// ExpectName is reported when a name was required (a function or call
	// target name) but the token wasn't an identifier, and when an
	// instruction or block reference names a number the function does not
	// define.
	ExpectName
	// Expect is reported when a specific fixed token (a paren, a keyword)
	// was required and something else was found.
	Expect
)

func (k ErrorKind) String() string {
	switch k {
	case ExpectFunctionDef:
		return "ExpectFunctionDef"
	case ExpectName:
		return "ExpectName"
	case Expect:
		return "Expect"
	default:
		return "Unknown"
	}
}

// ParseError is the sum type the parser returns; Which names what was
// expected (unused for ExpectFunctionDef, which is fixed in meaning).
type ParseError struct {
	Kind  ErrorKind
	Which string
	Span  Span
}

func (e *ParseError) Error() string {
	pos := e.Span.Start
	switch e.Kind {
	case ExpectFunctionDef:
		return fmt.Sprintf("%d:%d: expected a function definition", pos.Line, pos.Column)
	case ExpectName:
		return fmt.Sprintf("%d:%d: expected a name (%s)", pos.Line, pos.Column, e.Which)
	case Expect:
		return fmt.Sprintf("%d:%d: expected %s", pos.Line, pos.Column, e.Which)
	default:
		return fmt.Sprintf("%d:%d: parse error", pos.Line, pos.Column)
	}
}
