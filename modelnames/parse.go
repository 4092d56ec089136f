package modelnames

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/amp-labs/amp-validation/errors"
)

// Segment is one step of a parsed path expression.
type Segment struct {
	// Name is the property name for property segments, or the raw key for
	// index segments.
	Name string
	// Indexed is true for bracketed segments.
	Indexed bool
}

// Index returns the numeric value of an indexed segment.
func (s Segment) Index() (int, bool) {
	if !s.Indexed {
		return 0, false
	}

	i, err := strconv.Atoi(s.Name)
	if err != nil || i < 0 {
		return 0, false
	}

	return i, true
}

// String renders the segment alone: "[key]" for an index, the bare name otherwise.
func (s Segment) String() string {
	if s.Indexed {
		return "[" + s.Name + "]"
	}

	return s.Name
}

// Join renders segments back into a path expression.
func Join(segments []Segment) string {
	var out string

	for _, s := range segments {
		if s.Indexed {
			out = CreateKeyModelName(out, s.Name)
		} else {
			out = CreatePropertyModelName(out, s.Name)
		}
	}

	return out
}

type pathExpr struct {
	Segments []*segmentExpr `parser:"@@+"`
}

type segmentExpr struct {
	Index    *string       `parser:"  '[' @(Ident | String) ']'"`
	Property *propertyExpr `parser:"| @@"`
}

type propertyExpr struct {
	Dot  bool   `parser:"@'.'?"`
	Name string `parser:"@Ident"`
}

var pathParser = participle.MustBuild[pathExpr]( //nolint:gochecknoglobals
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\"|[^"])*"|'(\\'|[^'])*'`},
		// Non-ASCII letters and a leading digit are allowed, as in "größe" or
		// "2fa". Numeric indexes lex as Ident too.
		{Name: "Ident", Pattern: `[\p{L}\p{N}_$][\p{L}\p{N}_$-]*`},
		{Name: "Punct", Pattern: `[.\[\]]`},
	})),
	participle.Unquote("String"),
)

// Parse splits a path expression into segments. The empty string is the root
// and parses to no segments. Quoted keys ("m['a.b']") may hold characters that
// are otherwise special.
func Parse(name string) ([]Segment, error) {
	if name == "" {
		return nil, nil
	}

	expr, err := pathParser.ParseString("", name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errors.ErrInvalidModelName, name, err)
	}

	segments := make([]Segment, 0, len(expr.Segments))

	for i, seg := range expr.Segments {
		if seg.Index != nil {
			segments = append(segments, Segment{Name: *seg.Index, Indexed: true})

			continue
		}

		// Properties after the first segment must be dotted, and the first
		// one must not be.
		if seg.Property.Dot == (i == 0) {
			return nil, fmt.Errorf("%w: %q: misplaced '.' before %q",
				errors.ErrInvalidModelName, name, seg.Property.Name)
		}

		segments = append(segments, Segment{Name: seg.Property.Name})
	}

	return segments, nil
}

// Parent returns the path of the container of name: "a.b[0]" gives "a.b",
// "a" gives "".
func Parent(name string) string {
	idx := strings.LastIndexAny(name, ".[")
	if idx < 0 {
		return ""
	}

	return name[:idx]
}
