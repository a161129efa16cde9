// errors.go — error types and caret-snippet rendering.
//
// Three error families cross the public API:
//
//   - *LexError     from the lexer (0-based Col)
//   - *ParseError   from the parser (0-based Col; Incomplete marks constructs
//     cut off at EOF, which a REPL treats as "keep typing")
//   - *RuntimeError from the evaluator, tagged with an ErrKind
//
// WrapErrorWithSource upgrades any of them into a readable multi-line
// snippet with a caret under the offending column:
//
//	PARSE ERROR at 3:12: expected ')' after arguments
//
//	   2 | x = f(1,
//	   3 |       2
//	       |        ^
//
// Other error values pass through unchanged.
package pypolicy

import (
	"fmt"
	"strings"
)

// LexError reports a scanning failure. Col is 0-based.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// ParseError reports a syntax failure. Col is 0-based. Incomplete is set
// only in interactive mode, when the failure is an unexpected EOF inside an
// open construct.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// IsIncomplete reports whether err is a ParseError caused by premature EOF
// in interactive mode.
func IsIncomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.Incomplete
}

// ErrKind classifies runtime failures.
type ErrKind int

const (
	NameError ErrKind = iota
	TypeError
	IndexError
	KeyError
	ArityError
	HostMethodError
)

func (k ErrKind) String() string {
	switch k {
	case NameError:
		return "NAME ERROR"
	case TypeError:
		return "TYPE ERROR"
	case IndexError:
		return "INDEX ERROR"
	case KeyError:
		return "KEY ERROR"
	case ArityError:
		return "ARITY ERROR"
	case HostMethodError:
		return "HOST METHOD ERROR"
	}
	return "RUNTIME ERROR"
}

// RuntimeError reports an evaluation failure. Line/Col locate the AST node
// that raised it (Col 0-based, matching the lexer).
type RuntimeError struct {
	Kind ErrKind
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Col+1, e.Msg)
}

// WrapErrorWithSource returns err augmented with a caret-annotated snippet of
// src. Lex, parse and runtime errors are recognized; anything else is
// returned as-is.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source label ("in <name>")
// in the header, useful when evaluating files.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, e.Kind.String(), srcName, e.Line, e.Col+1, e.Msg))
	default:
		return err
	}
}

// prettyErrorStringLabeled builds the snippet: header, one line of context
// before and after when available, and a caret under the 1-based column.
// Out-of-range coordinates are clamped so rendering never panics.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
