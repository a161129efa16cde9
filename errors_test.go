// errors_test.go
package pypolicy

import (
	"strings"
	"testing"
)

func Test_Errors_ParseSnippet(t *testing.T) {
	src := "x = 1\nxs[1\ny = 2"
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	out := WrapErrorWithSource(err, src).Error()
	if !strings.HasPrefix(out, "PARSE ERROR at ") {
		t.Fatalf("header: %q", out)
	}
	// The ']' is missing, so the parser trips on 'y' at line 3; the snippet
	// shows one line of context on each side.
	for _, want := range []string{"   2 | xs[1", "   3 | y = 2", "^"} {
		if !strings.Contains(out, want) {
			t.Fatalf("snippet missing %q:\n%s", want, out)
		}
	}
}

func Test_Errors_LexSnippet(t *testing.T) {
	src := `x = "unterminated`
	l := NewLexer(src)
	_, err := l.Scan()
	if err == nil {
		t.Fatalf("expected lex error")
	}
	out := WrapErrorWithSource(err, src).Error()
	if !strings.HasPrefix(out, "LEXICAL ERROR at ") {
		t.Fatalf("header: %q", out)
	}
}

func Test_Errors_RuntimeSnippetWithName(t *testing.T) {
	src := "x = 1\nboom()"
	in := NewInterpreter()
	_, err := in.EvalSource(src)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	out := WrapErrorWithName(err, "policy.pp", src).Error()
	if !strings.HasPrefix(out, "NAME ERROR in policy.pp at 2:") {
		t.Fatalf("header: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("snippet:\n%s", out)
	}
}

func Test_Errors_CaretColumn(t *testing.T) {
	src := "zzz"
	in := NewInterpreter()
	_, err := in.EvalSource(src)
	out := WrapErrorWithSource(err, src).Error()
	// Column 1 puts the caret directly under the first character.
	if !strings.Contains(out, "     | ^") {
		t.Fatalf("caret placement:\n%s", out)
	}
}

func Test_Errors_PassThrough(t *testing.T) {
	plain := &LexError{Line: 1, Col: 0, Msg: "m"}
	if WrapErrorWithSource(plain, "x") == error(plain) {
		t.Fatalf("lex errors should be wrapped")
	}
	other := errString("untouched")
	if WrapErrorWithSource(other, "x") != error(other) {
		t.Fatalf("foreign errors must pass through unchanged")
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func Test_Errors_IncompleteFlag(t *testing.T) {
	if IsIncomplete(&ParseError{Msg: "m"}) {
		t.Fatalf("plain parse error is not incomplete")
	}
	if !IsIncomplete(&ParseError{Msg: "m", Incomplete: true}) {
		t.Fatalf("incomplete flag lost")
	}
	if IsIncomplete(errString("x")) {
		t.Fatalf("foreign error is not incomplete")
	}
}

func Test_Errors_KindStrings(t *testing.T) {
	cases := map[ErrKind]string{
		NameError:       "NAME ERROR",
		TypeError:       "TYPE ERROR",
		IndexError:      "INDEX ERROR",
		KeyError:        "KEY ERROR",
		ArityError:      "ARITY ERROR",
		HostMethodError: "HOST METHOD ERROR",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("%d: want %q, got %q", k, want, k.String())
		}
	}
}
