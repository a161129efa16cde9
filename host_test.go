// host_test.go
package pypolicy

import (
	"fmt"
	"strings"
	"testing"
)

// stubCursor is a minimal host object for bridge tests: iterates a fixed
// set of rows and answers a couple of methods.
type stubCursor struct {
	rows   []string
	closed bool
}

func (c *stubCursor) Kind() string { return "cursor" }

func (c *stubCursor) Iterate() (HostIterator, error) {
	if c.closed {
		return nil, fmt.Errorf("cursor is closed")
	}
	return &stubCursorIter{rows: c.rows}, nil
}

func (c *stubCursor) Invoke(name string, args []Value) (Value, error) {
	switch name {
	case "len":
		return Int(int64(len(c.rows))), nil
	case "close":
		c.closed = true
		return Nil, nil
	case "first":
		if len(c.rows) == 0 {
			return Nil, fmt.Errorf("no rows")
		}
		return Str(c.rows[0]), nil
	}
	return Nil, fmt.Errorf("unknown method %q", name)
}

type stubCursorIter struct {
	rows []string
	i    int
}

func (it *stubCursorIter) Next() (Value, bool) {
	if it.i >= len(it.rows) {
		return Nil, false
	}
	v := Str(it.rows[it.i])
	it.i++
	return v, true
}

func Test_Host_IterationAndMethods(t *testing.T) {
	in := NewInterpreter()
	in.DefineGlobal("cursor", HostVal(&stubCursor{rows: []string{"a", "b", "c"}}))

	v, err := in.EvalSource(`
out = []
for row in cursor
    out.append(row)
end
return "-".join(out)
`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Data.(string) != "a-b-c" {
		t.Fatalf("iteration: %s", v)
	}

	v, err = in.EvalSource(`return cursor.first()`)
	if err != nil || v.Data.(string) != "a" {
		t.Fatalf("method call: %s %v", v, err)
	}

	v, err = in.EvalSource(`return len(cursor)`)
	if err != nil || v.Data.(int64) != 3 {
		t.Fatalf("len forwarding: %s %v", v, err)
	}
}

func Test_Host_Membership(t *testing.T) {
	in := NewInterpreter()
	in.DefineGlobal("cursor", HostVal(&stubCursor{rows: []string{"x", "y"}}))
	v, err := in.EvalSource(`return "y" in cursor`)
	if err != nil || !v.Data.(bool) {
		t.Fatalf("host membership: %s %v", v, err)
	}
}

func Test_Host_MethodError(t *testing.T) {
	in := NewInterpreter()
	in.DefineGlobal("cursor", HostVal(&stubCursor{}))
	_, err := in.EvalSource(`cursor.nope()`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != HostMethodError {
		t.Fatalf("expected host method error, got %v", err)
	}
	if !strings.Contains(re.Msg, "nope") {
		t.Fatalf("message: %s", re.Msg)
	}
}

func Test_Host_IterateErrorSurfaces(t *testing.T) {
	in := NewInterpreter()
	c := &stubCursor{rows: []string{"a"}}
	c.closed = true
	in.DefineGlobal("cursor", HostVal(c))
	_, err := in.EvalSource(`for r in cursor r end`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != TypeError {
		t.Fatalf("expected type error for closed cursor, got %v", err)
	}
}

func Test_Host_BoundMethodValue(t *testing.T) {
	// Extracting an attribute from a host object yields a callable bound to
	// the object.
	in := NewInterpreter()
	in.DefineGlobal("cursor", HostVal(&stubCursor{rows: []string{"a", "b"}}))
	v, err := in.EvalSource(`
f = cursor.len
return f()
`)
	if err != nil || v.Data.(int64) != 2 {
		t.Fatalf("bound host method: %s %v", v, err)
	}
}

func Test_Host_Range(t *testing.T) {
	wantInt(t, `
s = [0]
for i in range(5)
    s[0] := s[0] + i
end
s[0]
`, 10)
	wantInt(t, `len(range(7))`, 7)
	wantBool(t, `3 in range(4)`, true)
	wantBool(t, `4 in range(4)`, false)
	// Negative counts behave as empty.
	wantInt(t, `len(range(0 - 3))`, 0)
}
