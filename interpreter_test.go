// interpreter_test.go
package pypolicy

import (
	"strings"
	"testing"
)

// evalSrc runs src on a fresh interpreter through the REPL entry point, so
// a trailing expression statement is the result.
func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	in := NewInterpreter()
	v, err := in.EvalPersistentSource(src)
	if err != nil {
		t.Fatalf("eval error:\n%v\nsource:\n%s", err, src)
	}
	return v
}

func wantInt(t *testing.T, src string, want int64) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTInt || v.Data.(int64) != want {
		t.Fatalf("source:\n%s\nwant int %d, got %s (%s)", src, want, v, v.TypeName())
	}
}

func wantStr(t *testing.T, src string, want string) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTStr || v.Data.(string) != want {
		t.Fatalf("source:\n%s\nwant str %q, got %s (%s)", src, want, v, v.TypeName())
	}
}

func wantBool(t *testing.T, src string, want bool) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTBool || v.Data.(bool) != want {
		t.Fatalf("source:\n%s\nwant bool %v, got %s (%s)", src, want, v, v.TypeName())
	}
}

func wantErrKind(t *testing.T, src string, kind ErrKind) *RuntimeError {
	t.Helper()
	in := NewInterpreter()
	_, err := in.EvalSource(src)
	if err == nil {
		t.Fatalf("source:\n%s\nexpected %s, got success", src, kind)
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("source:\n%s\nexpected *RuntimeError, got %T: %v", src, err, err)
	}
	if re.Kind != kind {
		t.Fatalf("source:\n%s\nwant %s, got %s: %v", src, kind, re.Kind, re)
	}
	return re
}

func Test_Eval_Arithmetic(t *testing.T) {
	wantInt(t, `1 + 2 * 3`, 7)
	wantInt(t, `10 - 3 - 2`, 5)
	wantInt(t, `7 / 2`, 3)
	wantInt(t, `7 % 3`, 1)
	wantInt(t, `-(2 + 3)`, -5)

	v := evalSrc(t, `7.0 / 2`)
	if v.Tag != VTNum || v.Data.(float64) != 3.5 {
		t.Fatalf("mixed division: %s", v)
	}
	v = evalSrc(t, `1 + 0.5`)
	if v.Tag != VTNum || v.Data.(float64) != 1.5 {
		t.Fatalf("int/float promotion: %s", v)
	}
}

func Test_Eval_ConcatForms(t *testing.T) {
	wantStr(t, `"ab" + "cd"`, "abcd")
	wantInt(t, `len([1] + [2, 3])`, 3)
	// Concat builds a new list; the operands are untouched.
	wantInt(t, `
a = [1]
b = a + [2]
len(a)
`, 1)
}

func Test_Eval_Comparisons(t *testing.T) {
	wantBool(t, `1 < 2`, true)
	wantBool(t, `2.5 >= 2`, true)
	wantBool(t, `"abc" < "abd"`, true)
	wantBool(t, `1 == 1.0`, true)
	wantBool(t, `[1, [2, 3]] == [1.0, [2, 3]]`, true)
	wantBool(t, `{a: 1} == {a: 1}`, true)
	wantBool(t, `{a: 1} == {a: 2}`, false)
	wantBool(t, `nil == nil`, true)
	wantBool(t, `1 != "1"`, true)
}

func Test_Eval_Truthiness(t *testing.T) {
	// Only nil and false are falsy.
	wantStr(t, `
r = "zero untruthy"
if 0
    r = "zero truthy"
end
r
`, "zero truthy")
	wantStr(t, `
r = "a"
if nil
    r = "b"
elif false
    r = "c"
else
    r = "d"
end
r
`, "d")
	wantBool(t, `not ""`, false)
}

func Test_Eval_LogicalOperandValue(t *testing.T) {
	// and/or yield the deciding operand, not a coerced bool.
	wantStr(t, `nil or "fallback"`, "fallback")
	wantInt(t, `1 and 2`, 2)
	v := evalSrc(t, `false and 2`)
	if v.Tag != VTBool || v.Data.(bool) {
		t.Fatalf("short-circuit value: %s", v)
	}
}

func Test_Eval_ShortCircuitSkipsErrors(t *testing.T) {
	// boom is undefined; the right side must never evaluate.
	wantBool(t, `false and boom()`, false)
	wantBool(t, `true or boom()`, true)
}

func Test_Eval_Membership(t *testing.T) {
	wantBool(t, `"admin" in ["admin", "driver"]`, true)
	wantBool(t, `"root" in ["admin"]`, false)
	wantBool(t, `[1, 2] in [[1, 2], [3]]`, true)
	wantBool(t, `"a" in {a: 1}`, true)
	wantBool(t, `"b" in {a: 1}`, false)
	wantBool(t, `"ell" in "hello"`, true)
	wantErrKind(t, `1 in 2`, TypeError)
}

func Test_Eval_Closures(t *testing.T) {
	// Closures see later mutations of captured frames.
	wantInt(t, `
n = 0
def get()
    return n
end
n = 5
get()
`, 5)

	// Mutation through a captured list.
	wantInt(t, `
c = [0]
bump = () => c.append(1)
bump()
bump()
len(c)
`, 3)
}

func Test_Eval_Functions(t *testing.T) {
	wantInt(t, `
def add(a, b)
    return a + b
end
add(2, 3)
`, 5)

	// Function body without return yields nil.
	v := evalSrc(t, `
def f()
    x = 1
end
f()
`)
	if v.Tag != VTNil {
		t.Fatalf("missing return should be nil, got %s", v)
	}

	// Recursion.
	wantInt(t, `
def fib(n)
    if n < 2
        return n
    end
    return fib(n - 1) + fib(n - 2)
end
fib(10)
`, 55)
}

func Test_Eval_LambdaAndHigherOrder(t *testing.T) {
	wantInt(t, `
apply = (f, x) => f(x)
apply(n => n * 2, 21)
`, 42)
}

func Test_Eval_ForIn(t *testing.T) {
	wantInt(t, `
total = [0]
for x in [1, 2, 3]
    total[0] := total[0] + x
end
total[0]
`, 6)

	// Dict iteration follows insertion order.
	wantStr(t, `
out = []
for k in {b: 1, a: 2, c: 3}
    out.append(k)
end
"".join(out)
`, "bac")

	// String iteration yields runes.
	wantInt(t, `
n = [0]
for ch in "héllo"
    n[0] := n[0] + 1
end
n[0]
`, 5)
}

func Test_Eval_PerIterationScope(t *testing.T) {
	// Each iteration gets its own frame, so closures capture that
	// iteration's value.
	wantInt(t, `
fs = []
for i in [1, 2]
    fs.append(() => i)
end
fs[0]() + fs[1]()
`, 3)
}

func Test_Eval_PathAssign(t *testing.T) {
	wantInt(t, `
d = {a: 1}
d.b := 2
d["b"]
`, 2)

	// Missing intermediate dict keys are created.
	wantInt(t, `
d = {}
d.x.y := 5
d.x.y
`, 5)

	wantInt(t, `
xs = [10, 20]
xs[1] := 99
xs[1]
`, 99)

	// Bracket chains behave like attribute chains, creating intermediates.
	wantBool(t, `
token = {}
token["roles"]["client_b"] := [1, 2, 3]
token == {roles: {client_b: [1, 2, 3]}}
`, true)

	// The base name must already exist.
	wantErrKind(t, `nowhere.x := 1`, NameError)
	// List hops never create elements.
	wantErrKind(t, `
xs = []
xs[0] := 1
`, IndexError)
}

func Test_Eval_Indexing(t *testing.T) {
	wantInt(t, `[10, 20, 30][1]`, 20)
	wantStr(t, `"héllo"[1]`, "é")
	wantInt(t, `{a: {b: [1, 42]}}.a.b[1]`, 42)
	wantErrKind(t, `[1][5]`, IndexError)
	wantErrKind(t, `[1][-1]`, IndexError)
	wantErrKind(t, `[1]["0"]`, TypeError)
	wantErrKind(t, `{}["missing"]`, KeyError)
	wantErrKind(t, `{a: 1}.b`, KeyError)
	wantErrKind(t, `(42)[0]`, TypeError)
}

func Test_Eval_DictKeyNormalization(t *testing.T) {
	// 1 and 1.0 address the same entry.
	wantInt(t, `
d = {}
d[1] := 10
d[1.0]
`, 10)
}

func Test_Eval_DictStoredFunction(t *testing.T) {
	wantInt(t, `
d = {double: x => x * 2}
d.double(21)
`, 42)
}

func Test_Eval_TopLevelReturn(t *testing.T) {
	wantInt(t, `
return 42
99
`, 42)
	// A program of only bindings yields nil.
	v := evalSrc(t, `x = 1`)
	if v.Tag != VTNil {
		t.Fatalf("want nil, got %s", v)
	}
}

func Test_Eval_ScriptResultNilWithoutReturn(t *testing.T) {
	// A script result is the value of a `return`; falling off the end is
	// nil, even past a trailing expression statement.
	in := NewInterpreter()
	v, err := in.EvalSource("x = 1\n2 + 3")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Tag != VTNil {
		t.Fatalf("want nil, got %s", v)
	}

	v, err = in.EvalSource("return 2 + 3")
	if err != nil || v.Data.(int64) != 5 {
		t.Fatalf("return result: %s %v", v, err)
	}

	// The interactive path keeps echoing the last expression.
	v, err = in.EvalPersistentSource("2 + 3")
	if err != nil || v.Data.(int64) != 5 {
		t.Fatalf("interactive result: %s %v", v, err)
	}
}

func Test_Eval_CyclicValues(t *testing.T) {
	// Path assignment can close a cycle. Comparing a cyclic value against
	// itself short-circuits on identity; comparing two distinct cycles must
	// error instead of recursing forever.
	wantBool(t, `
a = [1]
a[0] := a
return a == a
`, true)
	wantBool(t, `
a = [1]
a[0] := a
return a in a
`, true)
	wantErrKind(t, `
a = [1]
a[0] := a
b = [1]
b[0] := b
return a == b
`, TypeError)
	wantErrKind(t, `
d = {}
d.self := d
e = {}
e.self := e
return d == e
`, TypeError)
}

func Test_Eval_RuntimeErrorKinds(t *testing.T) {
	wantErrKind(t, `zzz`, NameError)
	wantErrKind(t, `
def f(a)
    return a
end
f()
`, ArityError)
	wantErrKind(t, `1 + "a"`, TypeError)
	wantErrKind(t, `1 / 0`, TypeError)
	wantErrKind(t, `5(1)`, TypeError)
	wantErrKind(t, `(42).nope()`, TypeError)
}

func Test_Eval_ErrorCarriesPosition(t *testing.T) {
	re := wantErrKind(t, "x = 1\nzzz", NameError)
	if re.Line != 2 {
		t.Fatalf("error line: %d", re.Line)
	}
	if !strings.Contains(re.Error(), "zzz") {
		t.Fatalf("message: %s", re.Error())
	}
}

func Test_Eval_CallDepthGuard(t *testing.T) {
	in := NewInterpreter()
	in.MaxCallDepth = 50
	_, err := in.EvalSource(`
def f()
    return f()
end
f()
`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != TypeError {
		t.Fatalf("expected depth guard error, got %v", err)
	}
	if !strings.Contains(re.Msg, "call depth") {
		t.Fatalf("message: %s", re.Msg)
	}
}

func Test_Eval_PersistentVsFresh(t *testing.T) {
	in := NewInterpreter()
	if _, err := in.EvalPersistentSource(`x = 41`); err != nil {
		t.Fatalf("persistent eval: %v", err)
	}
	v, err := in.EvalPersistentSource(`x + 1`)
	if err != nil || v.Data.(int64) != 42 {
		t.Fatalf("persistent state: %s %v", v, err)
	}

	// EvalSource must not leak bindings into Global.
	if _, err := in.EvalSource(`leaky = 1`); err != nil {
		t.Fatalf("fresh eval: %v", err)
	}
	if _, err := in.EvalSource(`leaky`); err == nil {
		t.Fatalf("binding leaked across EvalSource calls")
	}
}

func Test_Eval_DefineGlobal(t *testing.T) {
	in := NewInterpreter()
	tok := NewDict()
	roles := List(Str("admin"), Str("driver"))
	k, _ := NewDictKey(Str("roles"))
	tok.Data.(*DictObject).Set(k, roles)
	in.DefineGlobal("token", tok)

	v, err := in.EvalSource(`return "admin" in token.roles`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Tag != VTBool || !v.Data.(bool) {
		t.Fatalf("policy result: %s", v)
	}
}

func Test_Eval_Apply(t *testing.T) {
	in := NewInterpreter()
	fn, err := in.EvalSource(`return (a, b) => a * b`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	v, err := in.Apply(fn, []Value{Int(6), Int(7)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v.Data.(int64) != 42 {
		t.Fatalf("apply result: %s", v)
	}

	if _, err := in.Apply(fn, []Value{Int(1)}); err == nil {
		t.Fatalf("arity mismatch must error")
	}
	if _, err := in.Apply(Int(3), nil); err == nil {
		t.Fatalf("applying a non-function must error")
	}
}

func Test_Eval_RegisterNative(t *testing.T) {
	in := NewInterpreter()
	in.RegisterNative("twice", 1, false, func(_ *Interpreter, _ *Value, args []Value) (Value, error) {
		return binaryOp("+", args[0], args[0], Pos{Line: 1}), nil
	})
	v, err := in.EvalSource(`return twice(21)`)
	if err != nil || v.Data.(int64) != 42 {
		t.Fatalf("native: %s %v", v, err)
	}
}

func Test_Eval_TraceHook(t *testing.T) {
	in := NewInterpreter()
	var lines []int
	in.SetTraceHook(func(line int, _ Node) { lines = append(lines, line) })
	if _, err := in.EvalSource("x = 1\ny = 2"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 2 {
		t.Fatalf("trace lines: %v", lines)
	}
}
