// runtime_test.go
package pypolicy

import (
	"strings"
	"testing"
)

func Test_Runtime_DeepCopy(t *testing.T) {
	in := NewInterpreter()
	orig, err := in.EvalSource(`return {a: [1, 2], b: {c: 3}}`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	cp, err := DeepCopy(orig)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !deepEqual(orig, cp, Pos{Line: 1}) {
		t.Fatalf("copy should compare equal")
	}

	// Mutating the copy must not touch the original.
	in.DefineGlobal("cp", cp)
	if _, err := in.EvalPersistentSource(`cp.a.append(99)
cp.b.c := 0`); err != nil {
		t.Fatalf("mutate copy: %v", err)
	}
	in.DefineGlobal("orig", orig)
	v, err := in.EvalPersistentSource(`return len(orig.a) == 2 and orig.b.c == 3`)
	if err != nil || !v.Data.(bool) {
		t.Fatalf("copy aliased the original: %s %v", v, err)
	}
}

func Test_Runtime_DeepCopyScalarsShareNothing(t *testing.T) {
	v, err := DeepCopy(Str("s"))
	if err != nil || v.Tag != VTStr || v.Data.(string) != "s" {
		t.Fatalf("scalar copy: %s %v", v, err)
	}
}

func Test_Runtime_CyclicValuesRejected(t *testing.T) {
	in := NewInterpreter()
	v, err := in.EvalSource(`
a = [1]
a[0] := a
return a
`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := DeepCopy(v); err == nil {
		t.Fatalf("copying a cyclic value must error")
	}
	if _, err := ValueToJSON(v); err == nil {
		t.Fatalf("serializing a cyclic value must error")
	}
}

func Test_Runtime_ValueFromJSON(t *testing.T) {
	v, err := ValueFromJSON(`{"roles": {"my_client": ["admin", "driver"]}, "n": 3, "f": 1.5, "ok": true, "none": null}`)
	if err != nil {
		t.Fatalf("ValueFromJSON: %v", err)
	}
	in := NewInterpreter()
	in.DefineGlobal("token", v)

	res, err := in.EvalSource(`return "admin" in token.roles.my_client`)
	if err != nil || !res.Data.(bool) {
		t.Fatalf("lookup: %s %v", res, err)
	}

	// Integral numbers come back as ints, fractions as nums.
	res, _ = in.EvalSource(`return type(token.n) + "/" + type(token.f)`)
	if res.Data.(string) != "int/num" {
		t.Fatalf("number mapping: %s", res)
	}

	// Object key order is preserved.
	res, _ = in.EvalSource(`return ",".join(token.keys())`)
	if res.Data.(string) != "roles,n,f,ok,none" {
		t.Fatalf("key order: %s", res)
	}
}

func Test_Runtime_ValueFromJSON_Errors(t *testing.T) {
	if _, err := ValueFromJSON(`{"a":`); err == nil {
		t.Fatalf("truncated JSON must fail")
	}
	if _, err := ValueFromJSON(`1 2`); err == nil {
		t.Fatalf("trailing data must fail")
	}
}

func Test_Runtime_ValueToJSON(t *testing.T) {
	v, err := ValueFromJSON(`{"b":1,"a":[true,null,"s"]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := ValueToJSON(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out != `{"b":1,"a":[true,null,"s"]}` {
		t.Fatalf("round trip: %s", out)
	}

	if _, err := ValueToJSON(FunVal(&Fun{Name: "f"})); err == nil {
		t.Fatalf("functions are not serializable")
	}
}

func Test_Runtime_PreludeMethodsInstalled(t *testing.T) {
	in := NewInterpreter()
	for _, name := range []string{"map", "each", "filter"} {
		if _, ok := in.lookupMethod(VTList, name); !ok {
			t.Fatalf("prelude method %q missing", name)
		}
	}
	// Prelude internals must not leak into Core or Global.
	if _, ok := in.Global.Get("__list_map"); ok {
		t.Fatalf("prelude helper leaked into Global")
	}
	if _, ok := in.Core.Get("__list_map"); ok {
		t.Fatalf("prelude helper leaked into Core")
	}
}

func Test_Runtime_PolicyEndToEnd(t *testing.T) {
	// The full pipeline: JSON token in, policy decision out.
	token, err := ValueFromJSON(`{"roles": {"my_client": ["admin", "driver"]}}`)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	in := NewInterpreter()
	in.DefineGlobal("token", token)

	src := `
def allowed(tok, client, role)
    if not tok.roles.has(client)
        return false
    end
    return role in tok.roles[client]
end

return allowed(token, "my_client", "admin") and not allowed(token, "other", "admin")
`
	v, err := in.EvalSource(src)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if v.Tag != VTBool || !v.Data.(bool) {
		t.Fatalf("decision: %s", v)
	}
}

func Test_Runtime_ValueRendering(t *testing.T) {
	cases := map[string]string{
		`return nil`:              "nil",
		`return 1.0`:              "1.0",
		`return [1, "a", nil]`:    `[1, "a", nil]`,
		`return {a: 1, "b c": 2}`: `{"a": 1, "b c": 2}`,
	}
	for src, want := range cases {
		v := evalSrc(t, src)
		if v.String() != want {
			t.Fatalf("%s: want %q, got %q", src, want, v.String())
		}
	}
	// Bare strings render unquoted; nested ones are quoted.
	if got := Str("hi").String(); got != "hi" {
		t.Fatalf("bare string: %q", got)
	}
	fn := evalSrc(t, `
def f()
end
return f
`)
	if !strings.HasPrefix(fn.String(), "<function f>") {
		t.Fatalf("function rendering: %q", fn.String())
	}
}
