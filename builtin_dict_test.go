// builtin_dict_test.go
package pypolicy

import "testing"

func Test_Dict_Keys(t *testing.T) {
	wantStr(t, `"".join({b: 1, a: 2, c: 3}.keys())`, "bac")
	wantInt(t, `len({}.keys())`, 0)
	// Updating an entry keeps its original position.
	wantStr(t, `
d = {b: 1, a: 2}
d.b := 9
"".join(d.keys())
`, "ba")
}

func Test_Dict_Values(t *testing.T) {
	wantInt(t, `
vs = {a: 1, b: 2}.values()
vs[0] + vs[1]
`, 3)
}

func Test_Dict_Has(t *testing.T) {
	wantBool(t, `{a: 1}.has("a")`, true)
	wantBool(t, `{a: 1}.has("b")`, false)
	wantBool(t, `{1: "x"}.has(1.0)`, true)
	wantBool(t, `{a: 1}.has([])`, false)
}

func Test_Dict_MethodShadowsEntry(t *testing.T) {
	// A dict entry named like a built-in method does not hide the method.
	wantInt(t, `len({keys: 1}.keys())`, 1)
	// The entry itself stays reachable by indexing.
	wantInt(t, `{keys: 7}["keys"]`, 7)
}
