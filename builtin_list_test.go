// builtin_list_test.go
package pypolicy

import (
	"strings"
	"testing"
)

func Test_List_Append(t *testing.T) {
	wantInt(t, `
xs = [1]
xs.append(2)
xs[1]
`, 2)
	// append returns the receiver, so calls chain.
	wantInt(t, `len([].append(1).append(2))`, 2)
}

func Test_List_Pop(t *testing.T) {
	wantInt(t, `
xs = [1, 2, 3]
last = xs.pop()
last + len(xs)
`, 5)
	wantErrKind(t, `[].pop()`, TypeError)
}

func Test_List_Map(t *testing.T) {
	wantBool(t, `[1, 2, 3].map(i => i * i) == [1, 4, 9]`, true)
	wantInt(t, `
ys = [1, 2, 3].map(x => x * 10)
ys[0] + ys[1] + ys[2]
`, 60)
	// map leaves the receiver untouched.
	wantInt(t, `
xs = [1]
xs.map(x => x + 1)
xs[0]
`, 1)
}

func Test_List_MapArityErrorNamesMethod(t *testing.T) {
	re := wantErrKind(t, `[1, 2].map()`, ArityError)
	if !strings.Contains(re.Msg, "map()") || strings.Contains(re.Msg, "__list") {
		t.Fatalf("message: %s", re.Msg)
	}
	if !strings.Contains(re.Msg, "expects 1 argument(s), got 0") {
		t.Fatalf("argument count: %s", re.Msg)
	}
}

func Test_List_Filter(t *testing.T) {
	wantInt(t, `len([1, 2, 3, 4].filter(x => x % 2 == 0))`, 2)
	wantInt(t, `len([1, 3].filter(x => x > 10))`, 0)
}

func Test_List_Each(t *testing.T) {
	wantInt(t, `
acc = []
[5, 6].each(x => acc.append(x))
acc[0] + acc[1]
`, 11)
	// each returns nil.
	wantBool(t, `[1].each(x => x) == nil`, true)
}

func Test_List_MethodsOnExpressionResults(t *testing.T) {
	wantInt(t, `([1] + [2, 3]).pop()`, 3)
}
