// builtin_list.go — native list methods. The derived methods (map, each,
// filter) are defined in pp itself; see the prelude in runtime.go.
package pypolicy

import "fmt"

func registerListBuiltins(in *Interpreter) {
	in.RegisterMethod(VTList, "append", nativeMethod("append", 1, false, listAppend))
	in.RegisterMethod(VTList, "pop", nativeMethod("pop", 0, false, listPop))
}

// nativeMethod wraps a NativeImpl as a method table entry.
func nativeMethod(name string, arity int, variadic bool, impl NativeImpl) Value {
	return FunVal(&Fun{Name: name, Arity: arity, Variadic: variadic, Native: impl})
}

// listAppend mutates the receiver in place and returns it, so appends
// chain.
func listAppend(_ *Interpreter, recv *Value, args []Value) (Value, error) {
	lo := recv.Data.(*ListObject)
	lo.Elems = append(lo.Elems, args[0])
	return *recv, nil
}

// listPop removes and returns the last element.
func listPop(_ *Interpreter, recv *Value, _ []Value) (Value, error) {
	lo := recv.Data.(*ListObject)
	n := len(lo.Elems)
	if n == 0 {
		return Nil, fmt.Errorf("pop from empty list")
	}
	v := lo.Elems[n-1]
	lo.Elems = lo.Elems[:n-1]
	return v, nil
}
