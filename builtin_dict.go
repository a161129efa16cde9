// builtin_dict.go — native dict methods.
package pypolicy

func registerDictBuiltins(in *Interpreter) {
	in.RegisterMethod(VTDict, "keys", nativeMethod("keys", 0, false, dictKeys))
	in.RegisterMethod(VTDict, "values", nativeMethod("values", 0, false, dictValues))
	in.RegisterMethod(VTDict, "has", nativeMethod("has", 1, false, dictHas))
}

// dictKeys returns the keys as a list, in insertion order.
func dictKeys(_ *Interpreter, recv *Value, _ []Value) (Value, error) {
	d := recv.Data.(*DictObject)
	keys := d.Keys()
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = k.Value()
	}
	return List(out...), nil
}

func dictValues(_ *Interpreter, recv *Value, _ []Value) (Value, error) {
	d := recv.Data.(*DictObject)
	keys := d.Keys()
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i], _ = d.Get(k)
	}
	return List(out...), nil
}

// dictHas tests key membership without raising on a miss.
func dictHas(_ *Interpreter, recv *Value, args []Value) (Value, error) {
	k, err := NewDictKey(args[0])
	if err != nil {
		return Bool(false), nil
	}
	_, ok := recv.Data.(*DictObject).Get(k)
	return Bool(ok), nil
}
