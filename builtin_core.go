// builtin_core.go — core built-ins: len, range, print, type.
package pypolicy

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func registerCoreBuiltins(in *Interpreter) {
	in.RegisterNative("len", 1, false, builtinLen)
	in.RegisterNative("range", 1, false, builtinRange)
	in.RegisterNative("print", 0, true, builtinPrint)
	in.RegisterNative("type", 1, false, builtinType)
}

// builtinLen counts runes for strings, elements for lists, entries for
// dicts, and asks host objects through their len method.
func builtinLen(_ *Interpreter, _ *Value, args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VTStr:
		return Int(int64(utf8.RuneCountInString(v.Data.(string)))), nil
	case VTList:
		return Int(int64(len(v.Data.(*ListObject).Elems))), nil
	case VTDict:
		return Int(int64(v.Data.(*DictObject).Len())), nil
	case VTHost:
		h := v.Data.(HostObject)
		res, err := h.Invoke("len", nil)
		if err != nil {
			return Nil, fmt.Errorf("%s has no length: %s", h.Kind(), err)
		}
		return res, nil
	}
	return Nil, fmt.Errorf("%s has no length", v.TypeName())
}

func builtinRange(_ *Interpreter, _ *Value, args []Value) (Value, error) {
	if args[0].Tag != VTInt {
		return Nil, fmt.Errorf("range needs an int, got %s", args[0].TypeName())
	}
	n := args[0].Data.(int64)
	if n < 0 {
		n = 0
	}
	return HostVal(&rangeObject{n: n}), nil
}

func builtinPrint(in *Interpreter, _ *Value, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Fprintln(in.Stdout, strings.Join(parts, " "))
	return Nil, nil
}

func builtinType(_ *Interpreter, _ *Value, args []Value) (Value, error) {
	return Str(args[0].TypeName()), nil
}
