// builtin_strings.go — native string methods.
package pypolicy

import (
	"fmt"
	"strings"
)

func registerStringBuiltins(in *Interpreter) {
	in.RegisterMethod(VTStr, "fmt", nativeMethod("fmt", 0, true, strFmt))
	in.RegisterMethod(VTStr, "join", nativeMethod("join", 1, false, strJoin))
	in.RegisterMethod(VTStr, "upper", nativeMethod("upper", 0, false, strUpper))
	in.RegisterMethod(VTStr, "lower", nativeMethod("lower", 0, false, strLower))
	in.RegisterMethod(VTStr, "split", nativeMethod("split", 1, false, strSplit))
}

// strFmt formats the receiver with printf verbs: "%s at %d".fmt(name, n).
// Arguments are unwrapped to their Go representations so %d and %f behave
// as expected; collections format through their pp rendering.
func strFmt(_ *Interpreter, recv *Value, args []Value) (Value, error) {
	goArgs := make([]interface{}, len(args))
	for i, a := range args {
		switch a.Tag {
		case VTBool:
			goArgs[i] = a.Data.(bool)
		case VTInt:
			goArgs[i] = a.Data.(int64)
		case VTNum:
			goArgs[i] = a.Data.(float64)
		case VTStr:
			goArgs[i] = a.Data.(string)
		default:
			goArgs[i] = a.String()
		}
	}
	return Str(fmt.Sprintf(recv.Data.(string), goArgs...)), nil
}

// strJoin concatenates a list of strings with the receiver as separator.
func strJoin(_ *Interpreter, recv *Value, args []Value) (Value, error) {
	if args[0].Tag != VTList {
		return Nil, fmt.Errorf("join needs a list, got %s", args[0].TypeName())
	}
	elems := args[0].Data.(*ListObject).Elems
	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.Tag != VTStr {
			return Nil, fmt.Errorf("join element %d is %s, not str", i, e.TypeName())
		}
		parts[i] = e.Data.(string)
	}
	return Str(strings.Join(parts, recv.Data.(string))), nil
}

func strUpper(_ *Interpreter, recv *Value, _ []Value) (Value, error) {
	return Str(strings.ToUpper(recv.Data.(string))), nil
}

func strLower(_ *Interpreter, recv *Value, _ []Value) (Value, error) {
	return Str(strings.ToLower(recv.Data.(string))), nil
}

func strSplit(_ *Interpreter, recv *Value, args []Value) (Value, error) {
	if args[0].Tag != VTStr {
		return Nil, fmt.Errorf("split needs a string separator, got %s", args[0].TypeName())
	}
	parts := strings.Split(recv.Data.(string), args[0].Data.(string))
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return List(out...), nil
}
