// interpreter_ops.go — operator semantics, indexing, attribute and method
// dispatch, and nested-path assignment.
package pypolicy

import (
	"fmt"
	"strings"
)

// rtErr is the panic payload for runtime errors, recovered at the API
// boundary.
type rtErr struct{ re *RuntimeError }

func (e rtErr) err() *RuntimeError { return e.re }

func fail(kind ErrKind, at Pos, format string, a ...interface{}) {
	panic(rtErr{&RuntimeError{
		Kind: kind,
		Line: at.Line,
		Col:  at.Col,
		Msg:  fmt.Sprintf(format, a...),
	}})
}

// truthy: only nil and false are falsy. Zero, "" and empty collections are
// all truthy.
func truthy(v Value) bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		return v.Data.(bool)
	}
	return true
}

// numeric extraction. ok is false for non-numbers.
func asFloat(v Value) (float64, bool) {
	switch v.Tag {
	case VTInt:
		return float64(v.Data.(int64)), true
	case VTNum:
		return v.Data.(float64), true
	}
	return 0, false
}

func bothInt(l, r Value) bool { return l.Tag == VTInt && r.Tag == VTInt }

// maxValueDepth bounds structural recursion over containers. Scripts can
// build cyclic lists and dicts through path assignment; past this depth the
// walk raises a type error instead of exhausting the Go stack.
const maxValueDepth = 256

// deepEqual implements structural equality: ints and floats cross-compare
// by numeric value, lists and dicts compare element-wise, functions and
// host objects compare by identity. Identical containers compare equal
// without descending, so a cyclic value equals itself.
func deepEqual(a, b Value, at Pos) bool {
	return deepEqualDepth(a, b, 0, at)
}

func deepEqualDepth(a, b Value, depth int, at Pos) bool {
	if depth > maxValueDepth {
		fail(TypeError, at, "comparison exceeds maximum value depth (%d)", maxValueDepth)
	}
	if a.Tag == b.Tag {
		switch a.Tag {
		case VTNil:
			return true
		case VTBool:
			return a.Data.(bool) == b.Data.(bool)
		case VTInt:
			return a.Data.(int64) == b.Data.(int64)
		case VTNum:
			return a.Data.(float64) == b.Data.(float64)
		case VTStr:
			return a.Data.(string) == b.Data.(string)
		case VTList:
			la, lb := a.Data.(*ListObject), b.Data.(*ListObject)
			if la == lb {
				return true
			}
			if len(la.Elems) != len(lb.Elems) {
				return false
			}
			for i := range la.Elems {
				if !deepEqualDepth(la.Elems[i], lb.Elems[i], depth+1, at) {
					return false
				}
			}
			return true
		case VTDict:
			da, db := a.Data.(*DictObject), b.Data.(*DictObject)
			if da == db {
				return true
			}
			if da.Len() != db.Len() {
				return false
			}
			for _, k := range da.keys {
				va, _ := da.Get(k)
				vb, ok := db.Get(k)
				if !ok || !deepEqualDepth(va, vb, depth+1, at) {
					return false
				}
			}
			return true
		case VTFun:
			return a.Data.(*Fun) == b.Data.(*Fun)
		case VTHost:
			return a.Data == b.Data
		}
		return false
	}
	// Mixed int/num compares numerically.
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
	}
	return false
}

func binaryOp(op string, l, r Value, at Pos) Value {
	switch op {
	case "+":
		return opAdd(l, r, at)
	case "-", "*":
		return opArith(op, l, r, at)
	case "/":
		return opDiv(l, r, at)
	case "%":
		return opMod(l, r, at)
	case "==":
		return Bool(deepEqual(l, r, at))
	case "!=":
		return Bool(!deepEqual(l, r, at))
	case "<", "<=", ">", ">=":
		return opCompare(op, l, r, at)
	case "in":
		return opIn(l, r, at)
	}
	fail(TypeError, at, "unknown operator %q", op)
	return Nil
}

func opAdd(l, r Value, at Pos) Value {
	if bothInt(l, r) {
		return Int(l.Data.(int64) + r.Data.(int64))
	}
	if fl, ok := asFloat(l); ok {
		if fr, ok := asFloat(r); ok {
			return Num(fl + fr)
		}
	}
	if l.Tag == VTStr && r.Tag == VTStr {
		return Str(l.Data.(string) + r.Data.(string))
	}
	if l.Tag == VTList && r.Tag == VTList {
		la, lb := l.Data.(*ListObject), r.Data.(*ListObject)
		elems := make([]Value, 0, len(la.Elems)+len(lb.Elems))
		elems = append(elems, la.Elems...)
		elems = append(elems, lb.Elems...)
		return List(elems...)
	}
	fail(TypeError, at, "unsupported operand types for '+': %s and %s", l.TypeName(), r.TypeName())
	return Nil
}

func opArith(op string, l, r Value, at Pos) Value {
	if bothInt(l, r) {
		a, b := l.Data.(int64), r.Data.(int64)
		if op == "-" {
			return Int(a - b)
		}
		return Int(a * b)
	}
	if fl, ok := asFloat(l); ok {
		if fr, ok := asFloat(r); ok {
			if op == "-" {
				return Num(fl - fr)
			}
			return Num(fl * fr)
		}
	}
	fail(TypeError, at, "unsupported operand types for %q: %s and %s", op, l.TypeName(), r.TypeName())
	return Nil
}

// opDiv truncates for int/int and promotes to float otherwise. Division by
// zero raises in both cases.
func opDiv(l, r Value, at Pos) Value {
	if bothInt(l, r) {
		b := r.Data.(int64)
		if b == 0 {
			fail(TypeError, at, "division by zero")
		}
		return Int(l.Data.(int64) / b)
	}
	if fl, ok := asFloat(l); ok {
		if fr, ok := asFloat(r); ok {
			if fr == 0 {
				fail(TypeError, at, "division by zero")
			}
			return Num(fl / fr)
		}
	}
	fail(TypeError, at, "unsupported operand types for '/': %s and %s", l.TypeName(), r.TypeName())
	return Nil
}

func opMod(l, r Value, at Pos) Value {
	if !bothInt(l, r) {
		fail(TypeError, at, "'%%' needs two ints, got %s and %s", l.TypeName(), r.TypeName())
	}
	b := r.Data.(int64)
	if b == 0 {
		fail(TypeError, at, "modulo by zero")
	}
	return Int(l.Data.(int64) % b)
}

func opCompare(op string, l, r Value, at Pos) Value {
	var cmp int
	if fl, ok := asFloat(l); ok {
		fr, ok := asFloat(r)
		if !ok {
			fail(TypeError, at, "cannot compare %s with %s", l.TypeName(), r.TypeName())
		}
		switch {
		case fl < fr:
			cmp = -1
		case fl > fr:
			cmp = 1
		}
	} else if l.Tag == VTStr && r.Tag == VTStr {
		cmp = strings.Compare(l.Data.(string), r.Data.(string))
	} else {
		fail(TypeError, at, "cannot compare %s with %s", l.TypeName(), r.TypeName())
	}
	switch op {
	case "<":
		return Bool(cmp < 0)
	case "<=":
		return Bool(cmp <= 0)
	case ">":
		return Bool(cmp > 0)
	default:
		return Bool(cmp >= 0)
	}
}

// opIn: list membership is structural, dict membership checks keys, string
// membership is substring search, host membership walks the iterator.
func opIn(l, r Value, at Pos) Value {
	switch r.Tag {
	case VTList:
		for _, e := range r.Data.(*ListObject).Elems {
			if deepEqual(l, e, at) {
				return Bool(true)
			}
		}
		return Bool(false)
	case VTDict:
		k, err := NewDictKey(l)
		if err != nil {
			return Bool(false)
		}
		_, ok := r.Data.(*DictObject).Get(k)
		return Bool(ok)
	case VTStr:
		if l.Tag != VTStr {
			fail(TypeError, at, "'in' on a string needs a string, got %s", l.TypeName())
		}
		return Bool(strings.Contains(r.Data.(string), l.Data.(string)))
	case VTHost:
		it, err := r.Data.(HostObject).Iterate()
		if err != nil {
			fail(TypeError, at, "%s is not iterable: %s", r.Data.(HostObject).Kind(), err.Error())
		}
		for {
			v, ok := it.Next()
			if !ok {
				return Bool(false)
			}
			if deepEqual(l, v, at) {
				return Bool(true)
			}
		}
	}
	fail(TypeError, at, "right operand of 'in' must be a container, got %s", r.TypeName())
	return Nil
}

func indexGet(x, key Value, at Pos) Value {
	switch x.Tag {
	case VTList:
		lo := x.Data.(*ListObject)
		i := listIndex(key, len(lo.Elems), at)
		return lo.Elems[i]
	case VTStr:
		runes := []rune(x.Data.(string))
		i := listIndex(key, len(runes), at)
		return Str(string(runes[i]))
	case VTDict:
		k, err := NewDictKey(key)
		if err != nil {
			fail(TypeError, at, "%s", err.Error())
		}
		v, ok := x.Data.(*DictObject).Get(k)
		if !ok {
			fail(KeyError, at, "key %s not found", k.String())
		}
		return v
	}
	fail(TypeError, at, "%s is not indexable", x.TypeName())
	return Nil
}

// listIndex validates an int index against [0, n).
func listIndex(key Value, n int, at Pos) int {
	if key.Tag != VTInt {
		fail(TypeError, at, "index must be an int, got %s", key.TypeName())
	}
	i := key.Data.(int64)
	if i < 0 || i >= int64(n) {
		fail(IndexError, at, "index %d out of range (length %d)", i, n)
	}
	return int(i)
}

// attrGet resolves v.name: registered methods first (bound to v), then host
// method wrappers, then dict entries.
func (in *Interpreter) attrGet(v Value, name string, at Pos) Value {
	if m, ok := in.lookupMethod(v.Tag, name); ok {
		return bindMethod(m, v)
	}
	if v.Tag == VTHost {
		h := v.Data.(HostObject)
		return FunVal(&Fun{
			Name:     h.Kind() + "." + name,
			Arity:    0,
			Variadic: true,
			Native: func(_ *Interpreter, _ *Value, args []Value) (Value, error) {
				res, err := h.Invoke(name, args)
				if err != nil {
					return Nil, &RuntimeError{Kind: HostMethodError,
						Msg: fmt.Sprintf("%s.%s: %s", h.Kind(), name, err.Error())}
				}
				return res, nil
			},
		})
	}
	if v.Tag == VTDict {
		k := DictKey{tag: dkStr, s: name}
		if e, ok := v.Data.(*DictObject).Get(k); ok {
			return e
		}
		fail(KeyError, at, "key %q not found", name)
	}
	fail(TypeError, at, "%s has no attribute %q", v.TypeName(), name)
	return Nil
}

// bindMethod clones a function value with its receiver fixed.
func bindMethod(m Value, recv Value) Value {
	f := m.Data.(*Fun)
	bound := *f
	bound.Recv = &recv
	return FunVal(&bound)
}

// methodCall dispatches recv.name(args): host Invoke, registered methods,
// then function-valued dict entries.
func (in *Interpreter) methodCall(recv Value, name string, args []Value, at Pos) Value {
	if recv.Tag == VTHost {
		h := recv.Data.(HostObject)
		res, err := h.Invoke(name, args)
		if err != nil {
			fail(HostMethodError, at, "%s.%s: %s", h.Kind(), name, err.Error())
		}
		return res
	}
	if m, ok := in.lookupMethod(recv.Tag, name); ok {
		f := m.Data.(*Fun)
		bound := *f
		bound.Recv = &recv
		return in.callFunction(&bound, args, at)
	}
	if recv.Tag == VTDict {
		k := DictKey{tag: dkStr, s: name}
		if e, ok := recv.Data.(*DictObject).Get(k); ok {
			if e.Tag != VTFun {
				fail(TypeError, at, "dict entry %q is not callable", name)
			}
			return in.callFunction(e.Data.(*Fun), args, at)
		}
	}
	fail(TypeError, at, "%s has no method %q", recv.TypeName(), name)
	return Nil
}

// pathAssign executes `base.hop1[hop2]... := value`. The base name must
// already be bound. Missing dict keys along the way are created as empty
// dicts; list hops must resolve to existing indices.
func (in *Interpreter) pathAssign(t *PathAssign, env *Env) {
	cur, ok := env.Get(t.Base.Name)
	if !ok {
		fail(NameError, t.Base.P, "undefined name %q", t.Base.Name)
	}
	val := in.eval(t.Value, env)

	for i := 0; i < len(t.Hops)-1; i++ {
		cur = in.pathStep(cur, t.Hops[i], env)
	}
	last := t.Hops[len(t.Hops)-1]

	switch cur.Tag {
	case VTDict:
		k := in.hopKey(cur, last, env)
		cur.Data.(*DictObject).Set(k, val)
	case VTList:
		if last.Key == nil {
			fail(TypeError, last.P, "list has no attribute %q", last.Name)
		}
		lo := cur.Data.(*ListObject)
		i := listIndex(in.eval(last.Key, env), len(lo.Elems), last.P)
		lo.Elems[i] = val
	default:
		fail(TypeError, last.P, "cannot assign into %s", cur.TypeName())
	}
}

// pathStep descends one hop, creating a dict for a missing dict key.
func (in *Interpreter) pathStep(cur Value, hop PathHop, env *Env) Value {
	switch cur.Tag {
	case VTDict:
		d := cur.Data.(*DictObject)
		k := in.hopKey(cur, hop, env)
		if v, ok := d.Get(k); ok {
			return v
		}
		next := NewDict()
		d.Set(k, next)
		return next
	case VTList:
		if hop.Key == nil {
			fail(TypeError, hop.P, "list has no attribute %q", hop.Name)
		}
		lo := cur.Data.(*ListObject)
		i := listIndex(in.eval(hop.Key, env), len(lo.Elems), hop.P)
		return lo.Elems[i]
	}
	fail(TypeError, hop.P, "cannot descend into %s", cur.TypeName())
	return Nil
}

// hopKey resolves a hop into a dict key, for both `.name` and `[expr]`
// forms.
func (in *Interpreter) hopKey(_ Value, hop PathHop, env *Env) DictKey {
	if hop.Key == nil {
		return DictKey{tag: dkStr, s: hop.Name}
	}
	kv := in.eval(hop.Key, env)
	k, err := NewDictKey(kv)
	if err != nil {
		fail(TypeError, hop.P, "%s", err.Error())
	}
	return k
}
