// interpreter_exec.go — the tree-walking evaluator.
//
// Internally the evaluator signals through panics: rtErr carries a runtime
// error and returnSig carries a `return` value. Both are recovered at the
// public API boundary (runTop, Apply) and at function-call frames, so user
// code only ever sees (Value, error).
package pypolicy

import "fmt"

// returnSig unwinds a `return` statement to the enclosing call frame.
type returnSig struct{ v Value }

// runTop executes a parsed program in env. The result is the value of a
// top-level `return` if one executes, otherwise nil. With lastExpr set (the
// REPL path) execution falling off the end yields the value of the last
// expression statement instead.
func (in *Interpreter) runTop(prog *Block, env *Env, lastExpr bool) (res Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch s := r.(type) {
			case returnSig:
				res, err = s.v, nil
			case rtErr:
				res, err = Nil, s.err()
			default:
				panic(r)
			}
		}
	}()
	last := Nil
	for _, st := range prog.Stmts {
		in.traceStmt(st)
		v := in.eval(st, env)
		if lastExpr && isExprStmt(st) {
			last = v
		}
	}
	return last, nil
}

// isExprStmt reports whether a statement produces a value for the top-level
// "last expression" result.
func isExprStmt(n Node) bool {
	switch n.(type) {
	case *FuncDef, *Assign, *PathAssign, *If, *ForIn, *Return:
		return false
	}
	return true
}

func (in *Interpreter) traceStmt(n Node) {
	if in.trace != nil {
		in.trace(n.Position().Line, n)
	}
}

func (in *Interpreter) evalBlock(b *Block, env *Env) {
	for _, st := range b.Stmts {
		in.traceStmt(st)
		in.eval(st, env)
	}
}

func (in *Interpreter) eval(n Node, env *Env) Value {
	switch t := n.(type) {
	case *NilLit:
		return Nil
	case *BoolLit:
		return Bool(t.V)
	case *IntLit:
		return Int(t.V)
	case *NumLit:
		return Num(t.V)
	case *StrLit:
		return Str(t.V)

	case *Ident:
		v, ok := env.Get(t.Name)
		if !ok {
			fail(NameError, t.P, "undefined name %q", t.Name)
		}
		return v

	case *Unary:
		return in.evalUnary(t, env)
	case *Binary:
		l := in.eval(t.L, env)
		r := in.eval(t.R, env)
		return binaryOp(t.Op, l, r, t.P)
	case *Logical:
		// and/or yield the last operand they evaluate, not a coerced bool.
		l := in.eval(t.L, env)
		if t.Op == "and" {
			if !truthy(l) {
				return l
			}
			return in.eval(t.R, env)
		}
		if truthy(l) {
			return l
		}
		return in.eval(t.R, env)

	case *ListLit:
		elems := make([]Value, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = in.eval(e, env)
		}
		return List(elems...)

	case *DictLit:
		d := NewDictObject()
		for i, kn := range t.Keys {
			kv := in.eval(kn, env)
			k, err := NewDictKey(kv)
			if err != nil {
				fail(TypeError, kn.Position(), "%s", err.Error())
			}
			d.Set(k, in.eval(t.Vals[i], env))
		}
		return Value{Tag: VTDict, Data: d}

	case *Index:
		x := in.eval(t.X, env)
		key := in.eval(t.Key, env)
		return indexGet(x, key, t.P)

	case *Attr:
		x := in.eval(t.X, env)
		return in.attrGet(x, t.Name, t.P)

	case *Call:
		fv := in.eval(t.Fn, env)
		if fv.Tag != VTFun {
			fail(TypeError, t.P, "%s is not callable", fv.TypeName())
		}
		args := in.evalArgs(t.Args, env)
		return in.callFunction(fv.Data.(*Fun), args, t.P)

	case *MethodCall:
		recv := in.eval(t.Recv, env)
		args := in.evalArgs(t.Args, env)
		return in.methodCall(recv, t.Name, args, t.P)

	case *Lambda:
		return FunVal(&Fun{Params: t.Params, Body: t.Body, Env: env})

	case *FuncDef:
		env.Define(t.Name, FunVal(&Fun{
			Name:   t.Name,
			Params: t.Params,
			Body:   t.Body,
			Env:    env,
		}))
		return Nil

	case *Assign:
		env.Define(t.Name, in.eval(t.Value, env))
		return Nil

	case *PathAssign:
		in.pathAssign(t, env)
		return Nil

	case *If:
		for _, cl := range t.Clauses {
			if truthy(in.eval(cl.Cond, env)) {
				in.evalBlock(cl.Body, env)
				return Nil
			}
		}
		if t.Else != nil {
			in.evalBlock(t.Else, env)
		}
		return Nil

	case *ForIn:
		in.evalForIn(t, env)
		return Nil

	case *Return:
		v := Nil
		if t.Value != nil {
			v = in.eval(t.Value, env)
		}
		panic(returnSig{v})

	case *Block:
		in.evalBlock(t, env)
		return Nil
	}
	fail(TypeError, n.Position(), "cannot evaluate node %T", n)
	return Nil
}

func (in *Interpreter) evalArgs(nodes []Node, env *Env) []Value {
	args := make([]Value, len(nodes))
	for i, a := range nodes {
		args[i] = in.eval(a, env)
	}
	return args
}

func (in *Interpreter) evalUnary(t *Unary, env *Env) Value {
	x := in.eval(t.X, env)
	switch t.Op {
	case "-":
		switch x.Tag {
		case VTInt:
			return Int(-x.Data.(int64))
		case VTNum:
			return Num(-x.Data.(float64))
		}
		fail(TypeError, t.P, "unary '-' needs a number, got %s", x.TypeName())
	case "not":
		return Bool(!truthy(x))
	}
	fail(TypeError, t.P, "unknown unary operator %q", t.Op)
	return Nil
}

// evalForIn iterates lists by index, dicts over a key snapshot (mutating
// the dict mid-loop does not disturb the walk) and host objects through
// their iterator. Each iteration gets a fresh frame so closures made in the
// body capture that iteration's variable.
func (in *Interpreter) evalForIn(t *ForIn, env *Env) {
	iter := in.eval(t.Iter, env)
	body := func(v Value) {
		frame := NewEnv(env)
		frame.Define(t.Var, v)
		in.evalBlock(t.Body, frame)
	}
	switch iter.Tag {
	case VTList:
		lo := iter.Data.(*ListObject)
		for i := 0; i < len(lo.Elems); i++ {
			body(lo.Elems[i])
		}
	case VTDict:
		do := iter.Data.(*DictObject)
		for _, k := range do.Keys() {
			body(k.Value())
		}
	case VTStr:
		for _, r := range iter.Data.(string) {
			body(Str(string(r)))
		}
	case VTHost:
		it, err := iter.Data.(HostObject).Iterate()
		if err != nil {
			fail(TypeError, t.P, "%s is not iterable: %s", iter.Data.(HostObject).Kind(), err.Error())
		}
		for {
			v, ok := it.Next()
			if !ok {
				break
			}
			body(v)
		}
	default:
		fail(TypeError, t.P, "%s is not iterable", iter.TypeName())
	}
}

// callFunction invokes f with args, prepending the bound receiver for
// closures. Natives receive the receiver separately.
func (in *Interpreter) callFunction(f *Fun, args []Value, at Pos) Value {
	in.callDepth++
	defer func() { in.callDepth-- }()
	if in.callDepth > in.MaxCallDepth {
		fail(TypeError, at, "maximum call depth (%d) exceeded", in.MaxCallDepth)
	}

	if f.Native != nil {
		if f.Variadic {
			if len(args) < f.Arity {
				fail(ArityError, at, "%s expects at least %d argument(s), got %d", callName(f), f.Arity, len(args))
			}
		} else if len(args) != f.Arity {
			fail(ArityError, at, "%s expects %d argument(s), got %d", callName(f), f.Arity, len(args))
		}
		v, err := f.Native(in, f.Recv, args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				if re.Line == 0 {
					re.Line, re.Col = at.Line, at.Col
				}
				panic(rtErr{re})
			}
			fail(TypeError, at, "%s: %s", callName(f), err.Error())
		}
		return v
	}

	all := args
	if f.Recv != nil {
		all = append([]Value{*f.Recv}, args...)
	}
	if len(all) != len(f.Params) {
		want, got := len(f.Params), len(all)
		if f.Recv != nil {
			// The receiver parameter is invisible to the caller.
			want--
			got--
		}
		fail(ArityError, at, "%s expects %d argument(s), got %d", callName(f), want, got)
	}
	frame := NewEnv(f.Env)
	for i, p := range f.Params {
		frame.Define(p, all[i])
	}

	res := Nil
	func() {
		defer func() {
			if r := recover(); r != nil {
				if s, ok := r.(returnSig); ok {
					res = s.v
					return
				}
				panic(r)
			}
		}()
		in.evalBlock(f.Body, frame)
	}()
	return res
}

func callName(f *Fun) string {
	if f.Name != "" {
		return fmt.Sprintf("%s()", f.Name)
	}
	return "function"
}
