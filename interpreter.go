// interpreter.go — value model, environments and the public engine API.
//
// A Value is a small tagged struct; the heavy payloads (lists, dicts,
// functions, host objects) sit behind pointers in Data, so Values copy
// cheaply and mutation through one reference is visible through all.
//
// Environments form a parent chain: Core (built-ins, installed once) is the
// parent of Global (host bindings and persistent REPL state), and every
// function call or loop iteration pushes a fresh child frame.
//
// The evaluation machinery itself lives in interpreter_exec.go and
// interpreter_ops.go.
package pypolicy

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ValueTag discriminates the dynamic type of a Value.
type ValueTag uint8

const (
	VTNil ValueTag = iota
	VTBool
	VTInt
	VTNum
	VTStr
	VTList
	VTDict
	VTFun
	VTHost
)

func (t ValueTag) String() string {
	switch t {
	case VTNil:
		return "nil"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "num"
	case VTStr:
		return "str"
	case VTList:
		return "list"
	case VTDict:
		return "dict"
	case VTFun:
		return "function"
	case VTHost:
		return "host"
	}
	return "unknown"
}

// Value is the runtime representation of every pp value.
//
// Data holds, per tag: nil, bool, int64, float64, string, *ListObject,
// *DictObject, *Fun, HostObject.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Nil is the single nil value.
var Nil = Value{Tag: VTNil}

func Bool(b bool) Value          { return Value{Tag: VTBool, Data: b} }
func Int(i int64) Value          { return Value{Tag: VTInt, Data: i} }
func Num(f float64) Value        { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value         { return Value{Tag: VTStr, Data: s} }
func List(elems ...Value) Value  { return Value{Tag: VTList, Data: &ListObject{Elems: elems}} }
func NewDict() Value             { return Value{Tag: VTDict, Data: NewDictObject()} }
func FunVal(f *Fun) Value        { return Value{Tag: VTFun, Data: f} }
func HostVal(h HostObject) Value { return Value{Tag: VTHost, Data: h} }

// TypeName returns the user-facing type name, as printed in error messages.
func (v Value) TypeName() string { return v.Tag.String() }

const maxRenderDepth = 8

// String renders the value the way the REPL and print() show it. Strings
// nested inside collections are quoted; a bare string is not.
func (v Value) String() string {
	if v.Tag == VTStr {
		return v.Data.(string)
	}
	var b strings.Builder
	renderValue(&b, v, 0)
	return b.String()
}

func renderValue(b *strings.Builder, v Value, depth int) {
	if depth > maxRenderDepth {
		b.WriteString("...")
		return
	}
	switch v.Tag {
	case VTNil:
		b.WriteString("nil")
	case VTBool:
		b.WriteString(strconv.FormatBool(v.Data.(bool)))
	case VTInt:
		b.WriteString(strconv.FormatInt(v.Data.(int64), 10))
	case VTNum:
		f := v.Data.(float64)
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// Keep whole floats distinguishable from ints.
		if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
			s += ".0"
		}
		b.WriteString(s)
	case VTStr:
		b.WriteString(strconv.Quote(v.Data.(string)))
	case VTList:
		lo := v.Data.(*ListObject)
		b.WriteByte('[')
		for i, e := range lo.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			renderValue(b, e, depth+1)
		}
		b.WriteByte(']')
	case VTDict:
		do := v.Data.(*DictObject)
		b.WriteByte('{')
		for i, k := range do.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
			b.WriteString(": ")
			e, _ := do.Get(k)
			renderValue(b, e, depth+1)
		}
		b.WriteByte('}')
	case VTFun:
		f := v.Data.(*Fun)
		if f.Name != "" {
			fmt.Fprintf(b, "<function %s>", f.Name)
		} else {
			b.WriteString("<function>")
		}
	case VTHost:
		fmt.Fprintf(b, "<host %s>", v.Data.(HostObject).Kind())
	}
}

// ListObject is the backing store for VTList values.
type ListObject struct {
	Elems []Value
}

// NativeImpl is the signature of a Go-implemented function or method. recv
// is nil for free functions. Returned errors surface as runtime errors at
// the call site.
type NativeImpl func(in *Interpreter, recv *Value, args []Value) (Value, error)

// Fun is a callable: either a pp closure (Body and Env set) or a native
// (Native set). Recv, when non-nil, is the bound receiver of a method
// extracted through attribute access.
type Fun struct {
	Name   string
	Params []string
	Body   *Block
	Env    *Env

	Native   NativeImpl
	Arity    int
	Variadic bool

	Recv *Value
}

// Env is a lexical frame. Lookups walk the parent chain; Define always
// binds in the current frame.
type Env struct {
	parent *Env
	table  map[string]Value
}

// NewEnv creates a frame with the given parent (which may be nil).
func NewEnv(parent *Env) *Env { return &Env{parent: parent, table: make(map[string]Value)} }

// Define binds name to v in this frame, shadowing any outer binding.
func (e *Env) Define(name string, v Value) { e.table[name] = v }

// Names lists the bindings of this frame only, sorted.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.table))
	for k := range e.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get resolves name through the frame chain.
func (e *Env) Get(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.table[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// TraceHook observes statement execution when tracing is enabled. line is
// 1-based.
type TraceHook func(line int, node Node)

// DefaultMaxCallDepth bounds pp-level recursion before the evaluator raises
// a type error, protecting the Go stack.
const DefaultMaxCallDepth = 2000

// Interpreter owns the environments, the per-type method tables and the
// registered natives. Not safe for concurrent use; run one interpreter per
// goroutine or serialize access.
type Interpreter struct {
	Core   *Env // built-ins; parent of Global
	Global *Env // host bindings and persistent state

	// Stdout receives print() output. Defaults to os.Stdout.
	Stdout io.Writer

	methods map[ValueTag]map[string]Value
	trace   TraceHook

	MaxCallDepth int
	callDepth    int
}

// NewInterpreter builds an interpreter with the standard built-ins and the
// prelude methods installed.
func NewInterpreter() *Interpreter {
	in := &Interpreter{
		Stdout:       os.Stdout,
		methods:      make(map[ValueTag]map[string]Value),
		MaxCallDepth: DefaultMaxCallDepth,
	}
	in.Core = NewEnv(nil)
	in.Global = NewEnv(in.Core)
	registerBuiltins(in)
	if err := loadPrelude(in); err != nil {
		panic(fmt.Sprintf("prelude failed to load: %v", err))
	}
	return in
}

// DefineGlobal binds name in the Global environment, visible to every
// subsequent evaluation.
func (in *Interpreter) DefineGlobal(name string, v Value) { in.Global.Define(name, v) }

// RegisterNative installs a Go function as a built-in in Core. arity is the
// required argument count; variadic natives accept arity or more.
func (in *Interpreter) RegisterNative(name string, arity int, variadic bool, impl NativeImpl) {
	in.Core.Define(name, FunVal(&Fun{
		Name:     name,
		Native:   impl,
		Arity:    arity,
		Variadic: variadic,
	}))
}

// RegisterMethod attaches fn as a method on all values of the given tag.
// fn must be a VTFun value; its first parameter (or bound receiver slot for
// natives) receives the value the method was selected from.
func (in *Interpreter) RegisterMethod(tag ValueTag, name string, fn Value) {
	tbl := in.methods[tag]
	if tbl == nil {
		tbl = make(map[string]Value)
		in.methods[tag] = tbl
	}
	tbl[name] = fn
}

// lookupMethod returns the method table entry for tag/name.
func (in *Interpreter) lookupMethod(tag ValueTag, name string) (Value, bool) {
	tbl := in.methods[tag]
	if tbl == nil {
		return Value{}, false
	}
	v, ok := tbl[name]
	return v, ok
}

// SetTraceHook installs (or, with nil, removes) a statement trace hook.
func (in *Interpreter) SetTraceHook(h TraceHook) { in.trace = h }

// EvalSource parses and evaluates src in a fresh frame under Global.
// Bindings made by src do not persist. The result is the value of a
// top-level `return`, or nil when execution falls off the end.
func (in *Interpreter) EvalSource(src string) (Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return Nil, err
	}
	return in.runTop(prog, NewEnv(in.Global), false)
}

// EvalPersistentSource evaluates directly in Global, so definitions persist
// across calls. This is the REPL entry point; without a `return` the result
// is the value of the last expression statement, so typing an expression
// echoes it.
func (in *Interpreter) EvalPersistentSource(src string) (Value, error) {
	prog, err := ParseInteractive(src)
	if err != nil {
		return Nil, err
	}
	return in.runTop(prog, in.Global, true)
}

// EvalNode evaluates an already-parsed program in a fresh frame under
// Global.
func (in *Interpreter) EvalNode(prog *Block) (Value, error) {
	return in.runTop(prog, NewEnv(in.Global), false)
}

// Apply calls a pp function value from Go with the given arguments.
func (in *Interpreter) Apply(fn Value, args []Value) (res Value, err error) {
	if fn.Tag != VTFun {
		return Nil, &RuntimeError{Kind: TypeError, Line: 1, Col: 0,
			Msg: fmt.Sprintf("%s is not callable", fn.TypeName())}
	}
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(rtErr); ok {
				err = re.err()
				return
			}
			panic(r)
		}
	}()
	return in.callFunction(fn.Data.(*Fun), args, Pos{Line: 1, Col: 0}), nil
}
