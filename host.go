// host.go — the bridge between pp programs and Go host objects.
//
// A Go object enters the language as a VTHost value implementing HostObject.
// Scripts can iterate it with `for`, test membership with `in`, and call
// methods on it; the evaluator forwards method calls to Invoke and wraps
// failures as host method errors.
package pypolicy

import "fmt"

// HostObject is implemented by Go values exposed to scripts.
type HostObject interface {
	// Kind names the object in rendering and error messages ("range",
	// "cursor", ...).
	Kind() string

	// Iterate returns an iterator over the object's elements, or an error
	// if the object is not iterable.
	Iterate() (HostIterator, error)

	// Invoke calls the named method. Unknown methods and argument problems
	// are reported through the error.
	Invoke(name string, args []Value) (Value, error)
}

// HostIterator yields successive values; ok is false when exhausted.
type HostIterator interface {
	Next() (v Value, ok bool)
}

// rangeObject is the host object behind the range() builtin. It doubles as
// the in-tree exercise of the bridge: iteration, membership and len() all
// route through HostObject.
type rangeObject struct {
	n int64
}

func (r *rangeObject) Kind() string { return "range" }

func (r *rangeObject) Iterate() (HostIterator, error) {
	return &rangeIterator{n: r.n}, nil
}

func (r *rangeObject) Invoke(name string, args []Value) (Value, error) {
	switch name {
	case "len":
		if len(args) != 0 {
			return Nil, fmt.Errorf("len takes no arguments, got %d", len(args))
		}
		return Int(r.n), nil
	}
	return Nil, fmt.Errorf("unknown method %q", name)
}

type rangeIterator struct {
	n, i int64
}

func (it *rangeIterator) Next() (Value, bool) {
	if it.i >= it.n {
		return Nil, false
	}
	v := Int(it.i)
	it.i++
	return v, true
}
