// dict.go — insertion-ordered dictionary.
//
// pp dicts remember the order keys were first inserted, so iteration,
// keys() and rendering are deterministic. Keys are normalized into a
// comparable DictKey: integers and floats that compare equal collapse to
// the same key (`d[1]` and `d[1.0]` address one entry).
package pypolicy

import (
	"fmt"
	"strconv"
)

type dictKeyTag uint8

const (
	dkStr dictKeyTag = iota
	dkInt
	dkNum
	dkBool
)

// DictKey is the comparable, normalized form of a dict key.
type DictKey struct {
	tag dictKeyTag
	s   string
	i   int64
	f   float64
	b   bool
}

// NewDictKey normalizes v into a DictKey. Only strings, ints, numbers and
// booleans are valid keys; anything else reports an error.
func NewDictKey(v Value) (DictKey, error) {
	switch v.Tag {
	case VTStr:
		return DictKey{tag: dkStr, s: v.Data.(string)}, nil
	case VTInt:
		return DictKey{tag: dkInt, i: v.Data.(int64)}, nil
	case VTNum:
		f := v.Data.(float64)
		// A whole float keys the same entry as the matching int.
		if float64(int64(f)) == f {
			return DictKey{tag: dkInt, i: int64(f)}, nil
		}
		return DictKey{tag: dkNum, f: f}, nil
	case VTBool:
		return DictKey{tag: dkBool, b: v.Data.(bool)}, nil
	}
	return DictKey{}, fmt.Errorf("%s is not usable as a dict key", v.TypeName())
}

// Value converts the key back into a pp value.
func (k DictKey) Value() Value {
	switch k.tag {
	case dkStr:
		return Str(k.s)
	case dkInt:
		return Int(k.i)
	case dkNum:
		return Num(k.f)
	default:
		return Bool(k.b)
	}
}

func (k DictKey) String() string {
	switch k.tag {
	case dkStr:
		return strconv.Quote(k.s)
	case dkInt:
		return strconv.FormatInt(k.i, 10)
	case dkNum:
		return strconv.FormatFloat(k.f, 'g', -1, 64)
	default:
		return strconv.FormatBool(k.b)
	}
}

// DictObject is the backing store for VTDict values. Not safe for
// concurrent use, like every other pp value.
type DictObject struct {
	entries map[DictKey]Value
	keys    []DictKey
}

func NewDictObject() *DictObject {
	return &DictObject{entries: make(map[DictKey]Value)}
}

func (d *DictObject) Len() int { return len(d.keys) }

func (d *DictObject) Get(k DictKey) (Value, bool) {
	v, ok := d.entries[k]
	return v, ok
}

// Set inserts or updates an entry. First insertion fixes the key's position
// in iteration order; updates keep it.
func (d *DictObject) Set(k DictKey, v Value) {
	if _, ok := d.entries[k]; !ok {
		d.keys = append(d.keys, k)
	}
	d.entries[k] = v
}

// Keys returns the keys in insertion order. The slice is a copy, so callers
// may iterate while mutating the dict.
func (d *DictObject) Keys() []DictKey {
	out := make([]DictKey, len(d.keys))
	copy(out, d.keys)
	return out
}
