// runtime.go — built-in registration, the pp prelude, deep copy and the
// JSON bridge used to pass host data (token payloads) into programs.
package pypolicy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version of the engine, reported by the CLI.
const Version = "0.3.0"

func registerBuiltins(in *Interpreter) {
	registerCoreBuiltins(in)
	registerListBuiltins(in)
	registerStringBuiltins(in)
	registerDictBuiltins(in)
}

// prelude defines the derived list methods in pp itself. They close over a
// scratch environment whose parent is Core, so the native methods they use
// (append) resolve normally.
const prelude = `
def __list_map(self, f)
    out = []
    for x in self
        out.append(f(x))
    end
    return out
end

def __list_each(self, f)
    for x in self
        f(x)
    end
    return nil
end

def __list_filter(self, f)
    out = []
    for x in self
        if f(x)
            out.append(x)
        end
    end
    return out
end
`

func loadPrelude(in *Interpreter) error {
	prog, err := Parse(prelude)
	if err != nil {
		return err
	}
	scratch := NewEnv(in.Core)
	if _, err := in.runTop(prog, scratch, false); err != nil {
		return err
	}
	for name, method := range map[string]string{
		"__list_map":    "map",
		"__list_each":   "each",
		"__list_filter": "filter",
	} {
		fn, ok := scratch.Get(name)
		if !ok {
			return fmt.Errorf("prelude did not define %s", name)
		}
		// Rebadge with the method name so errors and rendering never show
		// the prelude-internal one.
		f := *fn.Data.(*Fun)
		f.Name = method
		in.RegisterMethod(VTList, method, FunVal(&f))
	}
	return nil
}

// DeepCopy returns a structurally independent copy of v: new lists and
// dicts all the way down. Functions and host objects are shared, since they
// are immutable from the script's point of view. Cyclic (or absurdly deep)
// values are rejected with an error.
func DeepCopy(v Value) (Value, error) {
	return deepCopyDepth(v, 0)
}

func deepCopyDepth(v Value, depth int) (Value, error) {
	if depth > maxValueDepth {
		return Nil, fmt.Errorf("value exceeds maximum depth (%d), copy aborted", maxValueDepth)
	}
	switch v.Tag {
	case VTList:
		src := v.Data.(*ListObject).Elems
		elems := make([]Value, len(src))
		for i, e := range src {
			c, err := deepCopyDepth(e, depth+1)
			if err != nil {
				return Nil, err
			}
			elems[i] = c
		}
		return List(elems...), nil
	case VTDict:
		src := v.Data.(*DictObject)
		d := NewDictObject()
		for _, k := range src.Keys() {
			e, _ := src.Get(k)
			c, err := deepCopyDepth(e, depth+1)
			if err != nil {
				return Nil, err
			}
			d.Set(k, c)
		}
		return Value{Tag: VTDict, Data: d}, nil
	}
	return v, nil
}

// ValueFromJSON parses a JSON document into a pp value. Object key order is
// preserved, and integral numbers come back as ints.
func ValueFromJSON(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Nil, err
	}
	if dec.More() {
		return Nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			d := NewDictObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Nil, err
				}
				key := keyTok.(string)
				v, err := decodeJSONValue(dec)
				if err != nil {
					return Nil, err
				}
				d.Set(DictKey{tag: dkStr, s: key}, v)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Nil, err
			}
			return Value{Tag: VTDict, Data: d}, nil
		case '[':
			var elems []Value
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return Nil, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Nil, err
			}
			return List(elems...), nil
		}
		return Nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Nil, err
		}
		return Num(f), nil
	case nil:
		return Nil, nil
	}
	return Nil, fmt.Errorf("unexpected JSON token %v", tok)
}

// ValueToJSON serializes v as JSON, keeping dict insertion order.
// Functions, host objects and cyclic values are not serializable.
func ValueToJSON(v Value) (string, error) {
	var b strings.Builder
	if err := encodeJSONValue(&b, v, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeJSONValue(b *strings.Builder, v Value, depth int) error {
	if depth > maxValueDepth {
		return fmt.Errorf("value exceeds maximum depth (%d), not JSON-serializable", maxValueDepth)
	}
	switch v.Tag {
	case VTNil:
		b.WriteString("null")
	case VTBool, VTInt, VTNum, VTStr:
		raw, err := json.Marshal(v.Data)
		if err != nil {
			return err
		}
		b.Write(raw)
	case VTList:
		b.WriteByte('[')
		for i, e := range v.Data.(*ListObject).Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeJSONValue(b, e, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case VTDict:
		d := v.Data.(*DictObject)
		b.WriteByte('{')
		for i, k := range d.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			raw, err := json.Marshal(k.Value().String())
			if err != nil {
				return err
			}
			b.Write(raw)
			b.WriteByte(':')
			e, _ := d.Get(k)
			if err := encodeJSONValue(b, e, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("%s is not JSON-serializable", v.TypeName())
	}
	return nil
}
