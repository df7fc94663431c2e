package uijs

import "github.com/dop251/goja"

// ArgKind declares what one position of a native entry point accepts.
//
// Conversion rules per kind:
//   - ArgInt32, ArgUint32 -> script number, truncated to the native width
//   - ArgFloat -> script number as float64
//   - ArgBool -> a boolean, or any number with non-zero meaning true
//     (deliberate laxness, preserved from the original call convention)
//   - ArgString -> script string, copied into a transient CString
//   - ArgWidget -> handle checked against class "widget"
//   - ArgOptWidget -> as ArgWidget; null/undefined is the null pointer
//   - ArgFont -> handle checked against type "font"
//   - ArgFunc -> a callable
//   - ArgOptPtr -> optional untyped handle (hook context); absent, null
//     and undefined all map to the null pointer
type ArgKind uint8

const (
	ArgInt32 ArgKind = iota
	ArgUint32
	ArgFloat
	ArgBool
	ArgString
	ArgWidget
	ArgOptWidget
	ArgFont
	ArgFunc
	ArgOptPtr
)

// want is the phrase error messages use for the kind.
func (k ArgKind) want() string {
	switch k {
	case ArgInt32, ArgUint32, ArgFloat:
		return "a number"
	case ArgBool:
		return "a boolean or a number"
	case ArgString:
		return "a string"
	case ArgWidget, ArgOptWidget:
		return "an object handle"
	case ArgFont:
		return "a font handle"
	case ArgFunc:
		return "a function"
	case ArgOptPtr:
		return "a handle"
	}
	return "a value"
}

// CString is a transient NUL-terminated buffer holding the UTF-8 bytes
// of a script string, sized exactly encoded length + 1. It lives for one
// native call; the marshaler releases it on every exit path, so a
// toolkit copies what it keeps.
type CString []byte

// NewCString builds the exact-length NUL-terminated buffer for s.
func NewCString(s string) CString {
	buf := make(CString, len(s)+1)
	copy(buf, s)
	return buf
}

// String returns the text without the terminator.
func (c CString) String() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[:len(c)-1])
}

// arg is one unpacked argument of a native call.
type arg struct {
	kind ArgKind
	num  int64         // ArgInt32, ArgUint32 (zero-extended), ArgBool (0/1)
	f    float64       // ArgFloat
	str  CString       // ArgString
	ptr  ObjPtr        // handle kinds
	fn   goja.Callable // ArgFunc
	val  goja.Value    // the raw script value
	set  bool          // position was supplied and non-null
}

// unpackArgs validates a call against its signature and converts every
// position. Arity is checked first; the first per-position failure
// aborts the whole call. Nothing native has happened by the time an
// error returns.
func unpackArgs(call goja.FunctionCall, kinds []ArgKind, required int) ([]arg, error) {
	if len(call.Arguments) < required {
		return nil, &ArgumentError{Min: required, Got: len(call.Arguments)}
	}
	args := make([]arg, len(kinds))
	for i, kind := range kinds {
		a, err := unpackOne(call.Argument(i), kind, i < len(call.Arguments))
		if err != nil {
			if argErr, ok := err.(*ArgumentError); ok && argErr.Pos == 0 {
				argErr.Pos = i + 1
			}
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

func unpackOne(v goja.Value, kind ArgKind, supplied bool) (arg, error) {
	a := arg{kind: kind, val: v, set: supplied}
	switch kind {
	case ArgInt32:
		n, ok := scriptNum(v)
		if !ok {
			return a, &ArgumentError{Want: kind.want()}
		}
		a.num = int64(int32(n))
	case ArgUint32:
		n, ok := scriptNum(v)
		if !ok {
			return a, &ArgumentError{Want: kind.want()}
		}
		a.num = int64(uint32(n))
	case ArgFloat:
		f, ok := scriptFloat(v)
		if !ok {
			return a, &ArgumentError{Want: kind.want()}
		}
		a.f = f
	case ArgBool:
		if b, ok := v.Export().(bool); ok {
			if b {
				a.num = 1
			}
		} else if f, ok := scriptFloat(v); ok {
			if f != 0 {
				a.num = 1
			}
		} else {
			return a, &ArgumentError{Want: kind.want()}
		}
	case ArgString:
		s, ok := v.Export().(string)
		if !ok {
			return a, &ArgumentError{Want: kind.want()}
		}
		a.str = NewCString(s)
	case ArgWidget:
		return decodeHandleArg(a, v, ClassWidget)
	case ArgOptWidget:
		if absent(v) {
			a.set = false
			return a, nil
		}
		return decodeHandleArg(a, v, ClassWidget)
	case ArgFont:
		if _, isObj := v.(*goja.Object); !isObj {
			return a, &ArgumentError{Want: kind.want()}
		}
		p, err := DecodeTyped(v, TypeFont)
		if err != nil {
			return a, err
		}
		a.ptr = p
	case ArgFunc:
		fn, ok := goja.AssertFunction(v)
		if !ok {
			return a, &ArgumentError{Want: kind.want()}
		}
		a.fn = fn
	case ArgOptPtr:
		if !supplied || absent(v) {
			a.set = false
			return a, nil
		}
		return decodeHandleArg(a, v, "")
	}
	return a, nil
}

// decodeHandleArg separates the two failure classes at a handle
// position: a value that is not even object-shaped is an ArgumentError,
// while an object that fails to decode is a HandleError.
func decodeHandleArg(a arg, v goja.Value, wantClass string) (arg, error) {
	if _, isObj := v.(*goja.Object); !isObj {
		return a, &ArgumentError{Want: a.kind.want()}
	}
	p, err := DecodeHandle(v, wantClass)
	if err != nil {
		return a, err
	}
	a.ptr = p
	a.set = true
	return a, nil
}

func absent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// scriptNum reports v as an integer when v is a script number. Fractions
// truncate, as the original cast did.
func scriptNum(v goja.Value) (int64, bool) {
	switch n := v.Export().(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func scriptFloat(v goja.Value) (float64, bool) {
	switch n := v.Export().(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// releaseArgs drops every transient string buffer. The native call
// wrapper defers this, so release happens on every exit path including
// a thrown error.
func releaseArgs(args []arg) {
	for i := range args {
		args[i].str = nil
	}
}
