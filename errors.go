package uijs

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Error represents a script error with detailed information.
type Error struct {
	Name    string // Error name (e.g., "TypeError", "RangeError")
	Message string // Error message
	Stack   string // Stack trace, when the engine provides one
}

// Error implements the error interface.
func (err *Error) Error() string {
	if err.Name == "" {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", err.Name, err.Message)
}

// ArgumentError reports an arity or per-position type mismatch at the
// marshaling boundary, before any native call happens. Scripts observe
// it as a TypeError.
type ArgumentError struct {
	Pos  int    // 1-based argument position; 0 for an arity failure
	Want string // expected kind, e.g. "a number"
	Min  int    // arity failures: required argument count
	Got  int    // arity failures: received argument count
}

func (e *ArgumentError) Error() string {
	if e.Pos == 0 {
		return fmt.Sprintf("insufficient arguments: want %d, got %d", e.Min, e.Got)
	}
	return fmt.Sprintf("argument %d must be %s", e.Pos, e.Want)
}

// HandleError reports a handle value that cannot be converted to or from
// a native pointer: wrong shape, missing address, a class tag that
// contradicts the expected one, or an address outside the exactly
// representable script number range. Scripts observe it as a TypeError.
type HandleError struct {
	Reason string
}

func (e *HandleError) Error() string {
	return "invalid handle: " + e.Reason
}

// CapacityError reports a full callback list for one (object, event kind)
// key. The registration that hit the limit is discarded; existing
// callbacks are untouched. Scripts observe it as a RangeError.
type CapacityError struct {
	Obj  ObjPtr
	Kind EventKind
	Cap  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("callback list full for object %#x event kind %d (capacity %d)", uintptr(e.Obj), int32(e.Kind), e.Cap)
}

// throwValue maps a bridge error to the script error class scripts catch:
// TypeError for argument and handle faults, RangeError for a full
// callback list, a wrapped Go error otherwise.
func throwValue(rt *goja.Runtime, err error) goja.Value {
	var argErr *ArgumentError
	var handleErr *HandleError
	var capErr *CapacityError
	switch {
	case errors.As(err, &argErr), errors.As(err, &handleErr):
		return rt.NewTypeError(err.Error())
	case errors.As(err, &capErr):
		if ctor, ok := rt.Get("RangeError").(*goja.Object); ok {
			if obj, cerr := rt.New(ctor, rt.ToValue(err.Error())); cerr == nil {
				return obj
			}
		}
		return rt.NewGoError(err)
	default:
		return rt.NewGoError(err)
	}
}

// throw raises err into the running script. Must only be called from a
// function the engine is invoking.
func throw(rt *goja.Runtime, err error) {
	panic(throwValue(rt, err))
}

// asScriptError converts an uncaught engine exception into *Error,
// or returns nil if err is not an exception.
func asScriptError(err error) *Error {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return nil
	}
	e := &Error{Message: err.Error()}
	val := ex.Value()
	if val == nil {
		return e
	}
	if obj, ok := val.(*goja.Object); ok {
		if v := obj.Get("name"); v != nil && !goja.IsUndefined(v) {
			e.Name = v.String()
		}
		if v := obj.Get("message"); v != nil && !goja.IsUndefined(v) {
			e.Message = v.String()
		}
		if v := obj.Get("stack"); v != nil && !goja.IsUndefined(v) {
			e.Stack = v.String()
		}
	} else {
		e.Message = val.String()
	}
	return e
}
