package uijs

import (
	"fmt"
	"math"

	"github.com/dop251/goja"
)

// ObjPtr is an opaque reference to a native object: the foreign address
// carried as an integer. The bridge hashes and compares the integer and
// never dereferences it; the native side owns every pointee. A zero
// ObjPtr is the null pointer.
type ObjPtr uintptr

// Handle class tags. A pointer-returning native call tags its result so
// script code knows what it holds; decoding checks the tag when the
// consuming position declares an expected one. Fonts and other
// non-widget resources are tagged through the "type" field instead of
// "class", matching the shapes the function table emits.
const (
	ClassWidget = "widget"
	ClassEvent  = "event"
	TypeFont    = "font"
)

// maxExactAddr is the largest address exactly representable in the
// script number type (IEEE 754 double). Encoding a larger address is an
// error, never a silent truncation.
const maxExactAddr = 1<<53 - 1

// Field names of the handle wire shape {ptr, class?, type?}.
const (
	handleFieldPtr   = "ptr"
	handleFieldClass = "class"
	handleFieldType  = "type"
)

// EncodeHandle wraps a native pointer as the script handle shape
// {ptr, class}. classTag may be empty for an untagged handle.
func EncodeHandle(rt *goja.Runtime, ptr ObjPtr, classTag string) (goja.Value, error) {
	return encodeTagged(rt, ptr, handleFieldClass, classTag)
}

// EncodeTyped is EncodeHandle for the "type" tag namespace, producing
// {ptr, type}.
func EncodeTyped(rt *goja.Runtime, ptr ObjPtr, typeTag string) (goja.Value, error) {
	return encodeTagged(rt, ptr, handleFieldType, typeTag)
}

func encodeTagged(rt *goja.Runtime, ptr ObjPtr, field, tag string) (goja.Value, error) {
	if uint64(ptr) > maxExactAddr {
		return nil, &HandleError{Reason: fmt.Sprintf("address %#x exceeds the exactly representable number range", uintptr(ptr))}
	}
	obj := rt.NewObject()
	if err := obj.Set(handleFieldPtr, int64(ptr)); err != nil {
		return nil, err
	}
	if tag != "" {
		if err := obj.Set(field, tag); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// DecodeHandle extracts the native pointer from a handle value.
// wantClass is checked against the handle's class tag when both are
// present; a handle carrying no tag is accepted, so untagged handles
// produced elsewhere keep working. Pass "" to accept any class.
func DecodeHandle(v goja.Value, wantClass string) (ObjPtr, error) {
	return decodeTagged(v, handleFieldClass, wantClass)
}

// DecodeTyped is DecodeHandle for the "type" tag namespace.
func DecodeTyped(v goja.Value, wantType string) (ObjPtr, error) {
	return decodeTagged(v, handleFieldType, wantType)
}

// DecodeOptionalHandle is DecodeHandle with null and undefined mapping
// to the null pointer, for nullable native parameters.
func DecodeOptionalHandle(v goja.Value, wantClass string) (ObjPtr, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, nil
	}
	return DecodeHandle(v, wantClass)
}

func decodeTagged(v goja.Value, field, want string) (ObjPtr, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return 0, &HandleError{Reason: "not an object"}
	}
	pv := obj.Get(handleFieldPtr)
	if pv == nil || goja.IsUndefined(pv) || goja.IsNull(pv) {
		return 0, &HandleError{Reason: "missing ptr field"}
	}
	addr, ok := numToAddr(pv)
	if !ok {
		return 0, &HandleError{Reason: "ptr field is not a valid address"}
	}
	if want != "" {
		if tv := obj.Get(field); tv != nil && !goja.IsUndefined(tv) && !goja.IsNull(tv) {
			if tag, ok := tv.Export().(string); ok && tag != want {
				return 0, &HandleError{Reason: fmt.Sprintf("%s %q where %q expected", field, tag, want)}
			}
		}
	}
	return ObjPtr(addr), nil
}

// numToAddr converts a script number to an address. Fractions truncate,
// matching the original cast semantics; negatives and non-finite values
// are rejected.
func numToAddr(v goja.Value) (uintptr, bool) {
	switch n := v.Export().(type) {
	case int64:
		if n < 0 {
			return 0, false
		}
		return uintptr(n), true
	case float64:
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return uintptr(n), true
	default:
		return 0, false
	}
}
