package uijs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// FuncDef declares one native entry point: its script name, its static
// parameter signature, and the implementation that runs after the
// marshaler has validated and converted every argument.
type FuncDef struct {
	Name     string
	Args     []ArgKind // per-position kinds
	Required int       // arity floor; positions beyond it are optional
	Variadic bool      // bypass the marshaler, hand the raw call to Fn
	Fn       func(c *Call) goja.Value
}

// Call is the per-invocation view an implementation sees: typed access
// to the unpacked arguments plus the session collaborators.
type Call struct {
	s    *Session
	def  *FuncDef
	args []arg
	raw  goja.FunctionCall
}

func (c *Call) Toolkit() Toolkit       { return c.s.tk }
func (c *Call) Runtime() *goja.Runtime { return c.s.rt }
func (c *Call) Registry() *Registry    { return c.s.reg }

// Int32 returns position i (0-based) as int32.
func (c *Call) Int32(i int) int32 { return int32(c.args[i].num) }

func (c *Call) Uint32(i int) uint32 { return uint32(c.args[i].num) }
func (c *Call) Float(i int) float64 { return c.args[i].f }
func (c *Call) Bool(i int) bool     { return c.args[i].num != 0 }

// CStr returns the transient buffer of a string position, valid only
// for the duration of this call.
func (c *Call) CStr(i int) CString { return c.args[i].str }

func (c *Call) Ptr(i int) ObjPtr { return c.args[i].ptr }

// Func returns the retained callback at position i.
func (c *Call) Func(i int) Callback {
	return Callback{Fn: c.args[i].fn, Val: c.args[i].val}
}

// Has reports whether optional position i was supplied and non-null.
func (c *Call) Has(i int) bool { return c.args[i].set }

// RawArgs is the unconverted argument list (variadic entries only).
func (c *Call) RawArgs() []goja.Value { return c.raw.Arguments }

// Throw aborts the call with err surfaced as the matching script error
// class.
func (c *Call) Throw(err error) {
	throw(c.s.rt, err)
}

// Widget wraps ptr as a widget handle; the null pointer becomes script
// null.
func (c *Call) Widget(ptr ObjPtr) goja.Value {
	if ptr == 0 {
		return goja.Null()
	}
	v, err := EncodeHandle(c.s.rt, ptr, ClassWidget)
	if err != nil {
		c.Throw(err)
	}
	return v
}

// Font wraps ptr as a font-typed handle; the null pointer becomes
// script null.
func (c *Call) Font(ptr ObjPtr) goja.Value {
	if ptr == 0 {
		return goja.Null()
	}
	v, err := EncodeTyped(c.s.rt, ptr, TypeFont)
	if err != nil {
		c.Throw(err)
	}
	return v
}

// Builder assembles the native function table installed into the script
// global namespace.
type Builder struct {
	defs []FuncDef
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Define appends one entry point.
func (b *Builder) Define(def FuncDef) *Builder {
	b.defs = append(b.defs, def)
	return b
}

// validate checks the table before install.
func (b *Builder) validate() error {
	seen := make(map[string]bool, len(b.defs))
	for _, def := range b.defs {
		if def.Name == "" {
			return errors.New("entry point name cannot be empty")
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate entry point name: %s", def.Name)
		}
		seen[def.Name] = true
		if def.Fn == nil {
			return fmt.Errorf("%s: missing implementation", def.Name)
		}
		if def.Required < 0 || def.Required > len(def.Args) {
			return fmt.Errorf("%s: required count %d out of range", def.Name, def.Required)
		}
	}
	return nil
}

// Install registers every entry point as a global function on s.
func (b *Builder) Install(s *Session) error {
	if err := b.validate(); err != nil {
		return fmt.Errorf("function table validation failed: %w", err)
	}
	for i := range b.defs {
		def := &b.defs[i]
		if err := s.rt.Set(def.Name, wrapDef(s, def)); err != nil {
			return err
		}
	}
	return nil
}

// wrapDef builds the engine-facing function: arity and type validation
// first, transient buffers released on every exit path, bridge errors
// mapped to script exceptions.
func wrapDef(s *Session, def *FuncDef) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		c := &Call{s: s, def: def, raw: call}
		if !def.Variadic {
			args, err := unpackArgs(call, def.Args, def.Required)
			if err != nil {
				throw(s.rt, err)
			}
			c.args = args
			defer releaseArgs(args)
		}
		return def.Fn(c)
	}
}

// DefaultTable returns the standard entry points every session
// installs: the handler registry surface, the representative object
// operations, and the print/delay conveniences.
func DefaultTable() *Builder {
	b := NewBuilder()

	b.Define(FuncDef{
		Name:     "registerHandler",
		Args:     []ArgKind{ArgWidget, ArgInt32, ArgFunc, ArgOptPtr},
		Required: 3,
		Fn: func(c *Call) goja.Value {
			err := c.Registry().Add(c.Ptr(0), EventKind(c.Int32(1)), c.Func(2), c.Ptr(3))
			if err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "unregisterHandler",
		Args:     []ArgKind{ArgWidget, ArgInt32},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			c.Registry().Remove(c.Ptr(0), EventKind(c.Int32(1)))
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name: "activeScreen",
		Fn: func(c *Call) goja.Value {
			return c.Widget(c.Toolkit().ActiveScreen())
		},
	})

	b.Define(FuncDef{
		Name:     "createObject",
		Args:     []ArgKind{ArgOptWidget},
		Required: 0,
		Fn: func(c *Call) goja.Value {
			ptr, err := c.Toolkit().CreateObject(c.Ptr(0))
			if err != nil {
				c.Throw(err)
			}
			return c.Widget(ptr)
		},
	})

	b.Define(FuncDef{
		Name:     "deleteObject",
		Args:     []ArgKind{ArgWidget},
		Required: 1,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().DeleteObject(c.Ptr(0)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "setText",
		Args:     []ArgKind{ArgWidget, ArgString},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetText(c.Ptr(0), c.CStr(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "getText",
		Args:     []ArgKind{ArgWidget},
		Required: 1,
		Fn: func(c *Call) goja.Value {
			s, ok, err := c.Toolkit().Text(c.Ptr(0))
			if err != nil {
				c.Throw(err)
			}
			if !ok {
				// A null native string reads as "": callers cannot tell
				// empty from absent.
				return c.Runtime().ToValue("")
			}
			return c.Runtime().ToValue(s)
		},
	})

	b.Define(FuncDef{
		Name:     "setPos",
		Args:     []ArgKind{ArgWidget, ArgInt32, ArgInt32},
		Required: 3,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetPos(c.Ptr(0), c.Int32(1), c.Int32(2)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "setSize",
		Args:     []ArgKind{ArgWidget, ArgInt32, ArgInt32},
		Required: 3,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetSize(c.Ptr(0), c.Int32(1), c.Int32(2)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "setValue",
		Args:     []ArgKind{ArgWidget, ArgInt32},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetValue(c.Ptr(0), c.Int32(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "getValue",
		Args:     []ArgKind{ArgWidget},
		Required: 1,
		Fn: func(c *Call) goja.Value {
			v, err := c.Toolkit().Value(c.Ptr(0))
			if err != nil {
				c.Throw(err)
			}
			return c.Runtime().ToValue(v)
		},
	})

	b.Define(FuncDef{
		Name:     "setChecked",
		Args:     []ArgKind{ArgWidget, ArgBool},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetChecked(c.Ptr(0), c.Bool(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "setOpacity",
		Args:     []ArgKind{ArgWidget, ArgFloat},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetOpacity(c.Ptr(0), c.Float(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "addFlag",
		Args:     []ArgKind{ArgWidget, ArgUint32},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().AddFlag(c.Ptr(0), c.Uint32(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "clearFlag",
		Args:     []ArgKind{ArgWidget, ArgUint32},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().ClearFlag(c.Ptr(0), c.Uint32(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "setFont",
		Args:     []ArgKind{ArgWidget, ArgFont},
		Required: 2,
		Fn: func(c *Call) goja.Value {
			if err := c.Toolkit().SetFont(c.Ptr(0), c.Ptr(1)); err != nil {
				c.Throw(err)
			}
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "getFont",
		Args:     []ArgKind{ArgString},
		Required: 1,
		Fn: func(c *Call) goja.Value {
			ptr, err := c.Toolkit().FontByName(c.CStr(0))
			if err != nil {
				c.Throw(err)
			}
			return c.Font(ptr)
		},
	})

	b.Define(FuncDef{
		Name:     "print",
		Variadic: true,
		Fn: func(c *Call) goja.Value {
			parts := make([]string, 0, len(c.RawArgs()))
			for _, v := range c.RawArgs() {
				parts = append(parts, v.String())
			}
			c.s.print(strings.Join(parts, " "))
			return goja.Undefined()
		},
	})

	b.Define(FuncDef{
		Name:     "delay",
		Args:     []ArgKind{ArgUint32},
		Required: 1,
		Fn: func(c *Call) goja.Value {
			// Blocks the whole driving thread; the crude timing model is
			// part of the contract.
			time.Sleep(time.Duration(c.Uint32(0)) * time.Millisecond)
			return goja.Undefined()
		},
	})

	return b
}
