package uijs

import (
	"log"

	"github.com/dop251/goja"
)

// Dispatcher is the single shared hook body behind every registry key.
// It resolves a firing to one entry, builds the script event descriptor,
// and invokes the entry's callbacks in registration order.
type Dispatcher struct {
	rt  *goja.Runtime
	reg *Registry
	log *log.Logger
}

// NewDispatcher wires the dispatcher to reg and binds itself as the hook
// the registry installs.
func NewDispatcher(rt *goja.Runtime, reg *Registry, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{rt: rt, reg: reg, log: logger}
	reg.SetHook(d.Dispatch)
	return d
}

// Dispatch handles one native firing. Resolution: the kind-specific
// entry wins; the wildcard entry only receives kinds that have no
// specific entry; the two are never merged. The toolkit fires every
// matching hook separately, including screen-level hooks carrying
// destroy notices for the whole tree, so the selected entry accepts
// only firings that arrived through the hook it installed. That is
// what keeps one event from reaching the same callbacks twice.
func (d *Dispatcher) Dispatch(ev Event) {
	e := d.reg.lookup(CallbackKey{Obj: ev.Target(), Kind: ev.Kind()})
	if e == nil {
		e = d.reg.lookup(CallbackKey{Obj: ev.Target(), Kind: EventAll})
	}
	if e == nil {
		return
	}
	if e.hook != ev.Hook() {
		return
	}
	desc, err := d.descriptor(ev)
	if err != nil {
		d.log.Printf("uijs: dropping event %s on %#x: %v", ev.Kind(), uintptr(ev.Target()), err)
		return
	}
	for _, cb := range e.list.snapshot() {
		d.invoke(cb, desc, ev)
	}
}

// descriptor builds the single argument every callback receives:
// {target, kind, event?, userData?}.
func (d *Dispatcher) descriptor(ev Event) (goja.Value, error) {
	target, err := EncodeHandle(d.rt, ev.Target(), ClassWidget)
	if err != nil {
		return nil, err
	}
	desc := d.rt.NewObject()
	if err := desc.Set("target", target); err != nil {
		return nil, err
	}
	if err := desc.Set("kind", int64(ev.Kind())); err != nil {
		return nil, err
	}
	if p := ev.Ptr(); p != 0 {
		rec, err := EncodeHandle(d.rt, p, ClassEvent)
		if err != nil {
			return nil, err
		}
		if err := desc.Set("event", rec); err != nil {
			return nil, err
		}
	}
	if u := ev.UserData(); u != 0 {
		ud, err := EncodeHandle(d.rt, u, "")
		if err != nil {
			return nil, err
		}
		if err := desc.Set("userData", ud); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

// invoke runs one callback with its failure isolated: a throwing
// callback is logged and the remaining callbacks of the same firing
// still run. Nothing a callback does unwinds into the toolkit's pump.
func (d *Dispatcher) invoke(cb Callback, desc goja.Value, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Printf("uijs: callback panic during %s on %#x: %v", ev.Kind(), uintptr(ev.Target()), rec)
		}
	}()
	if _, err := cb.Fn(goja.Undefined(), desc); err != nil {
		d.log.Printf("uijs: callback error during %s on %#x: %v", ev.Kind(), uintptr(ev.Target()), err)
	}
}
