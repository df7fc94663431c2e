package simtk

import uijs "github.com/appsys/uijs-go"

// arena owns the simulated native address space: live objects keyed by
// address, a free list so destroyed addresses come back the way a real
// allocator hands them back, and a bump pointer for fresh ones. Only
// the driving goroutine touches it.
type arena struct {
	objects map[uijs.ObjPtr]*object
	free    []uijs.ObjPtr
	next    uintptr
}

const (
	arenaBase = 0x1000
	arenaStep = 0x40
)

func newArena() *arena {
	return &arena{
		objects: make(map[uijs.ObjPtr]*object),
		next:    arenaBase,
	}
}

// store places obj at the most recently freed address when one exists,
// else at a fresh one. Address reuse is deliberate: it reproduces the
// hazard the lifecycle reaper exists for.
func (a *arena) store(obj *object) uijs.ObjPtr {
	var addr uijs.ObjPtr
	if n := len(a.free); n > 0 {
		addr = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		addr = uijs.ObjPtr(a.next)
		a.next += arenaStep
	}
	obj.addr = addr
	a.objects[addr] = obj
	return addr
}

// load resolves a live address.
func (a *arena) load(addr uijs.ObjPtr) (*object, bool) {
	obj, ok := a.objects[addr]
	return obj, ok
}

// delete frees the address back to the free list.
func (a *arena) delete(addr uijs.ObjPtr) bool {
	if _, ok := a.objects[addr]; !ok {
		return false
	}
	delete(a.objects, addr)
	a.free = append(a.free, addr)
	return true
}

// count returns the number of live objects.
func (a *arena) count() int {
	return len(a.objects)
}
