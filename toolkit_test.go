package uijs

import "fmt"

// fakeToolkit is a minimal in-process toolkit for unit tests: per-object
// hook lists and a synchronous fire path, nothing else. The integration
// tests use simtk; this fake exists so registry and dispatcher tests can
// count and inspect installed hooks directly.
type fakeToolkit struct {
	screen  ObjPtr
	alive   map[ObjPtr]bool
	hooks   map[ObjPtr][]fakeHook
	nextID  HookID
	removed []HookID
}

type fakeHook struct {
	id       HookID
	filter   EventKind
	fn       HookFunc
	userData ObjPtr
}

type fakeEvent struct {
	target   ObjPtr
	kind     EventKind
	ptr      ObjPtr
	userData ObjPtr
	hook     HookID
}

func (e *fakeEvent) Target() ObjPtr   { return e.target }
func (e *fakeEvent) Kind() EventKind  { return e.kind }
func (e *fakeEvent) Ptr() ObjPtr      { return e.ptr }
func (e *fakeEvent) UserData() ObjPtr { return e.userData }
func (e *fakeEvent) Hook() HookID     { return e.hook }

func newFakeToolkit() *fakeToolkit {
	t := &fakeToolkit{
		screen: 0x1000,
		alive:  make(map[ObjPtr]bool),
		hooks:  make(map[ObjPtr][]fakeHook),
	}
	t.alive[t.screen] = true
	return t
}

func (t *fakeToolkit) add(addr ObjPtr) ObjPtr {
	t.alive[addr] = true
	return addr
}

func (t *fakeToolkit) ActiveScreen() ObjPtr { return t.screen }

func (t *fakeToolkit) CreateObject(parent ObjPtr) (ObjPtr, error) {
	addr := ObjPtr(0x2000 + uintptr(len(t.alive))*0x40)
	t.alive[addr] = true
	return addr, nil
}

func (t *fakeToolkit) DeleteObject(obj ObjPtr) error {
	if !t.alive[obj] {
		return fmt.Errorf("fake: no object at %#x", uintptr(obj))
	}
	// Deliver the destroy notice the way the toolkit contract requires:
	// to the object's own hooks and to the screen's, while the address
	// is still live.
	t.fire(obj, obj, EventDelete)
	t.fire(t.screen, obj, EventDelete)
	delete(t.alive, obj)
	delete(t.hooks, obj)
	return nil
}

func (t *fakeToolkit) AddHook(obj ObjPtr, filter EventKind, fn HookFunc, userData ObjPtr) (HookID, error) {
	if !t.alive[obj] {
		return 0, fmt.Errorf("fake: no object at %#x", uintptr(obj))
	}
	t.nextID++
	t.hooks[obj] = append(t.hooks[obj], fakeHook{id: t.nextID, filter: filter, fn: fn, userData: userData})
	return t.nextID, nil
}

func (t *fakeToolkit) RemoveHook(obj ObjPtr, id HookID) error {
	t.removed = append(t.removed, id)
	hooks := t.hooks[obj]
	for i, h := range hooks {
		if h.id == id {
			t.hooks[obj] = append(hooks[:i], hooks[i+1:]...)
			return nil
		}
	}
	return nil
}

// fire delivers one firing of kind on target through owner's matching
// hooks, snapshot-first like a real toolkit.
func (t *fakeToolkit) fire(owner, target ObjPtr, kind EventKind) {
	hooks := make([]fakeHook, len(t.hooks[owner]))
	copy(hooks, t.hooks[owner])
	for _, h := range hooks {
		if h.filter != EventAll && h.filter != kind {
			continue
		}
		h.fn(&fakeEvent{
			target:   target,
			kind:     kind,
			ptr:      0x9000,
			userData: h.userData,
			hook:     h.id,
		})
	}
}

// Fire delivers a firing on target through target's own hooks.
func (t *fakeToolkit) Fire(target ObjPtr, kind EventKind) {
	t.fire(target, target, kind)
}

func (t *fakeToolkit) hookCount(obj ObjPtr) int { return len(t.hooks[obj]) }

func (t *fakeToolkit) SetText(obj ObjPtr, text CString) error { return nil }
func (t *fakeToolkit) Text(obj ObjPtr) (string, bool, error) { return "", false, nil }
func (t *fakeToolkit) SetPos(obj ObjPtr, x, y int32) error { return nil }
func (t *fakeToolkit) SetSize(obj ObjPtr, w, h int32) error { return nil }
func (t *fakeToolkit) SetValue(obj ObjPtr, v int32) error { return nil }
func (t *fakeToolkit) Value(obj ObjPtr) (int32, error) { return 0, nil }
func (t *fakeToolkit) SetChecked(obj ObjPtr, on bool) error { return nil }
func (t *fakeToolkit) SetOpacity(obj ObjPtr, opacity float64) error { return nil }
func (t *fakeToolkit) AddFlag(obj ObjPtr, flag uint32) error { return nil }
func (t *fakeToolkit) ClearFlag(obj ObjPtr, flag uint32) error { return nil }
func (t *fakeToolkit) SetFont(obj ObjPtr, font ObjPtr) error { return nil }
func (t *fakeToolkit) FontByName(name CString) (ObjPtr, error) { return 0, nil }

var _ Toolkit = (*fakeToolkit)(nil)
