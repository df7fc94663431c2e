// Package simtk is a deterministic in-memory toolkit for driving the
// bridge without a native UI library: an object graph at simulated
// addresses, per-object event hooks, and a pump for queued firings. It
// backs the command-line runner and the integration tests.
package simtk

import (
	"errors"
	"fmt"

	uijs "github.com/appsys/uijs-go"
)

// object is one simulated native object.
type object struct {
	addr     uijs.ObjPtr
	parent   *object
	children []*object
	hooks    []hookReg

	text    string
	hasText bool
	x, y    int32
	w, h    int32
	value   int32
	checked bool
	opacity float64
	flags   uint32
	font    uijs.ObjPtr
}

// hookReg is one installed hook.
type hookReg struct {
	id       uijs.HookID
	filter   uijs.EventKind
	fn       uijs.HookFunc
	userData uijs.ObjPtr
}

// event is one firing. It satisfies the bridge's event contract; the
// record address is synthetic and never dereferenced.
type event struct {
	target   uijs.ObjPtr
	kind     uijs.EventKind
	ptr      uijs.ObjPtr
	userData uijs.ObjPtr
	hook     uijs.HookID
}

func (e *event) Target() uijs.ObjPtr   { return e.target }
func (e *event) Kind() uijs.EventKind  { return e.kind }
func (e *event) Ptr() uijs.ObjPtr      { return e.ptr }
func (e *event) UserData() uijs.ObjPtr { return e.userData }
func (e *event) Hook() uijs.HookID     { return e.hook }

// Event records live in their own address range so they never collide
// with objects or fonts.
const evtBase = 0x80000000

// Toolkit is the simulated object graph. Like a real toolkit it is
// driven from a single goroutine and does no locking.
type Toolkit struct {
	arena    *arena
	screen   *object
	fonts    map[string]uijs.ObjPtr
	loop     *Loop
	nextHook int64
	nextEvt  uintptr
}

var _ uijs.Toolkit = (*Toolkit)(nil)

// New builds a toolkit with an empty active screen and three registered
// fonts: "default", "small" and "large".
func New() *Toolkit {
	t := &Toolkit{
		arena: newArena(),
		fonts: map[string]uijs.ObjPtr{
			"default": 0x10,
			"small":   0x20,
			"large":   0x30,
		},
		loop:    NewLoop(),
		nextEvt: evtBase,
	}
	t.screen = &object{opacity: 1}
	t.arena.store(t.screen)
	return t
}

func (t *Toolkit) ActiveScreen() uijs.ObjPtr {
	return t.screen.addr
}

func (t *Toolkit) CreateObject(parent uijs.ObjPtr) (uijs.ObjPtr, error) {
	p := t.screen
	if parent != 0 {
		var err error
		p, err = t.object(parent)
		if err != nil {
			return 0, err
		}
	}
	obj := &object{parent: p, opacity: 1}
	addr := t.arena.store(obj)
	p.children = append(p.children, obj)
	return addr, nil
}

func (t *Toolkit) DeleteObject(addr uijs.ObjPtr) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	if obj == t.screen {
		return errors.New("simtk: cannot delete the active screen")
	}
	t.detach(obj)
	t.destroy(obj)
	return nil
}

func (t *Toolkit) detach(obj *object) {
	p := obj.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == obj {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	obj.parent = nil
}

// destroy tears down obj's subtree child-first. Each object's delete
// notice fires while its address is still live, before the arena frees
// it for reuse.
func (t *Toolkit) destroy(obj *object) {
	children := obj.children
	obj.children = nil
	for _, c := range children {
		t.destroy(c)
	}
	t.notifyDelete(obj)
	obj.hooks = nil
	t.arena.delete(obj.addr)
}

func (t *Toolkit) notifyDelete(obj *object) {
	t.fireHooks(obj, obj.addr, uijs.EventDelete)
	if obj != t.screen {
		t.fireHooks(t.screen, obj.addr, uijs.EventDelete)
	}
}

// fireHooks delivers one firing of kind on target through owner's
// matching hooks. The hook list is snapshotted first so a hook removing
// itself mid-firing cannot skip its neighbors.
func (t *Toolkit) fireHooks(owner *object, target uijs.ObjPtr, kind uijs.EventKind) {
	if len(owner.hooks) == 0 {
		return
	}
	rec := uijs.ObjPtr(t.nextEvt)
	t.nextEvt += arenaStep
	hooks := make([]hookReg, len(owner.hooks))
	copy(hooks, owner.hooks)
	for _, h := range hooks {
		if h.filter != uijs.EventAll && h.filter != kind {
			continue
		}
		h.fn(&event{
			target:   target,
			kind:     kind,
			ptr:      rec,
			userData: h.userData,
			hook:     h.id,
		})
	}
}

// Fire delivers one firing of kind on target synchronously.
func (t *Toolkit) Fire(target uijs.ObjPtr, kind uijs.EventKind) error {
	obj, err := t.object(target)
	if err != nil {
		return err
	}
	t.fireHooks(obj, obj.addr, kind)
	return nil
}

// FireLater queues a firing for the next Pump. Firings on objects
// destroyed in the meantime are dropped.
func (t *Toolkit) FireLater(target uijs.ObjPtr, kind uijs.EventKind) {
	t.loop.Schedule(func() {
		if obj, ok := t.arena.load(target); ok {
			t.fireHooks(obj, obj.addr, kind)
		}
	})
}

// Pump drains queued firings, including ones queued while draining.
func (t *Toolkit) Pump() {
	t.loop.Run()
}

// Pending reports whether firings are queued.
func (t *Toolkit) Pending() bool {
	return t.loop.Pending()
}

func (t *Toolkit) AddHook(addr uijs.ObjPtr, filter uijs.EventKind, fn uijs.HookFunc, userData uijs.ObjPtr) (uijs.HookID, error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, errors.New("simtk: nil hook")
	}
	t.nextHook++
	id := uijs.HookID(t.nextHook)
	obj.hooks = append(obj.hooks, hookReg{id: id, filter: filter, fn: fn, userData: userData})
	return id, nil
}

// RemoveHook is a no-op for dead objects and unknown ids; destruction
// already tore those hooks down.
func (t *Toolkit) RemoveHook(addr uijs.ObjPtr, id uijs.HookID) error {
	obj, ok := t.arena.load(addr)
	if !ok {
		return nil
	}
	for i, h := range obj.hooks {
		if h.id == id {
			obj.hooks = append(obj.hooks[:i], obj.hooks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *Toolkit) SetText(addr uijs.ObjPtr, text uijs.CString) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	// Copy out of the transient buffer; it dies with the call.
	obj.text = text.String()
	obj.hasText = true
	return nil
}

func (t *Toolkit) Text(addr uijs.ObjPtr) (string, bool, error) {
	obj, err := t.object(addr)
	if err != nil {
		return "", false, err
	}
	return obj.text, obj.hasText, nil
}

func (t *Toolkit) SetPos(addr uijs.ObjPtr, x, y int32) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.x, obj.y = x, y
	return nil
}

func (t *Toolkit) SetSize(addr uijs.ObjPtr, w, h int32) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.w, obj.h = w, h
	return nil
}

func (t *Toolkit) SetValue(addr uijs.ObjPtr, v int32) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.value = v
	return nil
}

func (t *Toolkit) Value(addr uijs.ObjPtr) (int32, error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, err
	}
	return obj.value, nil
}

func (t *Toolkit) SetChecked(addr uijs.ObjPtr, on bool) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.checked = on
	return nil
}

func (t *Toolkit) SetOpacity(addr uijs.ObjPtr, opacity float64) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.opacity = opacity
	return nil
}

func (t *Toolkit) AddFlag(addr uijs.ObjPtr, flag uint32) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.flags |= flag
	return nil
}

func (t *Toolkit) ClearFlag(addr uijs.ObjPtr, flag uint32) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	obj.flags &^= flag
	return nil
}

func (t *Toolkit) SetFont(addr uijs.ObjPtr, font uijs.ObjPtr) error {
	obj, err := t.object(addr)
	if err != nil {
		return err
	}
	if !t.knownFont(font) {
		return fmt.Errorf("simtk: no font at %#x", uintptr(font))
	}
	obj.font = font
	return nil
}

// FontByName resolves a registered font name, 0 when unknown.
func (t *Toolkit) FontByName(name uijs.CString) (uijs.ObjPtr, error) {
	return t.fonts[name.String()], nil
}

func (t *Toolkit) knownFont(addr uijs.ObjPtr) bool {
	for _, a := range t.fonts {
		if a == addr {
			return true
		}
	}
	return false
}

func (t *Toolkit) object(addr uijs.ObjPtr) (*object, error) {
	obj, ok := t.arena.load(addr)
	if !ok {
		return nil, fmt.Errorf("simtk: no object at %#x", uintptr(addr))
	}
	return obj, nil
}

// Alive reports whether addr names a live object.
func (t *Toolkit) Alive(addr uijs.ObjPtr) bool {
	_, ok := t.arena.load(addr)
	return ok
}

// ObjectCount returns the number of live objects, the screen included.
func (t *Toolkit) ObjectCount() int {
	return t.arena.count()
}

// HookCount returns the number of hooks installed on addr, 0 for dead
// objects.
func (t *Toolkit) HookCount(addr uijs.ObjPtr) int {
	obj, ok := t.arena.load(addr)
	if !ok {
		return 0
	}
	return len(obj.hooks)
}

// Pos returns the stored position.
func (t *Toolkit) Pos(addr uijs.ObjPtr) (x, y int32, err error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, 0, err
	}
	return obj.x, obj.y, nil
}

// Size returns the stored size.
func (t *Toolkit) Size(addr uijs.ObjPtr) (w, h int32, err error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, 0, err
	}
	return obj.w, obj.h, nil
}

// Checked returns the stored checked state.
func (t *Toolkit) Checked(addr uijs.ObjPtr) (bool, error) {
	obj, err := t.object(addr)
	if err != nil {
		return false, err
	}
	return obj.checked, nil
}

// Opacity returns the stored opacity.
func (t *Toolkit) Opacity(addr uijs.ObjPtr) (float64, error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, err
	}
	return obj.opacity, nil
}

// Flags returns the stored flag bits.
func (t *Toolkit) Flags(addr uijs.ObjPtr) (uint32, error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, err
	}
	return obj.flags, nil
}

// Font returns the stored font address, 0 when none was set.
func (t *Toolkit) Font(addr uijs.ObjPtr) (uijs.ObjPtr, error) {
	obj, err := t.object(addr)
	if err != nil {
		return 0, err
	}
	return obj.font, nil
}
