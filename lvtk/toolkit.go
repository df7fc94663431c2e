//go:build !windows && !ios && !android && (amd64 || arm64)

package lvtk

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"

	uijs "github.com/appsys/uijs-go"
)

// Event codes from the v8 lv_event_code_t enum.
const (
	lvEventAll          = 0
	lvEventPressed      = 1
	lvEventLongPressed  = 5
	lvEventClicked      = 7
	lvEventReleased     = 8
	lvEventFocused      = 14
	lvEventDefocused    = 15
	lvEventValueChanged = 28
	lvEventReady        = 31
	lvEventDelete       = 33
)

const (
	lvStateChecked = 0x0001
	lvSelectorMain = 0
	lvAnimOff      = 0
)

var kindToCode = map[uijs.EventKind]int32{
	uijs.EventAll:          lvEventAll,
	uijs.EventPressed:      lvEventPressed,
	uijs.EventReleased:     lvEventReleased,
	uijs.EventClicked:      lvEventClicked,
	uijs.EventLongPressed:  lvEventLongPressed,
	uijs.EventValueChanged: lvEventValueChanged,
	uijs.EventFocusGained:  lvEventFocused,
	uijs.EventFocusLost:    lvEventDefocused,
	uijs.EventReady:        lvEventReady,
	uijs.EventDelete:       lvEventDelete,
}

var codeToKind = make(map[int32]uijs.EventKind)

func init() {
	for k, c := range kindToCode {
		if k != uijs.EventAll {
			codeToKind[c] = k
		}
	}
}

// hookRec ties a native callback registration back to its Go hook. The
// user_data stored in the library is the table key, which doubles as
// the hook id. A watch rec is the per-object delete watch, not a
// bridge-installed hook.
type hookRec struct {
	obj      uintptr
	filter   uijs.EventKind
	fn       uijs.HookFunc
	userData uijs.ObjPtr
	watch    bool
}

// Hook state is package level like the library it mirrors. The whole
// toolkit runs on the single goroutine that owns the LVGL timer loop,
// so there is no locking.
var (
	hookTable    = make(map[uintptr]*hookRec)
	watched      = make(map[uintptr]bool)
	nextHookData uintptr = 1

	trampoline uintptr
)

func ensureTrampoline() uintptr {
	if trampoline == 0 {
		trampoline = purego.NewCallback(eventTrampoline)
	}
	return trampoline
}

// eventTrampoline is the single C callback behind every hook. The
// library hands back the user_data the callback was installed with;
// that resolves the Go side of the registration.
func eventTrampoline(e uintptr) {
	data := lvEventGetUserData(e)
	rec, ok := hookTable[data]
	if !ok {
		return
	}
	target := lvEventGetTarget(e)
	code := lvEventGetCode(e)
	if rec.watch {
		if code == lvEventDelete {
			objectDeleted(target, uijs.ObjPtr(e))
		}
		return
	}
	kind, ok := codeToKind[code]
	if !ok {
		// Codes outside the bridge vocabulary (draw, scroll, layout)
		// are not reported, not even through wildcard hooks.
		return
	}
	rec.fn(&event{
		target:   uijs.ObjPtr(target),
		kind:     kind,
		ptr:      uijs.ObjPtr(e),
		userData: rec.userData,
		hook:     uijs.HookID(data),
	})
}

// objectDeleted runs on the per-object watch while the native delete is
// still in flight, so the address still belongs to this object. The
// watch precedes every bridge hook in the library's add-order callback
// list, so delivery is driven from here to keep the ordering the bridge
// contract requires: the dead object's own covering hooks first, then
// the screen-level notices the library itself never forwards. The own
// hooks are pulled out of the table before they fire, which turns the
// library's own later delivery to them into a no-op.
func objectDeleted(target uintptr, evPtr uijs.ObjPtr) {
	type firing struct {
		data uintptr
		rec  *hookRec
	}

	var own []firing
	for data, r := range hookTable {
		if r.watch || r.obj != target {
			continue
		}
		if r.filter == uijs.EventAll || r.filter == uijs.EventDelete {
			own = append(own, firing{data, r})
		}
	}
	for _, f := range own {
		delete(hookTable, f.data)
	}
	for _, f := range own {
		f.rec.fn(&event{
			target:   uijs.ObjPtr(target),
			kind:     uijs.EventDelete,
			ptr:      evPtr,
			userData: f.rec.userData,
			hook:     uijs.HookID(f.data),
		})
	}

	screen := lvDispGetScrAct(0)
	var notify []firing
	for data, r := range hookTable {
		if r.watch || r.obj != screen || r.obj == target {
			continue
		}
		if r.filter == uijs.EventAll || r.filter == uijs.EventDelete {
			notify = append(notify, firing{data, r})
		}
	}
	for _, f := range notify {
		f.rec.fn(&event{
			target:   uijs.ObjPtr(target),
			kind:     uijs.EventDelete,
			ptr:      evPtr,
			userData: f.rec.userData,
			hook:     uijs.HookID(f.data),
		})
	}

	for data, r := range hookTable {
		if r.obj == target {
			delete(hookTable, data)
		}
	}
	delete(watched, target)
}

// event is one firing as reported by the trampoline.
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

// Toolkit adapts the process-wide library to the bridge. Property
// setters trust their addresses the way the C API does; a stale handle
// is undefined behavior in the native library. The lifecycle reaper is
// what keeps sessions from holding stale handles.
type Toolkit struct{}

var _ uijs.Toolkit = (*Toolkit)(nil)

// New loads the library and returns a toolkit over it. It fails when
// the library cannot be found or no display has been initialized.
func New() (*Toolkit, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	if lvDispGetScrAct(0) == 0 {
		return nil, errors.New("lvtk: no active display; initialize the library and a display first")
	}
	return &Toolkit{}, nil
}

func (t *Toolkit) ActiveScreen() uijs.ObjPtr {
	if !loaded {
		return 0
	}
	return uijs.ObjPtr(lvDispGetScrAct(0))
}

func (t *Toolkit) CreateObject(parent uijs.ObjPtr) (uijs.ObjPtr, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	p := uintptr(parent)
	if p == 0 {
		p = lvDispGetScrAct(0)
	} else if !lvObjIsValid(p) {
		return 0, fmt.Errorf("lvtk: no object at %#x", p)
	}
	obj := lvObjCreate(p)
	if obj == 0 {
		return 0, errors.New("lvtk: object creation failed")
	}
	watchObject(obj)
	return uijs.ObjPtr(obj), nil
}

// watchObject installs the delete watch that keeps screen-level destroy
// notices and the hook table in step with the native lifetime. One
// watch per object; it must be installed before any bridge hook so it
// comes first in the library's add-order callback list.
func watchObject(obj uintptr) {
	if watched[obj] {
		return
	}
	watched[obj] = true
	data := nextHookData
	nextHookData++
	hookTable[data] = &hookRec{obj: obj, watch: true}
	lvObjAddEventCb(obj, ensureTrampoline(), lvEventDelete, data)
}

func (t *Toolkit) DeleteObject(obj uijs.ObjPtr) error {
	if !loaded {
		return ErrNotLoaded
	}
	p := uintptr(obj)
	if p == lvDispGetScrAct(0) {
		return errors.New("lvtk: cannot delete the active screen")
	}
	if !lvObjIsValid(p) {
		return fmt.Errorf("lvtk: no object at %#x", p)
	}
	lvObjDel(p)
	return nil
}

func (t *Toolkit) AddHook(obj uijs.ObjPtr, filter uijs.EventKind, fn uijs.HookFunc, userData uijs.ObjPtr) (uijs.HookID, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	p := uintptr(obj)
	if !lvObjIsValid(p) {
		return 0, fmt.Errorf("lvtk: no object at %#x", p)
	}
	if fn == nil {
		return 0, errors.New("lvtk: nil hook")
	}
	code, ok := kindToCode[filter]
	if !ok {
		return 0, fmt.Errorf("lvtk: unsupported event kind %d", int32(filter))
	}
	// Objects the bridge did not create (the active screen, natively
	// built widgets) get their delete watch on first hook, so their
	// registrations are reaped like everything else.
	watchObject(p)
	data := nextHookData
	nextHookData++
	hookTable[data] = &hookRec{obj: p, filter: filter, fn: fn, userData: userData}
	lvObjAddEventCb(p, ensureTrampoline(), code, data)
	return uijs.HookID(data), nil
}

// RemoveHook detaches one hook. The shared trampoline serves every
// hook, so the native side discriminates by user_data.
func (t *Toolkit) RemoveHook(obj uijs.ObjPtr, id uijs.HookID) error {
	data := uintptr(id)
	rec, ok := hookTable[data]
	if !ok {
		return nil
	}
	delete(hookTable, data)
	if lvObjIsValid(rec.obj) {
		lvObjRemoveEventCbWithUserData(rec.obj, ensureTrampoline(), data)
	}
	return nil
}

func (t *Toolkit) SetText(obj uijs.ObjPtr, text uijs.CString) error {
	if len(text) == 0 {
		text = uijs.NewCString("")
	}
	// The library copies the text before returning, which is what the
	// transient buffer contract requires.
	lvLabelSetText(uintptr(obj), &text[0])
	return nil
}

func (t *Toolkit) Text(obj uijs.ObjPtr) (string, bool, error) {
	p := lvLabelGetText(uintptr(obj))
	if p == 0 {
		return "", false, nil
	}
	return goString(p), true, nil
}

// Coordinates are 16-bit in the v8 ABI.

func (t *Toolkit) SetPos(obj uijs.ObjPtr, x, y int32) error {
	lvObjSetPos(uintptr(obj), int16(x), int16(y))
	return nil
}

func (t *Toolkit) SetSize(obj uijs.ObjPtr, w, h int32) error {
	lvObjSetSize(uintptr(obj), int16(w), int16(h))
	return nil
}

func (t *Toolkit) SetValue(obj uijs.ObjPtr, v int32) error {
	lvSliderSetValue(uintptr(obj), v, lvAnimOff)
	return nil
}

func (t *Toolkit) Value(obj uijs.ObjPtr) (int32, error) {
	return lvSliderGetValue(uintptr(obj)), nil
}

func (t *Toolkit) SetChecked(obj uijs.ObjPtr, on bool) error {
	if on {
		lvObjAddState(uintptr(obj), lvStateChecked)
	} else {
		lvObjClearState(uintptr(obj), lvStateChecked)
	}
	return nil
}

func (t *Toolkit) SetOpacity(obj uijs.ObjPtr, opacity float64) error {
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	lvObjSetStyleOpa(uintptr(obj), uint8(opacity*255+0.5), lvSelectorMain)
	return nil
}

func (t *Toolkit) AddFlag(obj uijs.ObjPtr, flag uint32) error {
	lvObjAddFlag(uintptr(obj), flag)
	return nil
}

func (t *Toolkit) ClearFlag(obj uijs.ObjPtr, flag uint32) error {
	lvObjClearFlag(uintptr(obj), flag)
	return nil
}

func (t *Toolkit) SetFont(obj uijs.ObjPtr, font uijs.ObjPtr) error {
	if font == 0 {
		return errors.New("lvtk: null font")
	}
	lvObjSetStyleTextFont(uintptr(obj), uintptr(font), lvSelectorMain)
	return nil
}

// FontByName resolves a compiled-in font by its data symbol. "default"
// and bare names alias into the lv_font_ namespace. Unknown fonts are
// 0, not an error.
func (t *Toolkit) FontByName(name uijs.CString) (uijs.ObjPtr, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	s := name.String()
	switch {
	case s == "" || s == "default":
		s = "lv_font_montserrat_14"
	case !strings.HasPrefix(s, "lv_font_"):
		s = "lv_font_" + s
	}
	sym, err := purego.Dlsym(libLVGL, s)
	if err != nil {
		return 0, nil
	}
	return uijs.ObjPtr(sym), nil
}

// Fire sends one event through the library's own delivery path,
// reaching every installed callback the way real input would.
func (t *Toolkit) Fire(target uijs.ObjPtr, kind uijs.EventKind) error {
	if !loaded {
		return ErrNotLoaded
	}
	code, ok := kindToCode[kind]
	if !ok || kind == uijs.EventAll {
		return fmt.Errorf("lvtk: cannot send event kind %d", int32(kind))
	}
	if !lvObjIsValid(uintptr(target)) {
		return fmt.Errorf("lvtk: no object at %#x", uintptr(target))
	}
	lvEventSend(uintptr(target), code, 0)
	return nil
}

// Tick advances the library clock.
func (t *Toolkit) Tick(ms uint32) {
	if loaded {
		lvTickInc(ms)
	}
}

// Pump runs one pass of the timer handler, delivering pending input
// and animation work.
func (t *Toolkit) Pump() {
	if loaded {
		lvTimerHandler()
	}
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
