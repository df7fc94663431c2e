package uijs

// HookFunc is the signature of a native event hook: one firing in, no
// result out. The registry only ever installs the dispatcher here, so a
// toolkit sees a single shared hook function regardless of how many
// script callbacks are subscribed.
type HookFunc func(Event)

// HookID identifies one installed hook so it can be removed without
// disturbing other hooks on the same object.
type HookID int64

// Event is one native event firing as the toolkit reports it. Values
// are only valid during the firing.
type Event interface {
	// Target is the object the event fired on.
	Target() ObjPtr
	// Kind is what happened.
	Kind() EventKind
	// Ptr is the address of the toolkit's transient event record,
	// exposed to scripts as an opaque handle.
	Ptr() ObjPtr
	// UserData is the context pointer the hook was installed with.
	UserData() ObjPtr
	// Hook identifies the installed hook this firing is delivered
	// through. One native event reaches every matching hook as a
	// separate firing; the hook identity is what lets the dispatcher
	// deliver each event exactly once.
	Hook() HookID
}

// Toolkit is the native UI object graph the bridge drives. Everything is
// called from the single driving goroutine; implementations need no
// locking. CString buffers passed in are transient: a toolkit copies
// what it keeps and never retains the buffer.
//
// Destroy notices: deleting an object, including descendants destroyed
// by the cascade, must deliver an EventDelete firing for every destroyed
// object to hooks on that object and to hooks installed on the active
// screen, before the destroyed address may be reused. The lifecycle
// reaper depends on this ordering.
type Toolkit interface {
	// ActiveScreen returns the root object of the current screen.
	ActiveScreen() ObjPtr

	// CreateObject creates a plain object under parent, or under the
	// active screen when parent is the null pointer.
	CreateObject(parent ObjPtr) (ObjPtr, error)

	// DeleteObject destroys an object and its descendants.
	DeleteObject(obj ObjPtr) error

	// AddHook installs an event hook on obj for kinds matching filter.
	// userData travels with each firing as the hook context.
	AddHook(obj ObjPtr, filter EventKind, fn HookFunc, userData ObjPtr) (HookID, error)

	// RemoveHook uninstalls one hook. Unknown ids are a no-op.
	RemoveHook(obj ObjPtr, id HookID) error

	SetText(obj ObjPtr, text CString) error
	// Text reports the object's text; ok is false when the native side
	// holds none at all. Callers normalize that to "".
	Text(obj ObjPtr) (s string, ok bool, err error)
	SetPos(obj ObjPtr, x, y int32) error
	SetSize(obj ObjPtr, w, h int32) error
	SetValue(obj ObjPtr, v int32) error
	Value(obj ObjPtr) (int32, error)
	SetChecked(obj ObjPtr, on bool) error
	SetOpacity(obj ObjPtr, opacity float64) error
	AddFlag(obj ObjPtr, flag uint32) error
	ClearFlag(obj ObjPtr, flag uint32) error
	SetFont(obj ObjPtr, font ObjPtr) error

	// FontByName resolves a registered font name; 0 when unknown.
	FontByName(name CString) (ObjPtr, error)
}
