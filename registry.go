package uijs

import (
	"log"

	"github.com/dop251/goja"
)

// DefaultCapacity is the per-key callback list bound. The (N+1)th
// registration on one key is a CapacityError, never silent truncation.
const DefaultCapacity = 8

// CallbackKey identifies one (object, event kind) subscription point.
// Internal to the registry; never exposed to scripts.
type CallbackKey struct {
	Obj  ObjPtr
	Kind EventKind
}

// Callback is one retained script callback: the callable plus the value
// it came from. The registry holds exactly one reference per stored
// callback and drops it exactly once on removal.
type Callback struct {
	Fn  goja.Callable
	Val goja.Value
}

// callbackList is the ordered, capacity-bounded collection behind one
// entry.
type callbackList struct {
	items []Callback
	cap   int
}

// push appends cb in registration order; false when the list is full.
func (l *callbackList) push(cb Callback) bool {
	if len(l.items) >= l.cap {
		return false
	}
	l.items = append(l.items, cb)
	return true
}

// snapshot detaches the current items from future mutation. Dispatch
// iterates the snapshot so a callback unregistering itself mid-firing
// neither skips nor double-invokes its siblings.
func (l *callbackList) snapshot() []Callback {
	out := make([]Callback, len(l.items))
	copy(out, l.items)
	return out
}

// clear drops every retained reference.
func (l *callbackList) clear() {
	for i := range l.items {
		l.items[i] = Callback{}
	}
	l.items = l.items[:0]
}

func (l *callbackList) len() int { return len(l.items) }

// callbackEntry is the per-key state: the retained callbacks, the hook
// the registry installed when the entry was created, and the hook
// context pointer chosen at creation.
type callbackEntry struct {
	key     CallbackKey
	hook    HookID
	hookCtx ObjPtr
	list    callbackList
}

// Registry owns the (object, event kind) -> callback list mapping for
// one session. It is an explicitly owned service: created at bridge
// init, handed by reference to the dispatcher and the function table,
// fully cleared at teardown. Only the single driving goroutine touches
// it, so there is no locking.
type Registry struct {
	tk       Toolkit
	entries  map[CallbackKey]*callbackEntry
	capacity int
	hook     HookFunc
	log      *log.Logger
}

// NewRegistry creates an empty registry bound to tk. capacity <= 0
// selects DefaultCapacity. A nil logger selects log.Default().
func NewRegistry(tk Toolkit, capacity int, logger *log.Logger) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		tk:       tk,
		entries:  make(map[CallbackKey]*callbackEntry),
		capacity: capacity,
		log:      logger,
	}
}

// SetHook binds the shared hook body the registry installs for every
// key. Bound once by the dispatcher before any registration happens.
func (r *Registry) SetHook(fn HookFunc) {
	r.hook = fn
}

// Add registers cb under (obj, kind). The first registration for a key
// creates its entry and installs the single toolkit hook for the pair;
// userData, when non-null, becomes the hook context instead of the
// object itself. A full list is a CapacityError and leaves the stored
// callbacks untouched.
func (r *Registry) Add(obj ObjPtr, kind EventKind, cb Callback, userData ObjPtr) error {
	if r.hook == nil {
		panic("uijs: registry used before its hook was bound")
	}
	key := CallbackKey{Obj: obj, Kind: kind}
	e := r.entries[key]
	if e == nil {
		hookCtx := obj
		if userData != 0 {
			hookCtx = userData
		}
		id, err := r.tk.AddHook(obj, kind, r.hook, hookCtx)
		if err != nil {
			return err
		}
		e = &callbackEntry{
			key:     key,
			hook:    id,
			hookCtx: hookCtx,
			list:    callbackList{cap: r.capacity},
		}
		r.entries[key] = e
	}
	if !e.list.push(cb) {
		return &CapacityError{Obj: obj, Kind: kind, Cap: r.capacity}
	}
	return nil
}

// Remove clears the whole entry for (obj, kind): every retained
// callback is dropped and the hook the entry installed is removed, so a
// later Add installs exactly one hook again. A missing key is a no-op.
func (r *Registry) Remove(obj ObjPtr, kind EventKind) {
	key := CallbackKey{Obj: obj, Kind: kind}
	e := r.entries[key]
	if e == nil {
		return
	}
	delete(r.entries, key)
	e.list.clear()
	if err := r.tk.RemoveHook(obj, e.hook); err != nil {
		r.log.Printf("uijs: removing hook for %#x kind %s: %v", uintptr(obj), kind, err)
	}
}

// lookup returns the live entry for key, or nil. Dispatch-path read;
// never creates.
func (r *Registry) lookup(key CallbackKey) *callbackEntry {
	return r.entries[key]
}

// PurgeObject removes every entry keyed by obj's address, dropping all
// retained callbacks. The object is gone, so its hooks died with it and
// are not individually removed. Must run on the destroy notice, before
// the native allocator can hand the address to a new object.
func (r *Registry) PurgeObject(obj ObjPtr) int {
	purged := 0
	for key, e := range r.entries {
		if key.Obj != obj {
			continue
		}
		delete(r.entries, key)
		e.list.clear()
		purged++
	}
	return purged
}

// Clear empties the registry at session teardown, removing every
// installed hook. Objects already destroyed make RemoveHook a no-op.
func (r *Registry) Clear() {
	for key, e := range r.entries {
		delete(r.entries, key)
		e.list.clear()
		_ = r.tk.RemoveHook(key.Obj, e.hook)
	}
}

// Len returns the live entry count.
func (r *Registry) Len() int {
	return len(r.entries)
}

// CountFor returns the callbacks stored under (obj, kind).
func (r *Registry) CountFor(obj ObjPtr, kind EventKind) int {
	if e := r.entries[CallbackKey{Obj: obj, Kind: kind}]; e != nil {
		return e.list.len()
	}
	return 0
}
