//go:build !windows && !ios && !android && (amd64 || arm64)

package lvtk

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uijs "github.com/appsys/uijs-go"
)

// These tests run without an LVGL library present; everything that
// would touch native symbols must fail closed.

func TestNotLoaded(t *testing.T) {
	if loaded {
		t.Skip("an LVGL library is loaded in this process")
	}
	tk := &Toolkit{}

	assert.Equal(t, uijs.ObjPtr(0), tk.ActiveScreen())

	_, err := tk.CreateObject(0)
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.ErrorIs(t, tk.DeleteObject(0x2000), ErrNotLoaded)

	_, err = tk.AddHook(0x2000, uijs.EventClicked, func(uijs.Event) {}, 0)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = tk.FontByName(uijs.NewCString("default"))
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.ErrorIs(t, tk.Fire(0x2000, uijs.EventClicked), ErrNotLoaded)

	// Hook removal only touches the Go-side table.
	assert.NoError(t, tk.RemoveHook(0x2000, 999))

	// The pump and clock are safe no-ops.
	tk.Pump()
	tk.Tick(5)
}

// stubNative swaps the hook state and the native bindings the delete
// path touches for in-process stubs, restoring everything afterwards.
// This exercises the trampoline and watch logic without a library.
func stubNative(t *testing.T, screen uintptr) {
	t.Helper()
	prevTable, prevWatched, prevNext := hookTable, watched, nextHookData
	prevScr, prevAdd, prevUserData := lvDispGetScrAct, lvObjAddEventCb, lvEventGetUserData
	hookTable = make(map[uintptr]*hookRec)
	watched = make(map[uintptr]bool)
	nextHookData = 1
	lvDispGetScrAct = func(uintptr) uintptr { return screen }
	lvObjAddEventCb = func(obj, cb uintptr, filter int32, userData uintptr) uintptr { return 0 }
	lvEventGetUserData = func(uintptr) uintptr { return 0 }
	t.Cleanup(func() {
		hookTable, watched, nextHookData = prevTable, prevWatched, prevNext
		lvDispGetScrAct, lvObjAddEventCb, lvEventGetUserData = prevScr, prevAdd, prevUserData
	})
}

// addRec registers a bridge hook record directly, bypassing AddHook's
// loaded-library checks.
func addRec(obj uintptr, filter uijs.EventKind, fn uijs.HookFunc, userData uijs.ObjPtr) uintptr {
	data := nextHookData
	nextHookData++
	hookTable[data] = &hookRec{obj: obj, filter: filter, fn: fn, userData: userData}
	return data
}

func TestObjectDeleted_ObjectHooksBeforeScreen(t *testing.T) {
	const screen, obj = uintptr(0x1000), uintptr(0x2000)
	stubNative(t, screen)

	var order []string
	ownData := addRec(obj, uijs.EventDelete, func(ev uijs.Event) {
		order = append(order, "object")
		assert.Equal(t, uijs.EventDelete, ev.Kind())
		assert.Equal(t, uijs.ObjPtr(obj), ev.Target())
	}, 0)
	addRec(obj, uijs.EventClicked, func(uijs.Event) { order = append(order, "clicked") }, 0)
	screenData := addRec(screen, uijs.EventDelete, func(ev uijs.Event) {
		order = append(order, "screen")
		assert.Equal(t, uijs.ObjPtr(obj), ev.Target())
	}, 0)
	watchObject(obj)

	objectDeleted(obj, 0x9000)

	// The dead object's own delete handler runs before the screen-level
	// notice that drives the reaper; the non-covering hook never fires.
	require.Equal(t, []string{"object", "screen"}, order)

	// Only the screen rec survives; the object's recs and its watch are
	// gone.
	require.Len(t, hookTable, 1)
	assert.NotNil(t, hookTable[screenData])
	assert.False(t, watched[obj])

	// The library still delivers its own firing to the object's delete
	// callback after the watch ran; with the table entry gone that is a
	// no-op, not a double invocation.
	lvEventGetUserData = func(uintptr) uintptr { return ownData }
	eventTrampoline(0xe0)
	assert.Equal(t, []string{"object", "screen"}, order)
}

func TestAddHook_WatchesNativeObjects(t *testing.T) {
	const screen = uintptr(0x1000)
	stubNative(t, screen)

	prevLoaded, prevValid := loaded, lvObjIsValid
	loaded = true
	lvObjIsValid = func(uintptr) bool { return true }
	t.Cleanup(func() { loaded, lvObjIsValid = prevLoaded, prevValid })

	countWatches := func() int {
		n := 0
		for _, r := range hookTable {
			if r.watch {
				n++
			}
		}
		return n
	}

	// The first hook on an object the bridge never created (here the
	// screen itself) installs its delete watch; later hooks reuse it.
	tk := &Toolkit{}
	_, err := tk.AddHook(uijs.ObjPtr(screen), uijs.EventDelete, func(uijs.Event) {}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, countWatches())
	assert.True(t, watched[screen])

	_, err = tk.AddHook(uijs.ObjPtr(screen), uijs.EventClicked, func(uijs.Event) {}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, countWatches())
}

func TestKindMapping(t *testing.T) {
	// Every bridge kind maps to a native code and back, except the
	// wildcard which only maps outward.
	for kind, code := range kindToCode {
		if kind == uijs.EventAll {
			continue
		}
		back, ok := codeToKind[code]
		require.True(t, ok, "kind %s", kind)
		assert.Equal(t, kind, back)
	}
	assert.Equal(t, int32(lvEventAll), kindToCode[uijs.EventAll])
	_, ok := codeToKind[lvEventAll]
	assert.False(t, ok)
}

func TestFormatLibraryName(t *testing.T) {
	versioned := formatLibraryName("lvgl", 8)
	plain := formatLibraryName("lvgl", 0)

	if runtime.GOOS == "darwin" {
		assert.Equal(t, "liblvgl.8.dylib", versioned)
		assert.Equal(t, "liblvgl.dylib", plain)
	} else {
		assert.Equal(t, "liblvgl.so.8", versioned)
		assert.Equal(t, "liblvgl.so", plain)
	}
}

func TestLibrarySearchPaths(t *testing.T) {
	t.Setenv("LVGL_LIBRARY_PATH", "/opt/custom/lib")

	paths := LibrarySearchPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/opt/custom/lib", paths[0])
}
