//go:build !windows && !ios && !android && (amd64 || arm64)

// Package lvtk drives a real LVGL shared library through purego, no
// cgo. It implements the bridge's toolkit contract against the v8 C
// ABI: the host process is expected to have initialized the library
// and a display before a session starts driving it.
package lvtk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrNotLoaded is returned when toolkit calls happen before Load().
var ErrNotLoaded = errors.New("lvtk: LVGL library not loaded; call lvtk.Load() first")

// ErrLibraryNotFound is returned when no LVGL shared library can be found.
var ErrLibraryNotFound = errors.New("lvtk: LVGL library not found")

var (
	libLVGL uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

// Function bindings, registered by Load. All v8 symbols.
var (
	lvDispGetScrAct func(disp uintptr) uintptr
	lvObjCreate     func(parent uintptr) uintptr
	lvObjDel        func(obj uintptr)
	lvObjIsValid    func(obj uintptr) bool

	lvObjAddEventCb                func(obj, cb uintptr, filter int32, userData uintptr) uintptr
	lvObjRemoveEventCbWithUserData func(obj, cb uintptr, userData uintptr) bool
	lvEventGetTarget               func(e uintptr) uintptr
	lvEventGetCode                 func(e uintptr) int32
	lvEventGetUserData             func(e uintptr) uintptr
	lvEventSend                    func(obj uintptr, code int32, param uintptr) uint8

	lvLabelSetText        func(obj uintptr, text *byte)
	lvLabelGetText        func(obj uintptr) uintptr
	lvObjSetPos           func(obj uintptr, x, y int16)
	lvObjSetSize          func(obj uintptr, w, h int16)
	lvSliderSetValue      func(obj uintptr, v int32, anim uint32)
	lvSliderGetValue      func(obj uintptr) int32
	lvObjAddState         func(obj uintptr, state uint16)
	lvObjClearState       func(obj uintptr, state uint16)
	lvObjSetStyleOpa      func(obj uintptr, opa uint8, selector uint32)
	lvObjSetStyleTextFont func(obj uintptr, font uintptr, selector uint32)
	lvObjAddFlag          func(obj uintptr, f uint32)
	lvObjClearFlag        func(obj uintptr, f uint32)

	lvTimerHandler func() uint32
	lvTickInc      func(ms uint32)
)

// IsLoaded reports whether the LVGL library has been loaded.
func IsLoaded() bool {
	return loaded
}

// Load finds the LVGL shared library and registers the bindings. Safe
// to call multiple times; later calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	var err error
	libLVGL, err = loadLibrary("lvgl", []int{8})
	if err != nil {
		return fmt.Errorf("loading liblvgl: %w", err)
	}

	reg := &registrar{lib: libLVGL}
	reg.bind(&lvDispGetScrAct, "lv_disp_get_scr_act")
	reg.bind(&lvObjCreate, "lv_obj_create")
	reg.bind(&lvObjDel, "lv_obj_del")
	reg.bind(&lvObjIsValid, "lv_obj_is_valid")
	reg.bind(&lvObjAddEventCb, "lv_obj_add_event_cb")
	reg.bind(&lvObjRemoveEventCbWithUserData, "lv_obj_remove_event_cb_with_user_data")
	reg.bind(&lvEventGetTarget, "lv_event_get_target")
	reg.bind(&lvEventGetCode, "lv_event_get_code")
	reg.bind(&lvEventGetUserData, "lv_event_get_user_data")
	reg.bind(&lvEventSend, "lv_event_send")
	reg.bind(&lvLabelSetText, "lv_label_set_text")
	reg.bind(&lvLabelGetText, "lv_label_get_text")
	reg.bind(&lvObjSetPos, "lv_obj_set_pos")
	reg.bind(&lvObjSetSize, "lv_obj_set_size")
	reg.bind(&lvSliderSetValue, "lv_slider_set_value")
	reg.bind(&lvSliderGetValue, "lv_slider_get_value")
	reg.bind(&lvObjAddState, "lv_obj_add_state")
	reg.bind(&lvObjClearState, "lv_obj_clear_state")
	reg.bind(&lvObjSetStyleOpa, "lv_obj_set_style_opa")
	reg.bind(&lvObjSetStyleTextFont, "lv_obj_set_style_text_font")
	reg.bind(&lvObjAddFlag, "lv_obj_add_flag")
	reg.bind(&lvObjClearFlag, "lv_obj_clear_flag")
	reg.bind(&lvTimerHandler, "lv_timer_handler")
	reg.bind(&lvTickInc, "lv_tick_inc")
	return reg.err
}

// registrar collects the first missing-symbol failure instead of
// letting purego's panic escape Load.
type registrar struct {
	lib uintptr
	err error
}

func (r *registrar) bind(fptr any, name string) {
	if r.err != nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.err = fmt.Errorf("lvtk: registering %s: %v", name, rec)
		}
	}()
	purego.RegisterLibFunc(fptr, r.lib, name)
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range versions {
			lib, err := tryOpen(filepath.Join(searchPath, formatLibraryName(name, ver)))
			if err == nil {
				return lib, nil
			}
		}
		lib, err := tryOpen(filepath.Join(searchPath, formatLibraryName(name, 0)))
		if err == nil {
			return lib, nil
		}
	}

	// Let the system resolver have a go.
	for _, ver := range versions {
		lib, err := tryOpen(formatLibraryName(name, ver))
		if err == nil {
			return lib, nil
		}
	}
	lib, err := tryOpen(formatLibraryName(name, 0))
	if err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// formatLibraryName builds the platform's shared-library file name,
// versioned when ver is non-zero.
func formatLibraryName(name string, ver int) string {
	if runtime.GOOS == "darwin" {
		if ver > 0 {
			return fmt.Sprintf("lib%s.%d.dylib", name, ver)
		}
		return fmt.Sprintf("lib%s.dylib", name)
	}
	if ver > 0 {
		return fmt.Sprintf("lib%s.so.%d", name, ver)
	}
	return fmt.Sprintf("lib%s.so", name)
}

// LibrarySearchPaths returns the directories probed for the library, in
// order. LVGL_LIBRARY_PATH takes precedence everywhere.
func LibrarySearchPaths() []string {
	var paths []string
	if p := os.Getenv("LVGL_LIBRARY_PATH"); p != "" {
		paths = append(paths, filepath.SplitList(p)...)
	}

	switch runtime.GOOS {
	case "linux":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
		)
	}

	return paths
}
