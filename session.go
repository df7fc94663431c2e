package uijs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// ErrSessionClosed reports use of a torn-down session.
var ErrSessionClosed = errors.New("uijs: session closed")

// Session owns one script engine instance bound to one toolkit: the
// registry, the dispatcher, the reaper subscription, and the installed
// function table. One session runs one application at a time; teardown
// drops every retained callback so the engine can be discarded and a
// fresh session started.
type Session struct {
	rt         *goja.Runtime
	tk         Toolkit
	reg        *Registry
	disp       *Dispatcher
	reaper     *Reaper
	reaperRoot ObjPtr
	reaperHook HookID
	logger     *log.Logger
	print      func(string)
	closed     bool
}

type sessionConfig struct {
	logger    *log.Logger
	capacity  int
	constants map[string]int64
	defs      []FuncDef
	print     func(string)
	loader    require.SourceLoader
}

// SessionOption configures NewSession.
type SessionOption func(*sessionConfig)

// WithLogger routes bridge diagnostics (dispatch failures, uncaught
// script errors) through l.
func WithLogger(l *log.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.logger = l
	}
}

// WithCapacity overrides the per-key callback list bound.
func WithCapacity(n int) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.capacity = n
	}
}

// WithConstants merges extra script-global integer constants over the
// built-in event table.
func WithConstants(consts map[string]int64) SessionOption {
	return func(cfg *sessionConfig) {
		if cfg.constants == nil {
			cfg.constants = make(map[string]int64, len(consts))
		}
		for k, v := range consts {
			cfg.constants[k] = v
		}
	}
}

// WithFuncs appends extra entry points to the installed table.
func WithFuncs(defs ...FuncDef) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.defs = append(cfg.defs, defs...)
	}
}

// WithPrint redirects the script print builtin.
func WithPrint(fn func(string)) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.print = fn
	}
}

// WithSourceLoader controls how require() resolves module paths.
func WithSourceLoader(loader require.SourceLoader) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.loader = loader
	}
}

// DirLoader returns a require() source loader rooted at dir, so an
// application package can require its own files regardless of the
// process working directory.
func DirLoader(dir string) require.SourceLoader {
	return func(path string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, path))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, require.ModuleFileDoesNotExistError
			}
			return nil, err
		}
		return data, nil
	}
}

// consolePrinter adapts the session logger to the console module.
type consolePrinter struct {
	l *log.Logger
}

func (p consolePrinter) Log(msg string)   { p.l.Println(msg) }
func (p consolePrinter) Warn(msg string)  { p.l.Println("warn:", msg) }
func (p consolePrinter) Error(msg string) { p.l.Println("error:", msg) }

// NewSession builds a session over tk: engine, registry, dispatcher,
// reaper subscription, constants, console/require, and the function
// table, in that order.
func NewSession(tk Toolkit, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{
		logger:   log.Default(),
		capacity: DefaultCapacity,
	}
	for _, fn := range opts {
		fn(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	if cfg.print == nil {
		cfg.print = func(line string) {
			fmt.Fprintln(os.Stdout, line)
		}
	}

	s := &Session{
		rt:     goja.New(),
		tk:     tk,
		logger: cfg.logger,
		print:  cfg.print,
	}
	s.reg = NewRegistry(tk, cfg.capacity, cfg.logger)
	s.disp = NewDispatcher(s.rt, s.reg, cfg.logger)
	s.reaper = NewReaper(s.reg)

	s.reaperRoot = tk.ActiveScreen()
	id, err := s.reaper.Install(tk, s.reaperRoot)
	if err != nil {
		return nil, fmt.Errorf("installing destroy-notice hook: %w", err)
	}
	s.reaperHook = id

	var registry *require.Registry
	if cfg.loader != nil {
		registry = require.NewRegistry(require.WithLoader(cfg.loader))
	} else {
		registry = require.NewRegistry()
	}
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{l: cfg.logger}))
	registry.Enable(s.rt)
	console.Enable(s.rt)

	consts := EventConstants()
	for k, v := range cfg.constants {
		consts[k] = v
	}
	for name, v := range consts {
		if err := s.rt.Set(name, v); err != nil {
			s.teardown()
			return nil, fmt.Errorf("installing constant %s: %w", name, err)
		}
	}

	table := DefaultTable()
	for _, def := range cfg.defs {
		table.Define(def)
	}
	if err := table.Install(s); err != nil {
		s.teardown()
		return nil, err
	}
	return s, nil
}

// RunOption configures one evaluation.
type RunOption func(*runConfig)

type runConfig struct {
	filename string
}

// RunFileName sets the script name used in stack traces.
func RunFileName(name string) RunOption {
	return func(cfg *runConfig) {
		cfg.filename = name
	}
}

// Eval evaluates src and returns its value. A script exception comes
// back as *Error and the session stays usable, which is what the
// interactive surface needs.
func (s *Session) Eval(src string, opts ...RunOption) (goja.Value, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	cfg := runConfig{filename: "<input>"}
	for _, fn := range opts {
		fn(&cfg)
	}
	val, err := s.rt.RunScript(cfg.filename, src)
	if err != nil {
		if scriptErr := asScriptError(err); scriptErr != nil {
			return nil, scriptErr
		}
		return nil, err
	}
	return val, nil
}

// Run evaluates a top-level application script. An uncaught exception
// is logged and the whole session torn down; the engine state after an
// aborted run is discarded by contract.
func (s *Session) Run(src string, opts ...RunOption) error {
	_, err := s.Eval(src, opts...)
	if err != nil {
		if !errors.Is(err, ErrSessionClosed) {
			s.logger.Printf("script error: %v", err)
			s.Close()
		}
		return err
	}
	return nil
}

// RunApp validates pkg and runs its main script.
func (s *Session) RunApp(pkg *Package) error {
	if err := pkg.Validate(); err != nil {
		return fmt.Errorf("invalid application package: %w", err)
	}
	main := pkg.Main
	if main == "" {
		main = "main.js"
	}
	return s.Run(pkg.MainJS, RunFileName(pkg.ID+"/"+main))
}

// Close tears the session down: every registry entry cleared and the
// destroy-notice subscription removed. Idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.teardown()
}

func (s *Session) teardown() {
	s.reg.Clear()
	// Addressed to the screen captured at install time; the active
	// screen may have changed since.
	_ = s.tk.RemoveHook(s.reaperRoot, s.reaperHook)
}

// Runtime exposes the underlying engine.
func (s *Session) Runtime() *goja.Runtime { return s.rt }

// Toolkit returns the bound toolkit.
func (s *Session) Toolkit() Toolkit { return s.tk }

// Registry returns the session's callback registry.
func (s *Session) Registry() *Registry { return s.reg }
