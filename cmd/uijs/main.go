package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dop251/goja"
	"github.com/peterh/liner"

	uijs "github.com/appsys/uijs-go"
	"github.com/appsys/uijs-go/simtk"
)

const (
	appName     = "uijs"
	historyFile = ".uijs_history"
	prompt      = "uijs> "
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(uijs.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`uijs %s

Usage:
  %s run [-toolkit sim|lvgl] [-wait] <file.js | app-dir>   Run a script or application package.
  %s repl [-toolkit sim|lvgl]                              Start an interactive session.
  %s version                                               Print the version.

The sim toolkit drives an in-memory object graph and installs
fireEvent(obj, kind) and pump() for poking it. The lvgl toolkit drives
a real LVGL shared library; the host process must have initialized the
library and a display.
`, uijs.Version, appName, appName, appName)
}

// newSession builds a session over the chosen toolkit backend.
func newSession(toolkit string, opts []uijs.SessionOption) (*uijs.Session, error) {
	switch toolkit {
	case "sim":
		sim := simtk.New()
		opts = append(opts, uijs.WithFuncs(simFuncs(sim)...))
		return uijs.NewSession(sim, opts...)
	case "lvgl":
		tk, err := newLVGLToolkit()
		if err != nil {
			return nil, err
		}
		return uijs.NewSession(tk, opts...)
	default:
		return nil, fmt.Errorf("unknown toolkit %q (want sim or lvgl)", toolkit)
	}
}

// simFuncs are the extra entry points the sim backend exposes so script
// code and the REPL can drive the object graph.
func simFuncs(sim *simtk.Toolkit) []uijs.FuncDef {
	return []uijs.FuncDef{
		{
			Name:     "fireEvent",
			Args:     []uijs.ArgKind{uijs.ArgWidget, uijs.ArgInt32},
			Required: 2,
			Fn: func(c *uijs.Call) goja.Value {
				if err := sim.Fire(c.Ptr(0), uijs.EventKind(c.Int32(1))); err != nil {
					c.Throw(err)
				}
				return goja.Undefined()
			},
		},
		{
			Name: "pump",
			Fn: func(c *uijs.Call) goja.Value {
				sim.Pump()
				return goja.Undefined()
			},
		},
	}
}

func pumpOnce(tk uijs.Toolkit) {
	if p, ok := tk.(interface{ Pump() }); ok {
		p.Pump()
	}
}

// waitLoop keeps the toolkit's event delivery alive until the process
// is interrupted. Backends without a clock still get pumped.
func waitLoop(tk uijs.Toolkit) {
	p, hasPump := tk.(interface{ Pump() })
	tick, hasTick := tk.(interface{ Tick(ms uint32) })

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)

	if !hasPump {
		<-sigc
		return
	}
	for {
		select {
		case <-sigc:
			return
		case <-time.After(5 * time.Millisecond):
			if hasTick {
				tick.Tick(5)
			}
			p.Pump()
		}
	}
}

// ----------------------------------------------------------------------------
// run
// ----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	toolkit := fs.String("toolkit", "sim", "toolkit backend: sim or lvgl")
	wait := fs.Bool("wait", false, "keep pumping events after the script returns")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-toolkit sim|lvgl] [-wait] <file.js | app-dir>\n", appName)
		return 2
	}
	target := fs.Arg(0)

	info, err := os.Stat(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, target, err)
		return 1
	}

	var (
		opts []uijs.SessionOption
		pkg  *uijs.Package
		src  string
		name string
	)
	if info.IsDir() {
		pkg, err = uijs.LoadPackage(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		opts = append(opts, uijs.WithSourceLoader(uijs.DirLoader(pkg.Dir)))
	} else {
		data, err := os.ReadFile(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, target, err)
			return 1
		}
		src, name = string(data), filepath.Base(target)
		opts = append(opts, uijs.WithSourceLoader(uijs.DirLoader(filepath.Dir(target))))
	}

	s, err := newSession(*toolkit, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer s.Close()

	if pkg != nil {
		err = s.RunApp(pkg)
	} else {
		err = s.Run(src, uijs.RunFileName(name))
	}
	if err != nil {
		// Run already logged the failure and tore the session down.
		return 1
	}

	pumpOnce(s.Toolkit())
	if *wait {
		waitLoop(s.Toolkit())
	}
	return 0
}

// ----------------------------------------------------------------------------
// repl
// ----------------------------------------------------------------------------

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	toolkit := fs.String("toolkit", "sim", "toolkit backend: sim or lvgl")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Printf("uijs %s interactive session (%s toolkit)\n", uijs.Version, *toolkit)
	fmt.Println("Ctrl+C cancels input, Ctrl+D exits. Type :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s, err := newSession(*toolkit, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer s.Close()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}

		switch line {
		case "":
			continue
		case ":quit":
			return 0
		}
		if line[0] == ':' {
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		v, err := s.Eval(line, uijs.RunFileName("<repl>"))
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			ln.AppendHistory(line)
			continue
		}
		if v != nil && !goja.IsUndefined(v) {
			fmt.Println(v.String())
		}
		ln.AppendHistory(line)
		pumpOnce(s.Toolkit())
	}
}
