// Command x11term is the terminal emulator binary: it parses flags,
// opens a pseudo-terminal running the user's shell, builds the Grid,
// Font/Glyph Cache, and Window, and runs the event loop until the shell
// exits or the window closes. Display, font, and shell-open failures are
// fatal (exit 1); everything else is logged and continues from inside
// internal/loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"x11term"
	"x11term/internal/fontcache"
	"x11term/internal/loop"
	"x11term/internal/platform"
	"x11term/internal/platform/offscreen"
)

func main() {
	os.Exit(run())
}

func run() int {
	cols := flag.Int("cols", 80, "initial column count")
	rows := flag.Int("rows", 24, "initial row count")
	scrollback := flag.Int("scrollback", 10000, "scrollback row count")
	shell := flag.String("shell", defaultShell(), "shell command to run")
	fontFamily := flag.String("font", "monospace", "font family name")
	fontSize := flag.Float64("font-size", 13.0, "font point size")
	fontDir := flag.String("font-dir", "/usr/share/fonts/truetype", "directory DirFaceSource searches for font files")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "x11term: cannot start logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cache, err := fontcache.NewCache(fontcache.DirFaceSource{Dir: *fontDir}, *fontFamily, *fontSize)
	if err != nil {
		sugar.Errorw("cannot resolve regular font face", "family", *fontFamily, "error", err)
		return 1
	}
	cache.Logger = sugar

	pty, err := platform.OpenPTY(*shell, nil, *cols, *rows, 0, 0)
	if err != nil {
		sugar.Errorw("cannot open pseudo-terminal", "shell", *shell, "error", err)
		return 1
	}
	defer pty.Close()

	win, err := newWindow(*cols, *rows, cache)
	if err != nil {
		sugar.Errorw("cannot open display", "error", err)
		return 1
	}
	defer win.Close()

	g := x11term.NewGrid(x11term.Size{Cols: *cols, Rows: *rows, ScrollbackRows: *scrollback})
	l := loop.New(g, win, pty, cache)
	l.Logger = sugar

	if err := l.Run(); err != nil {
		sugar.Errorw("event loop exited with error", "error", err)
		return 1
	}
	return 0
}

func defaultShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}

// newWindow opens the window surface. No XRender/X11 binding ships with
// this binary, so it runs against the same offscreen reference Window
// used in tests; a real build swaps this for an X11-backed
// platform.Window behind the identical interface.
func newWindow(cols, rows int, cache *fontcache.Cache) (platform.Window, error) {
	return offscreen.New()
}
