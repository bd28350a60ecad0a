// Package platform defines the contracts the terminal core depends on but
// does not implement directly: the window system and the pseudo-terminal
// (the font-subsystem contract is fontcache.FaceSource). A real PTY
// implementation lives alongside the interfaces; a real window
// implementation binding X11/XRender is out of scope and represented only
// by the interface plus an offscreen reference implementation under
// internal/platform/offscreen.
package platform

import (
	"image"

	"x11term"
	"x11term/internal/fontcache"
)

// EventKind tags the discriminated Event union PollEvent returns.
type EventKind int

const (
	EventNone EventKind = iota
	EventKey
	EventResize
	EventClose
	EventPasteComplete
)

// Event is one window-system occurrence (§6: "report resize and close
// events; report key events as (modifiers, key token, optional text
// bytes)").
type Event struct {
	Kind EventKind

	// EventKey
	Key  string
	Text []byte

	// EventResize
	Cols, Rows, PixelsX, PixelsY int

	// EventPasteComplete
	PasteData []byte
}

// Window is the window-system interface required from the platform
// collaborator (§6).
type Window interface {
	// FD returns a blocking file descriptor on which event arrival can be
	// multiplexed by internal/loop's poller.
	FD() int
	// PollEvent returns the next queued event without blocking, or
	// (Event{}, false) if none is pending.
	PollEvent() (Event, bool)
	// SetTitle sets the window title from a UTF-8 string.
	SetTitle(title string)
	// RequestPaste asks the window system for clipboard contents; its
	// completion later arrives as an EventPasteComplete from PollEvent.
	RequestPaste()
	// Redraw consumes a Grid and Font/Glyph Cache and composites one
	// frame onto the window surface.
	Redraw(g *x11term.Grid, cache *fontcache.Cache) error
	Close() error
}

// CursorStyleSetter is an optional capability a Window implementation may
// satisfy to learn the last DECSCUSR parameter (x11term.Interpreter.
// CursorStyle) before a Redraw, without widening the Window interface
// itself: internal/loop type-asserts for it and calls it before each
// Redraw when present.
type CursorStyleSetter interface {
	SetCursorStyle(style int)
}

// PTY is the pseudo-terminal interface required from the platform
// collaborator (§6), grounded in purfecterm/pty.go's PTY interface shape.
type PTY interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(cols, rows, pixelsX, pixelsY int) error
	FD() int
	Close() error
}

// Frame is the window-sized composite a Window.Redraw implementation
// produces before presenting it, kept here so offscreen/test
// implementations and a real XRender-backed one share a common result
// type independent of any particular presentation mechanism.
type Frame = *image.RGBA
