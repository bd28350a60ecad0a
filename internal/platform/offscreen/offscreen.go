// Package offscreen is an in-memory reference implementation of
// internal/platform's Window and PTY interfaces, used by tests and the
// demo binary in place of a real X11/XRender window or a real spawned
// shell.
package offscreen

import (
	"image"
	"io"
	"os"

	"x11term"
	"x11term/internal/fontcache"
	"x11term/internal/platform"
	"x11term/internal/xrender"
)

// Window queues synthetic events and records the last composited frame
// instead of presenting to a real display.
type Window struct {
	title         string
	pasteRequests int
	lastFrame     *image.RGBA
	cursorStyle   int
	cursorBlinkOn bool

	renderer      *xrender.Renderer
	rendererCache *fontcache.Cache

	events []platform.Event
	r, w   *os.File
}

// New constructs an offscreen Window. The returned pipe fd becomes
// readable whenever an event is queued, so it can be handed to the same
// poller a real Window's fd would be.
func New() (*Window, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &Window{r: r, w: w, cursorBlinkOn: true}, nil
}

// SetCursorStyle records the last DECSCUSR parameter so the next Redraw's
// Composite call paints the right cursor shape (platform.CursorStyleSetter).
func (w *Window) SetCursorStyle(style int) { w.cursorStyle = style }

// QueueEvent makes e available from the next PollEvent call and marks the
// window's fd readable.
func (w *Window) QueueEvent(e platform.Event) {
	w.events = append(w.events, e)
	_, _ = w.w.Write([]byte{0})
}

func (w *Window) FD() int { return int(w.r.Fd()) }

func (w *Window) PollEvent() (platform.Event, bool) {
	if len(w.events) == 0 {
		return platform.Event{}, false
	}
	var marker [1]byte
	_, _ = w.r.Read(marker[:])
	e := w.events[0]
	w.events = w.events[1:]
	return e, true
}

func (w *Window) SetTitle(title string) { w.title = title }
func (w *Window) Title() string         { return w.title }

func (w *Window) RequestPaste()      { w.pasteRequests++ }
func (w *Window) PasteRequests() int { return w.pasteRequests }

// Redraw composites g through internal/xrender.Renderer when cache is
// non-nil, same as a real X11/XRender-backed Window would; with a nil
// cache (a test exercising only size bookkeeping) it falls back to a
// blank grid-sized frame.
func (w *Window) Redraw(g *x11term.Grid, cache *fontcache.Cache) error {
	if cache == nil {
		size := g.Size()
		w.lastFrame = image.NewRGBA(image.Rect(0, 0, size.Cols, size.Rows))
		return nil
	}
	if w.renderer == nil || w.rendererCache != cache {
		w.renderer = xrender.New(cache)
		w.rendererCache = cache
	}
	opts := xrender.Options{
		CursorVisible: g.PrivateMode(x11term.ModeCursorVisible),
		CursorStyle:   w.cursorStyle,
		CursorBlinkOn: w.cursorBlinkOn,
	}
	w.lastFrame = w.renderer.Composite(g, opts)
	return nil
}

func (w *Window) LastFrame() *image.RGBA { return w.lastFrame }

func (w *Window) Close() error {
	_ = w.r.Close()
	return w.w.Close()
}

// PTY is an in-memory pseudo-terminal double: Write sends to an internal
// pipe a test can read from (ReadWritten) to see what would have reached
// the shell, and FeedShellOutput injects bytes a test wants Read to
// return (as if the shell had produced them).
type PTY struct {
	in     *io.PipeReader
	inW    *io.PipeWriter
	out    *io.PipeReader
	outW   *io.PipeWriter
	resize []resizeCall
}

type resizeCall struct{ Cols, Rows, PixelsX, PixelsY int }

func NewPTY() *PTY {
	in, inW := io.Pipe()
	out, outW := io.Pipe()
	return &PTY{in: in, inW: inW, out: out, outW: outW}
}

func (p *PTY) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *PTY) Write(b []byte) (int, error) { return p.outW.Write(b) }

// FeedShellOutput simulates the shell producing output for the core to
// read.
func (p *PTY) FeedShellOutput(b []byte) (int, error) { return p.inW.Write(b) }

// ReadWritten reads bytes the core wrote to the shell.
func (p *PTY) ReadWritten(b []byte) (int, error) { return p.out.Read(b) }

func (p *PTY) Resize(cols, rows, pixelsX, pixelsY int) error {
	p.resize = append(p.resize, resizeCall{cols, rows, pixelsX, pixelsY})
	return nil
}

func (p *PTY) Resizes() int { return len(p.resize) }

// FD returns -1: this double isn't backed by a real descriptor, so tests
// exercising it drive Feed directly instead of going through a poller.
func (p *PTY) FD() int { return -1 }

func (p *PTY) Close() error {
	_ = p.inW.Close()
	_ = p.outW.Close()
	return nil
}
