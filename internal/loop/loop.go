// Package loop runs the single cooperative thread that multiplexes the
// display connection and the shell PTY: no background workers, no locks,
// the Grid mutated only from this thread.
package loop

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"

	"x11term"
	"x11term/internal/fontcache"
	"x11term/internal/platform"
)

const (
	minReadBuf  = 4096
	maxReadBuf  = 4 * 1024 * 1024
	highFreqN   = 10
	redrawDelay = 40 * time.Millisecond
)

// Logger is the minimal interface this package depends on (shared shape
// with x11term.Logger / fontcache.Logger so a single *zap.SugaredLogger
// satisfies all three without this package importing zap).
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// Loop owns the Grid, Interpreter, cache, and the two
// collaborators (Window, PTY) for the lifetime of one terminal window.
type Loop struct {
	Grid   *x11term.Grid
	Interp *x11term.Interpreter
	Cache  *fontcache.Cache
	Win    platform.Window
	PTY    platform.PTY
	Logger Logger

	readBuf       []byte
	largestRead   int
	writeQueue    []byte
	pendingResize *platform.Event

	dirty          bool
	lastRedraw     time.Time
	fastWaitStreak int
}

// New constructs a Loop ready to Run.
func New(g *x11term.Grid, win platform.Window, pty platform.PTY, cache *fontcache.Cache) *Loop {
	return &Loop{
		Grid:        g,
		Interp:      x11term.NewInterpreter(g),
		Cache:       cache,
		Win:         win,
		PTY:         pty,
		readBuf:     make([]byte, minReadBuf),
		largestRead: minReadBuf,
	}
}

// Run executes iterations until the shell hangs up, the window is closed,
// or Shift+Escape fires.
func (l *Loop) Run() error {
	l.Interp.Logger = loggerAdapter{l.Logger}
	for {
		done, err := l.iterate()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// loggerAdapter lets a possibly-nil loop.Logger satisfy x11term.Logger
// without a nil-interface trap (a nil *zap.SugaredLogger assigned to an
// interface field is non-nil and would panic on call).
type loggerAdapter struct{ l Logger }

func (a loggerAdapter) Warnw(msg string, kv ...interface{}) {
	if a.l != nil {
		a.l.Warnw(msg, kv...)
	}
}

// iterate runs one pass of the loop: poll the display for already-pending
// events, wait on display/shell readiness, drain display events, flush
// queued writes, apply at most one coalesced resize, read shell output,
// and throttle-redraw. Returns done=true once the shell or window signal
// termination.
func (l *Loop) iterate() (done bool, err error) {
	timeout := l.waitTimeout()

	hasDisplayEvent := l.pollDisplayOnce()
	if !hasDisplayEvent {
		if err := l.wait(timeout); err != nil {
			return false, err
		}
	}

	for {
		ev, ok := l.Win.PollEvent()
		if !ok {
			break
		}
		if closed := l.handleEvent(ev); closed {
			return true, nil
		}
	}

	hangup, err := l.flushWrites()
	if err != nil {
		return false, err
	}
	if hangup {
		return true, nil
	}

	if l.pendingResize != nil {
		l.applyResize(*l.pendingResize)
		l.pendingResize = nil
	}

	n, readErr := l.PTY.Read(l.readBuf)
	if n > 0 {
		if n > l.largestRead {
			l.largestRead = n
		}
		l.Interp.Feed(l.readBuf[:n])
		l.drainInterpreterWrites()
		l.dirty = true
		l.growReadBuf()
	}
	if readErr != nil {
		if isWouldBlock(readErr) {
			// spurious wakeup or nothing currently available; not an error.
		} else if isHangup(readErr) {
			return true, nil
		} else {
			return false, readErr
		}
	}

	l.maybeRedraw()
	return false, nil
}

// drainInterpreterWrites moves any bytes the Interpreter queued (shell
// replies, e.g. to a DSR/DA request) onto this loop's own write queue.
func (l *Loop) drainInterpreterWrites() {
	if len(l.Interp.WriteQueue) == 0 {
		return
	}
	l.writeQueue = append(l.writeQueue, l.Interp.WriteQueue...)
	l.Interp.WriteQueue = l.Interp.WriteQueue[:0]
}

// growReadBuf resizes the read buffer toward min(2*largestRead, 4MiB).
func (l *Loop) growReadBuf() {
	want := l.largestRead * 2
	if want > maxReadBuf {
		want = maxReadBuf
	}
	if want > len(l.readBuf) {
		l.readBuf = make([]byte, want)
	}
}

// waitTimeout computes the current wait duration: infinite (-1, meaning
// "block") normally, or time-until-next-allowed-redraw (0 once that time
// has passed) while in the high-frequency regime with a dirty Grid.
func (l *Loop) waitTimeout() time.Duration {
	if l.dirty && l.fastWaitStreak > highFreqN {
		remaining := redrawDelay - time.Since(l.lastRedraw)
		if remaining > 0 {
			return remaining
		}
		return 0
	}
	return -1 // block indefinitely
}

// pollDisplayOnce reports whether the display already has a pending event
// without blocking, letting the caller skip the blocking waiter entirely.
func (l *Loop) pollDisplayOnce() bool {
	pfd := []unix.PollFd{{Fd: int32(l.Win.FD()), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, 0)
	return err == nil && n > 0 && pfd[0].Revents&unix.POLLIN != 0
}

// wait blocks on {display readable, shell readable, shell writable if the
// out-queue is non-empty} for up to timeout (negative means block
// indefinitely), tracking the high-frequency streak used by the
// redraw-throttling rule in maybeRedraw.
func (l *Loop) wait(timeout time.Duration) error {
	start := time.Now()

	shellEvents := int16(unix.POLLIN)
	if len(l.writeQueue) > 0 {
		shellEvents |= unix.POLLOUT
	}
	pfds := []unix.PollFd{
		{Fd: int32(l.Win.FD()), Events: unix.POLLIN},
		{Fd: int32(l.PTY.FD()), Events: shellEvents},
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	_, err := unix.Poll(pfds, ms)
	if err != nil && !errors.Is(err, unix.EINTR) {
		return err
	}

	elapsed := time.Since(start)
	if elapsed < time.Millisecond {
		l.fastWaitStreak++
	} else {
		l.fastWaitStreak = 0
	}
	return nil
}

// handleEvent processes one platform.Event, returning true if it means the
// loop should terminate.
func (l *Loop) handleEvent(ev platform.Event) bool {
	switch ev.Kind {
	case platform.EventKey:
		action := l.Interp.HandleKey(ev.Key, ev.Text)
		l.drainInterpreterWrites()
		if action == x11term.ActionCloseWindow {
			return true
		}
		l.applyShortcut(action)
	case platform.EventResize:
		// Coalesce: only the most recent resize in a batch survives, and
		// it is applied once per iteration.
		e := ev
		l.pendingResize = &e
	case platform.EventClose:
		return true
	case platform.EventPasteComplete:
		l.Interp.Paste(ev.PasteData)
		l.drainInterpreterWrites()
	}
	return false
}

func (l *Loop) applyShortcut(action x11term.ShortcutAction) {
	switch action {
	case x11term.ActionRequestPaste:
		l.Win.RequestPaste()
	case x11term.ActionIncreaseFontSize, x11term.ActionDecreaseFontSize:
		// The shortcut is matched and its key text suppressed, but the
		// point size is not changed: Cache.SetSize is not called here or
		// anywhere else, so the font keeps its startup size.
	}
}

// applyResize builds a new Grid at the event's size, reflows the old one
// into it, and informs the PTY.
func (l *Loop) applyResize(ev platform.Event) {
	old := l.Grid
	size := old.Size()
	size.Cols, size.Rows = ev.Cols, ev.Rows
	next := x11term.NewGrid(size)
	old.ReflowInto(next)
	l.Grid = next
	l.Interp.Grid = next
	if err := l.PTY.Resize(ev.Cols, ev.Rows, ev.PixelsX, ev.PixelsY); err != nil {
		l.warnf("resize pty failed: %v", err)
	}
	l.dirty = true
}

// flushWrites drains the write queue into the shell until short-write or
// would-block. A zero-byte write with no error is treated as a
// would-block signal from a non-blocking fd.
func (l *Loop) flushWrites() (hangup bool, err error) {
	for len(l.writeQueue) > 0 {
		n, werr := l.PTY.Write(l.writeQueue)
		if n > 0 {
			l.writeQueue = l.writeQueue[n:]
		}
		if werr != nil {
			if isHangup(werr) {
				return true, nil
			}
			if isWouldBlock(werr) {
				return false, nil
			}
			return false, werr
		}
		if n == 0 {
			return false, nil
		}
	}
	return false, nil
}

// maybeRedraw redraws immediately unless the loop is in a sustained
// high-frequency wait streak, in which case redraws are throttled to at
// most once per redrawDelay.
func (l *Loop) maybeRedraw() {
	if !l.dirty {
		return
	}
	if l.fastWaitStreak > highFreqN && time.Since(l.lastRedraw) < redrawDelay {
		return
	}
	l.redraw()
}

func (l *Loop) redraw() {
	if setter, ok := l.Win.(platform.CursorStyleSetter); ok {
		setter.SetCursorStyle(l.Interp.CursorStyle)
	}
	if err := l.Win.Redraw(l.Grid, l.Cache); err != nil {
		l.warnf("redraw failed: %v", err)
	}
	l.dirty = false
	l.lastRedraw = time.Now()
}

func (l *Loop) warnf(format string, args ...interface{}) {
	if l.Logger == nil {
		return
	}
	l.Logger.Warnw(fmt.Sprintf(format, args...))
}

// isWouldBlock reports whether err indicates no data was currently
// available on a non-blocking fd rather than a real failure.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// isHangup reports whether err indicates the peer end of the PTY closed
// (shell exited), which ends the session.
func isHangup(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, unix.EIO)
}
