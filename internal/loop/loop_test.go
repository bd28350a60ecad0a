package loop

import (
	"testing"
	"time"

	"x11term"
	"x11term/internal/platform"
	"x11term/internal/platform/offscreen"
)

func newTestLoop(t *testing.T) (*Loop, *offscreen.Window, *offscreen.PTY) {
	t.Helper()
	win, err := offscreen.New()
	if err != nil {
		t.Fatalf("offscreen.New: %v", err)
	}
	pty := offscreen.NewPTY()
	g := x11term.NewGrid(x11term.Size{Cols: 10, Rows: 3})
	l := New(g, win, pty, nil)
	return l, win, pty
}

func TestGrowReadBufTowardsDoubleLargestCapped(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.largestRead = minReadBuf * 4
	l.growReadBuf()
	if len(l.readBuf) < minReadBuf*4 {
		t.Errorf("expected readBuf to grow to at least %d, got %d", minReadBuf*4, len(l.readBuf))
	}

	l.largestRead = maxReadBuf * 10
	l.growReadBuf()
	if len(l.readBuf) != maxReadBuf {
		t.Errorf("expected readBuf capped at %d, got %d", maxReadBuf, len(l.readBuf))
	}
}

func TestWaitTimeoutBlocksWhenNotDirty(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	if got := l.waitTimeout(); got != -1 {
		t.Errorf("expected indefinite block (-1) when not dirty, got %v", got)
	}
}

func TestWaitTimeoutThrottlesInHighFrequencyRegime(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.dirty = true
	l.fastWaitStreak = highFreqN + 1
	l.lastRedraw = time.Now()

	got := l.waitTimeout()
	if got <= 0 || got > redrawDelay {
		t.Errorf("expected a positive deferred-redraw timeout <= %v, got %v", redrawDelay, got)
	}
}

func TestDrainInterpreterWritesMovesQueue(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.Interp.WriteQueue = append(l.Interp.WriteQueue, []byte("hi")...)
	l.drainInterpreterWrites()

	if string(l.writeQueue) != "hi" {
		t.Errorf("expected loop write queue %q, got %q", "hi", string(l.writeQueue))
	}
	if len(l.Interp.WriteQueue) != 0 {
		t.Errorf("expected interpreter write queue drained, got %q", string(l.Interp.WriteQueue))
	}
}

func TestApplyResizeReflowsAndResizesPTY(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.Interp.Feed([]byte("hello"))

	l.applyResize(platform.Event{Kind: platform.EventResize, Cols: 20, Rows: 6})

	if l.Grid.Size().Cols != 20 || l.Grid.Size().Rows != 6 {
		t.Errorf("expected grid resized to 20x6, got %+v", l.Grid.Size())
	}
	if l.Interp.Grid != l.Grid {
		t.Error("expected interpreter to be repointed at the new grid")
	}
	if pty.Resizes() != 1 {
		t.Errorf("expected pty to be resized once, got %d", pty.Resizes())
	}
	if !l.dirty {
		t.Error("expected resize to mark the loop dirty")
	}
}

func TestFlushWritesDrainsQueue(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.writeQueue = []byte("abc")

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		n, _ := pty.ReadWritten(buf)
		done <- buf[:n]
	}()

	hangup, err := l.flushWrites()
	if err != nil {
		t.Fatalf("flushWrites: %v", err)
	}
	if hangup {
		t.Fatal("did not expect hangup")
	}
	if got := <-done; string(got) != "abc" {
		t.Errorf("expected shell to receive %q, got %q", "abc", string(got))
	}
	if len(l.writeQueue) != 0 {
		t.Errorf("expected write queue drained, got %q", string(l.writeQueue))
	}
}

func TestHandleEventCloseTerminates(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	if closed := l.handleEvent(platform.Event{Kind: platform.EventClose}); !closed {
		t.Error("expected EventClose to terminate the loop")
	}
}

func TestHandleEventResizeCoalesces(t *testing.T) {
	l, win, pty := newTestLoop(t)
	defer win.Close()
	defer pty.Close()

	l.handleEvent(platform.Event{Kind: platform.EventResize, Cols: 5, Rows: 5})
	l.handleEvent(platform.Event{Kind: platform.EventResize, Cols: 30, Rows: 10})

	if l.pendingResize == nil || l.pendingResize.Cols != 30 {
		t.Errorf("expected latest resize (30) to win, got %+v", l.pendingResize)
	}
}
