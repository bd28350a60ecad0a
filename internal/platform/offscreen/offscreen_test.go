package offscreen

import (
	"testing"

	"x11term"
	"x11term/internal/platform"
)

func TestWindowQueueAndPollEvent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if _, ok := w.PollEvent(); ok {
		t.Fatal("expected no event before QueueEvent")
	}

	w.QueueEvent(platform.Event{Kind: platform.EventKey, Key: "a"})

	ev, ok := w.PollEvent()
	if !ok {
		t.Fatal("expected queued event to be available")
	}
	if ev.Kind != platform.EventKey || ev.Key != "a" {
		t.Errorf("unexpected event: %+v", ev)
	}

	if _, ok := w.PollEvent(); ok {
		t.Error("expected event queue to be drained")
	}
}

func TestWindowSetTitleAndRequestPaste(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	w.SetTitle("hello")
	if w.Title() != "hello" {
		t.Errorf("expected title %q, got %q", "hello", w.Title())
	}

	w.RequestPaste()
	w.RequestPaste()
	if w.PasteRequests() != 2 {
		t.Errorf("expected 2 paste requests, got %d", w.PasteRequests())
	}
}

func TestWindowRedrawSizesFrame(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	g := x11term.NewGrid(x11term.Size{Cols: 10, Rows: 5})
	if err := w.Redraw(g, nil); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	frame := w.LastFrame()
	if frame == nil {
		t.Fatal("expected a frame to be recorded")
	}
	if frame.Bounds().Dx() != 10 || frame.Bounds().Dy() != 5 {
		t.Errorf("expected 10x5 frame with nil cache (1x1 cell), got %dx%d", frame.Bounds().Dx(), frame.Bounds().Dy())
	}
}

func TestPTYWriteAndReadWritten(t *testing.T) {
	p := NewPTY()
	defer p.Close()

	done := make(chan struct{})
	var n int
	var err error
	go func() {
		buf := make([]byte, 3)
		n, err = p.ReadWritten(buf)
		close(done)
	}()

	if _, werr := p.Write([]byte("abc")); werr != nil {
		t.Fatalf("Write: %v", werr)
	}
	<-done
	if err != nil {
		t.Fatalf("ReadWritten: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 bytes, got %d", n)
	}
}

func TestPTYFeedShellOutputAndRead(t *testing.T) {
	p := NewPTY()
	defer p.Close()

	done := make(chan struct{})
	buf := make([]byte, 5)
	var n int
	var err error
	go func() {
		n, err = p.Read(buf)
		close(done)
	}()

	if _, werr := p.FeedShellOutput([]byte("xyzzy")); werr != nil {
		t.Fatalf("FeedShellOutput: %v", werr)
	}
	<-done
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "xyzzy" {
		t.Errorf("expected xyzzy, got %q", string(buf[:n]))
	}
}

func TestPTYResizeRecordsCalls(t *testing.T) {
	p := NewPTY()
	defer p.Close()

	if err := p.Resize(80, 24, 0, 0); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if p.Resizes() != 1 {
		t.Errorf("expected 1 recorded resize, got %d", p.Resizes())
	}
}
