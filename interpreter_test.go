package x11term

import "testing"

func TestInterpreterPrintableText(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.Feed([]byte("hello"))

	if got := rowString(g, 0); got[:5] != "hello" {
		t.Errorf("expected row to start with hello, got %q", got)
	}
}

func TestInterpreterIncompleteSequenceSurvivesAcrossFeeds(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)

	in.Feed([]byte("\x1b[3")) // split mid-CSI: "31m" never completes this call
	in.Feed([]byte("1mX"))    // the rest arrives on the next read

	if got := rowString(g, 0); got[0] != 'X' {
		t.Errorf("expected 'X' written after split CSI reassembled, got %q", got)
	}
	fg, truecolor := g.Brush().ResolveFg()
	if truecolor || fg.Kind != ColorIndexed || fg.Index != 1 {
		t.Errorf("expected brush fg indexed(1) after SGR 31, got %+v truecolor=%v", fg, truecolor)
	}
}

func TestInterpreterSGRReset(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.Feed([]byte("\x1b[1;31m"))
	if !g.Brush().Flags.Has(StyleBold) {
		t.Fatal("expected bold after SGR 1")
	}
	in.Feed([]byte("\x1b[0m"))
	if g.Brush().Flags.Has(StyleBold) {
		t.Error("expected SGR 0 to clear bold")
	}
}

func TestInterpreterExtendedTruecolor(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.Feed([]byte("\x1b[38;2;10;20;30mA"))

	fg, truecolor := g.GetRow(0).Cell(0).Style.ResolveFg()
	if !truecolor {
		t.Fatal("expected truecolor fg flag set")
	}
	if fg.R != 10 || fg.G != 20 || fg.B != 30 {
		t.Errorf("expected rgb(10,20,30), got %+v", fg)
	}
}

func TestInterpreterCursorMotion(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 5})
	in := NewInterpreter(g)
	in.Feed([]byte("\x1b[3;4H"))
	cur := g.Cursor()
	if cur.Row != 2 || cur.Col != 3 {
		t.Errorf("expected cursor at (2,3) after CSI 3;4H, got (%d,%d)", cur.Row, cur.Col)
	}
}

func TestInterpreterOSCSetTitle(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	var title string
	in.OnSetTitle = func(s string) { title = s }
	in.Feed([]byte("\x1b]0;my title\x07"))
	if title != "my title" {
		t.Errorf("expected title %q, got %q", "my title", title)
	}
}

func TestInterpreterHyperlink(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.Feed([]byte("\x1b]8;id=1;https://example.com\x07link\x1b]8;;\x07plain"))

	linked := g.GetRow(0).Cell(0)
	if linked.Hyperlink == nil || linked.Hyperlink.URI != "https://example.com" || linked.Hyperlink.ID != "id=1" {
		t.Fatalf("expected linked cell to carry the hyperlink, got %+v", linked.Hyperlink)
	}
	plain := g.GetRow(0).Cell(4)
	if plain.Hyperlink != nil {
		t.Errorf("expected cell after closing OSC 8 to carry no hyperlink, got %+v", plain.Hyperlink)
	}
}

func TestInterpreterBell(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	rang := false
	in.OnBell = func() { rang = true }
	in.Feed([]byte{0x07})
	if !rang {
		t.Error("expected bell callback to fire")
	}
}

func TestHandleKeyShortcut(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	action := in.HandleKey("S-Escape", nil)
	if action != ActionCloseWindow {
		t.Errorf("expected ActionCloseWindow, got %v", action)
	}
}

func TestHandleKeyPassthrough(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.HandleKey("a", []byte("a"))
	if string(in.WriteQueue) != "a" {
		t.Errorf("expected write queue %q, got %q", "a", string(in.WriteQueue))
	}
}

func TestInterpreterPasteBracketed(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	in := NewInterpreter(g)
	in.Feed([]byte("\x1b[?2004h"))
	in.Paste([]byte("xyz"))
	want := "\x1b[200~xyz\x1b[201~"
	if string(in.WriteQueue) != want {
		t.Errorf("expected bracketed paste %q, got %q", want, string(in.WriteQueue))
	}
}
