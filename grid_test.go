package x11term

import "testing"

func writeString(g *Grid, s string) {
	for _, r := range s {
		g.Write(r)
	}
}

func rowString(g *Grid, row int) string {
	cells := g.GetRow(row).Snapshot()
	out := make([]rune, len(cells))
	for i, c := range cells {
		if c.Char == 0 {
			out[i] = ' '
		} else {
			out[i] = c.Char
		}
	}
	return string(out)
}

// TestGridWrapS1 is spec scenario S1: writing 13 ASCII bytes into a 10x3
// grid wraps onto a second row and leaves the cursor at (row=1, col=3).
func TestGridWrapS1(t *testing.T) {
	g := NewGrid(Size{Cols: 10, Rows: 3})
	writeString(g, "abcdefghijklm")

	if got := rowString(g, 0); got != "abcdefghij" {
		t.Errorf("row 0: got %q", got)
	}
	if got := rowString(g, 1); got != "klm       " {
		t.Errorf("row 1: got %q", got)
	}
	if got := rowString(g, 2); got != "          " {
		t.Errorf("row 2: got %q", got)
	}
	cur := g.Cursor()
	if cur.Row != 1 || cur.Col != 3 {
		t.Errorf("expected cursor at (1,3), got (%d,%d)", cur.Row, cur.Col)
	}
}

// TestGridWriteOccupancy checks §8's "occupancy is exactly L cells" property
// for an ASCII-only write sequence with no wide glyphs.
func TestGridWriteOccupancy(t *testing.T) {
	g := NewGrid(Size{Cols: 5, Rows: 4})
	input := "abcdefghijklmnopqrst" // exactly fills 4 rows of 5
	writeString(g, input)

	var got []rune
	for row := 0; row < 4; row++ {
		for _, c := range g.GetRow(row).Snapshot() {
			got = append(got, c.Char)
		}
	}
	if string(got) != input {
		t.Errorf("expected occupancy %q, got %q", input, string(got))
	}
}

func TestGridCursorStaysInBounds(t *testing.T) {
	g := NewGrid(Size{Cols: 4, Rows: 4})
	g.SetCursor(Rel(-100), Rel(-100))
	cur := g.Cursor()
	if cur.Row < 0 || cur.Row >= 4 || cur.Col < 0 || cur.Col >= 4 {
		t.Errorf("cursor out of bounds after clamped SetCursor: %+v", cur)
	}

	g.SetCursor(Rel(100), Rel(100))
	cur = g.Cursor()
	if cur.Row < 0 || cur.Row >= 4 || cur.Col < 0 || cur.Col >= 4 {
		t.Errorf("cursor out of bounds after clamped SetCursor: %+v", cur)
	}
}

func TestGridScrollbackCap(t *testing.T) {
	g := NewGrid(Size{Cols: 4, Rows: 2, ScrollbackRows: 3})
	for i := 0; i < 20; i++ {
		writeString(g, "abcd")
	}
	if g.ScrollbackLen() > 3 {
		t.Errorf("scrollback exceeded cap: %d", g.ScrollbackLen())
	}
}

// TestReflowIntoIdentity checks §8's reflowInto-is-identity property when
// source and target share a size and the cursor is within the view.
func TestReflowIntoIdentity(t *testing.T) {
	g := NewGrid(Size{Cols: 6, Rows: 3})
	writeString(g, "hello world")

	target := NewGrid(Size{Cols: 6, Rows: 3})
	g.ReflowInto(target)

	for row := 0; row < 3; row++ {
		if rowString(g, row) != rowString(target, row) {
			t.Errorf("row %d mismatch: got %q want %q", row, rowString(target, row), rowString(g, row))
		}
	}
}

func TestGridLineFeedScrollsAtMargin(t *testing.T) {
	g := NewGrid(Size{Cols: 4, Rows: 3})
	g.SetScrollMargins(0, 3)
	g.SetCursor(Abs(2), Abs(0))
	g.cellAt(0, 0).Char = 'X'
	g.LineFeed()
	if g.Cursor().Row != 2 {
		t.Errorf("expected cursor to stay at bottom margin row, got %d", g.Cursor().Row)
	}
	if g.cellAt(0, 0).Char == 'X' {
		t.Errorf("expected top row to have scrolled away")
	}
}

func TestGridBrushAccessors(t *testing.T) {
	g := NewGrid(Size{Cols: 4, Rows: 2})
	s := Style{Flags: StyleBold}
	g.SetBrush(s)
	if g.Brush().Flags != StyleBold {
		t.Errorf("expected brush to be bold")
	}
}
