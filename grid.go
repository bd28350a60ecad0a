package x11term

import "fmt"

// Size describes a Grid's dimensions: the visible view plus how many extra
// rows of scrollback history it retains.
type Size struct {
	Cols           int
	Rows           int
	ScrollbackRows int
}

// PrivateMode is a numerically coded boolean terminal setting.
type PrivateMode int

const (
	ModeCursorVisible  PrivateMode = 25
	ModeAltScreen      PrivateMode = 1049
	ModeBracketedPaste PrivateMode = 2004
)

// EraseRange selects which part of a line or display an erase operation
// covers.
type EraseRange int

const (
	EraseToEnd EraseRange = iota
	EraseToStart
	EraseAll
)

// InsertAnchor selects where InsertBlankLines starts shifting from.
type InsertAnchor int

const (
	InsertAtTop InsertAnchor = iota
	InsertAtCursor
)

// Axis is one coordinate of a SetCursor request: either an absolute
// position or a signed offset from the current position.
type Axis struct {
	Value    int
	Relative bool
}

// Abs returns an absolute Axis.
func Abs(v int) Axis { return Axis{Value: v} }

// Rel returns a relative Axis.
func Rel(delta int) Axis { return Axis{Value: delta, Relative: true} }

// Cursor tracks the write position, current brush (applied to newly written
// cells), and the "anchored" bit that lets reflow rejoin a logical line even
// after the cursor has moved away and back.
type Cursor struct {
	Row, Col  int
	Brush     Style
	Hyperlink *Hyperlink
	Anchored  bool
}

// RowHandle is a lightweight reference to one logical row of a Grid. It
// avoids handing out a raw slice whose backing storage is reused by the
// ring on the next scroll, while still allowing O(1) column access.
type RowHandle struct {
	g          *Grid
	backingRow int
}

// Cell returns a pointer to the cell at the given column of this row.
// Panics if col is out of [0, Cols).
func (h RowHandle) Cell(col int) *Cell {
	if col < 0 || col >= h.g.size.Cols {
		panic(fmt.Sprintf("x11term: column %d out of range [0,%d)", col, h.g.size.Cols))
	}
	return &h.g.cells[h.backingRow*h.g.size.Cols+col]
}

// Snapshot copies this row's cells into a fresh slice the caller may hold
// across further Grid mutations.
func (h RowHandle) Snapshot() []Cell {
	start := h.backingRow * h.g.size.Cols
	out := make([]Cell, h.g.size.Cols)
	copy(out, h.g.cells[start:start+h.g.size.Cols])
	return out
}

// Grid is the ring-buffered cell matrix: a contiguous backing store of
// cols*(rows+scrollbackRows) cells addressed modulo its total row count, a
// cursor, scroll margins, and a set of active private modes.
type Grid struct {
	size Size

	cells    []Cell
	rowStart int
	sbRows   int // scrollback_row_count

	cursor Cursor
	modes  map[PrivateMode]bool

	marginTop int // inclusive
	marginBot int // exclusive
}

// NewGrid constructs a Grid of the given size, all cells empty, cursor at
// (0,0), full-height scroll margins, and cursor visibility (mode 25) as the
// only active private mode.
func NewGrid(size Size) *Grid {
	if size.Cols < 1 {
		size.Cols = 1
	}
	if size.Rows < 1 {
		size.Rows = 1
	}
	if size.ScrollbackRows < 0 {
		size.ScrollbackRows = 0
	}
	total := size.Rows + size.ScrollbackRows
	g := &Grid{
		size:      size,
		cells:     make([]Cell, size.Cols*total),
		modes:     make(map[PrivateMode]bool),
		marginTop: 0,
		marginBot: size.Rows,
	}
	g.modes[ModeCursorVisible] = true
	return g
}

// Size returns the grid's current dimensions.
func (g *Grid) Size() Size { return g.size }

// Cursor returns a copy of the current cursor state.
func (g *Grid) Cursor() Cursor { return g.cursor }

func (g *Grid) totalRows() int { return g.size.Rows + g.size.ScrollbackRows }

// backingRow maps a logical row r (r in [-sbRows, rows)) to its index in the
// ring's backing storage.
func (g *Grid) backingRow(r int) int {
	total := g.totalRows()
	idx := (g.rowStart + r) % total
	if idx < 0 {
		idx += total
	}
	return idx
}

// GetRow returns a handle to the given logical row, where 0 is the top of
// the view and negative values reach into scrollback.
func (g *Grid) GetRow(relRow int) RowHandle {
	return RowHandle{g: g, backingRow: g.backingRow(relRow)}
}

func (g *Grid) cellAt(row, col int) *Cell {
	return &g.cells[g.backingRow(row)*g.size.Cols+col]
}

// ScrollbackLen returns how many rows of scrollback are currently retained.
func (g *Grid) ScrollbackLen() int { return g.sbRows }

// SetPrivateMode enables or disables a numerically coded private mode.
func (g *Grid) SetPrivateMode(m PrivateMode, on bool) {
	g.modes[m] = on
}

// PrivateMode reports whether the given mode is currently active.
func (g *Grid) PrivateMode(m PrivateMode) bool {
	return g.modes[m]
}

// SetScrollMargins sets the scroll region, 0-based, [top, bot). A bot of 0
// or >= rows means "bottom of view".
func (g *Grid) SetScrollMargins(top, bot int) {
	if top < 0 {
		top = 0
	}
	if bot <= 0 || bot > g.size.Rows {
		bot = g.size.Rows
	}
	if top >= bot {
		top = 0
		bot = g.size.Rows
	}
	g.marginTop = top
	g.marginBot = bot
}

// clearRange blanks cells [fromCol, toCol) of logical row in place.
func (g *Grid) clearRange(row, fromCol, toCol int) {
	for c := fromCol; c < toCol; c++ {
		*g.cellAt(row, c) = EmptyCell
	}
}

// clearRow blanks an entire logical row.
func (g *Grid) clearRow(row int) {
	g.clearRange(row, 0, g.size.Cols)
}

// --- Cursor motion -----------------------------------------------------

// SetCursor updates the cursor position per-axis, absolute or relative,
// clamped to [0,cols) x [0,rows). Never scrolls; always clears Anchored.
func (g *Grid) SetCursor(row, col Axis) {
	newRow := g.cursor.Row
	if row.Relative {
		newRow += row.Value
	} else {
		newRow = row.Value
	}
	newCol := g.cursor.Col
	if col.Relative {
		newCol += col.Value
	} else {
		newCol = col.Value
	}
	g.cursor.Row = clamp(newRow, 0, g.size.Rows-1)
	g.cursor.Col = clamp(newCol, 0, g.size.Cols-1)
	g.cursor.Anchored = false
}

// Brush returns the style newly written cells currently inherit.
func (g *Grid) Brush() Style { return g.cursor.Brush }

// SetBrush replaces the style newly written cells will inherit, without
// otherwise touching cursor position or the anchored bit.
func (g *Grid) SetBrush(s Style) { g.cursor.Brush = s }

// ActiveHyperlink returns the hyperlink newly written cells currently
// inherit, or nil if none is active.
func (g *Grid) ActiveHyperlink() *Hyperlink { return g.cursor.Hyperlink }

// SetHyperlink replaces the hyperlink newly written cells will inherit
// (OSC 8); pass nil to close the current link.
func (g *Grid) SetHyperlink(h *Hyperlink) { g.cursor.Hyperlink = h }

// LineFeed advances the cursor down one row, scrolling the scroll-margin
// region up when the cursor sits on the bottom margin (the control-code
// effect of LF / ESC D "index"). When the margins span the whole view this
// is the overflow scroll, so the top row moves into scrollback.
func (g *Grid) LineFeed() {
	if g.cursor.Row == g.marginBot-1 {
		if g.marginTop == 0 && g.marginBot == g.size.Rows {
			g.scrollViewUp(1)
			return
		}
		g.ScrollUp(g.marginTop, g.marginBot, 1)
		return
	}
	if g.cursor.Row < g.size.Rows-1 {
		g.cursor.Row++
	}
}

// ReverseLineFeed moves the cursor up one row, scrolling the scroll-margin
// region down when the cursor sits on the top margin (the control-code
// effect of ESC M "reverse_index").
func (g *Grid) ReverseLineFeed() {
	if g.cursor.Row == g.marginTop {
		g.ScrollDown(g.marginTop, g.marginBot, 1)
		return
	}
	if g.cursor.Row > 0 {
		g.cursor.Row--
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scrollViewUp advances row_start by n (mod total rows), grows scrollback
// up to its cap, and clears the newly exposed bottom rows. This is the
// scrolling-on-overflow mechanism, also reused by scroll-region commands
// operating on the full view.
func (g *Grid) scrollViewUp(n int) {
	if n <= 0 {
		return
	}
	total := g.totalRows()
	if n > total {
		n = total
	}
	g.rowStart = (g.rowStart + n) % total
	g.sbRows += n
	if g.sbRows > g.size.ScrollbackRows {
		g.sbRows = g.size.ScrollbackRows
	}
	for i := 0; i < n; i++ {
		g.clearRow(g.size.Rows - n + i)
	}
}

// ScrollUp shifts rows [top,bot) up by n within the scroll margins,
// clearing the exposed bottom rows of that range. Unlike the full-view
// overflow scroll, margin-bounded scrolling never touches scrollback.
func (g *Grid) ScrollUp(top, bot, n int) {
	if n <= 0 || top >= bot {
		return
	}
	if n > bot-top {
		n = bot - top
	}
	for row := top; row < bot-n; row++ {
		g.copyRow(row+n, row)
	}
	for row := bot - n; row < bot; row++ {
		g.clearRow(row)
	}
}

// ScrollDown shifts rows [top,bot) down by n, clearing the exposed top rows.
func (g *Grid) ScrollDown(top, bot, n int) {
	if n <= 0 || top >= bot {
		return
	}
	if n > bot-top {
		n = bot - top
	}
	for row := bot - 1; row >= top+n; row-- {
		g.copyRow(row-n, row)
	}
	for row := top; row < top+n; row++ {
		g.clearRow(row)
	}
}

func (g *Grid) copyRow(src, dst int) {
	srcStart := g.backingRow(src) * g.size.Cols
	dstStart := g.backingRow(dst) * g.size.Cols
	copy(g.cells[dstStart:dstStart+g.size.Cols], g.cells[srcStart:srcStart+g.size.Cols])
}

// --- write ---------------------------------------------------------------

// previousCellForCombining returns the cell a combining mark should attach
// to: the one immediately left of the cursor, if any exists on this row.
func (g *Grid) previousCellForCombining() *Cell {
	if g.cursor.Col == 0 {
		return nil
	}
	return g.cellAt(g.cursor.Row, g.cursor.Col-1)
}

// Write places one decoded codepoint at the cursor and advances it.
// Combining marks (width 0) attach to the previous cell instead of
// occupying a column of their own when one exists; otherwise they fall
// back to the width-1 rule.
func (g *Grid) Write(r rune) {
	if isCombiningMark(r) {
		if prev := g.previousCellForCombining(); prev != nil {
			prev.Combining += string(r)
			return
		}
	}

	w := runeWidth(r)
	if w < 1 {
		w = 1
	}

	if g.cursor.Col+w > g.size.Cols {
		g.wrapLine()
	}

	cell := g.cellAt(g.cursor.Row, g.cursor.Col)
	*cell = Cell{
		Char:      r,
		Flags:     flagIf(FlagLineContinuation, g.cursor.Anchored),
		Style:     g.cursor.Brush,
		Hyperlink: g.cursor.Hyperlink,
	}
	for i := 1; i < w; i++ {
		spacer := g.cellAt(g.cursor.Row, g.cursor.Col+i)
		*spacer = Cell{
			Flags:     FlagInheritStyle | flagIf(FlagLineContinuation, g.cursor.Anchored),
			Style:     g.cursor.Brush,
			Hyperlink: g.cursor.Hyperlink,
		}
	}

	g.cursor.Col += w
	g.cursor.Anchored = true
}

func flagIf(f CellFlags, on bool) CellFlags {
	if on {
		return f
	}
	return 0
}

// wrapLine fills the tail of the current row with empty continuation cells,
// moves the cursor to column 0 of the next row, and scrolls the view if
// that pushes past it.
func (g *Grid) wrapLine() {
	for c := g.cursor.Col; c < g.size.Cols; c++ {
		*g.cellAt(g.cursor.Row, c) = Cell{Flags: flagIf(FlagLineContinuation, g.cursor.Anchored)}
	}
	g.cursor.Col = 0
	g.cursor.Row++
	g.applyOverflow()
}

// applyOverflow handles cursor.row having moved to or past rows: computes
// the overflow amount, scrolls the view up by it, and clamps cursor.row
// back inside [0,rows).
func (g *Grid) applyOverflow() {
	if g.cursor.Row < g.size.Rows {
		return
	}
	k := g.cursor.Row - g.size.Rows + 1
	g.cursor.Row -= k
	g.scrollViewUp(k)
}

// --- editing primitives ---------------------------------------------------

// EraseInLine fills part or all of the current row with empty cells.
func (g *Grid) EraseInLine(mode EraseRange) {
	switch mode {
	case EraseToEnd:
		g.clearRange(g.cursor.Row, g.cursor.Col, g.size.Cols)
	case EraseToStart:
		g.clearRange(g.cursor.Row, 0, g.cursor.Col+1)
	case EraseAll:
		g.clearRow(g.cursor.Row)
	}
}

// EraseInDisplay fills whole rows with empty cells. Erased rows are not
// moved to scrollback.
func (g *Grid) EraseInDisplay(mode EraseRange) {
	switch mode {
	case EraseToEnd:
		g.clearRange(g.cursor.Row, g.cursor.Col, g.size.Cols)
		for r := g.cursor.Row + 1; r < g.size.Rows; r++ {
			g.clearRow(r)
		}
	case EraseToStart:
		for r := 0; r < g.cursor.Row; r++ {
			g.clearRow(r)
		}
		g.clearRange(g.cursor.Row, 0, g.cursor.Col+1)
	case EraseAll:
		for r := 0; r < g.size.Rows; r++ {
			g.clearRow(r)
		}
	}
}

// InsertBlankLines shifts rows down by n within [from, marginBot), clearing
// the n new top rows of that range, where from is marginTop or cursor.Row
// depending on where.
func (g *Grid) InsertBlankLines(n int, where InsertAnchor) {
	from := g.marginTop
	if where == InsertAtCursor {
		from = g.cursor.Row
		if from < g.marginTop {
			from = g.marginTop
		}
	}
	if from >= g.marginBot {
		return
	}
	g.ScrollDown(from, g.marginBot, n)
}

// DeleteLines shifts rows up by n within [max(cursor.Row,marginTop),
// marginBot), clearing the n new bottom rows.
func (g *Grid) DeleteLines(n int) {
	from := g.cursor.Row
	if from < g.marginTop {
		from = g.marginTop
	}
	if from >= g.marginBot {
		return
	}
	g.ScrollUp(from, g.marginBot, n)
}

// InsertBlankCharacters shifts the tail of the current row right by n,
// clearing n cells starting at the cursor.
func (g *Grid) InsertBlankCharacters(n int) {
	if n <= 0 {
		return
	}
	row := g.cursor.Row
	cols := g.size.Cols
	if n > cols-g.cursor.Col {
		n = cols - g.cursor.Col
	}
	for c := cols - 1; c >= g.cursor.Col+n; c-- {
		*g.cellAt(row, c) = *g.cellAt(row, c-n)
	}
	g.clearRange(row, g.cursor.Col, g.cursor.Col+n)
}

// DeleteCharacters shifts the tail of the current row left by n, clearing n
// cells at the end of the row.
func (g *Grid) DeleteCharacters(n int) {
	if n <= 0 {
		return
	}
	row := g.cursor.Row
	cols := g.size.Cols
	if n > cols-g.cursor.Col {
		n = cols - g.cursor.Col
	}
	for c := g.cursor.Col; c < cols-n; c++ {
		*g.cellAt(row, c) = *g.cellAt(row, c+n)
	}
	g.clearRange(row, cols-n, cols)
}

// EraseCharacters clears n cells starting at the cursor, without shifting.
func (g *Grid) EraseCharacters(n int) {
	if n <= 0 {
		return
	}
	end := g.cursor.Col + n
	if end > g.size.Cols {
		end = g.size.Cols
	}
	g.clearRange(g.cursor.Row, g.cursor.Col, end)
}

// --- reflow ----------------------------------------------------------------

// ReflowInto replays this grid's content -- from the top of scrollback
// through the current cursor row -- into target, turning soft-wrap
// bookkeeping into fresh wrap decisions appropriate for target's width.
// target should be an otherwise-empty grid; its cursor ends at the
// position the replayed content naturally reaches.
func (g *Grid) ReflowInto(target *Grid) {
	started := false
	for r := -g.sbRows; r <= g.cursor.Row; r++ {
		backing := g.backingRow(r)
		rowStart := backing * g.size.Cols
		row := g.cells[rowStart : rowStart+g.size.Cols]

		end := len(row)
		for end > 0 && row[end-1].Char == 0 && !row[end-1].HasFlag(FlagInheritStyle) {
			end--
		}

		for col := 0; col < end; col++ {
			cell := row[col]
			if cell.HasFlag(FlagInheritStyle) {
				continue // reconstructed by target.Write's own wide-glyph handling
			}
			if col == 0 && !cell.HasFlag(FlagLineContinuation) {
				if started {
					target.startNewLine()
				}
			}
			started = true
			target.cursor.Brush = cell.Style
			target.cursor.Anchored = cell.HasFlag(FlagLineContinuation)
			target.Write(cell.Char)
			if cell.Combining != "" {
				if prev := target.previousCellForCombining(); prev != nil {
					prev.Combining = cell.Combining
				}
			}
		}
	}
}

// startNewLine moves the cursor to column 0 of the next row, scrolling if
// needed, without touching the anchored bit (the caller sets it).
func (g *Grid) startNewLine() {
	g.cursor.Col = 0
	g.cursor.Row++
	g.applyOverflow()
}
