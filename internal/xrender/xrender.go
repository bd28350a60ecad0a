// Package xrender composites a Grid into a grid-sized RGBA frame: one pass
// paints each cell's background and then its glyph raster, and a final
// step paints the cursor on top.
package xrender

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"x11term"
	"x11term/internal/fontcache"
)

// CursorShape selects how the cursor cell is painted.
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorBar
	CursorUnderline
)

// cursorStyleShape maps a DECSCUSR (CSI Ps SP q) parameter to a CursorShape,
// following the xterm convention: 0/1 blinking block, 2 steady block, 3/4
// underline, 5/6 bar.
func cursorStyleShape(param int) CursorShape {
	switch param {
	case 3, 4:
		return CursorUnderline
	case 5, 6:
		return CursorBar
	default:
		return CursorBlock
	}
}

// Options controls one Composite call.
type Options struct {
	// CursorVisible gates whether the cursor is painted at all (callers
	// pass Grid.PrivateMode(x11term.ModeCursorVisible)).
	CursorVisible bool
	// CursorStyle is the last DECSCUSR parameter (Interpreter.CursorStyle).
	CursorStyle int
	// CursorBlinkOn gates whether a blinking cursor is in its "on" phase
	// this frame; callers not implementing blink should pass true.
	CursorBlinkOn bool
}

// Renderer composites Grid contents into an *image.RGBA using a glyph
// cache. It records every (style, codepoint) pair it has drawn in uploads;
// nothing reads that record back, and repeated rasterisation is avoided by
// fontcache.Cache's own memoization, not by the record.
type Renderer struct {
	cache   *fontcache.Cache
	uploads map[uploadKey]bool
}

type uploadKey struct {
	style x11term.FallbackStyle
	r     rune
}

// New builds a Renderer drawing glyphs from cache.
func New(cache *fontcache.Cache) *Renderer {
	return &Renderer{cache: cache, uploads: make(map[uploadKey]bool)}
}

// Composite draws every visible cell of g onto a freshly allocated frame
// sized to the grid's cell metrics, returning it for presentation.
func (r *Renderer) Composite(g *x11term.Grid, opts Options) *image.RGBA {
	size := g.Size()
	m := r.cache.Metrics()
	frame := image.NewRGBA(image.Rect(0, 0, size.Cols*m.CellWidth, size.Rows*m.CellHeight))

	for row := 0; row < size.Rows; row++ {
		rh := g.GetRow(row)
		for col := 0; col < size.Cols; col++ {
			cell := rh.Cell(col)
			r.paintCell(frame, *cell, col, row, m)
		}
	}

	cur := g.Cursor()
	if opts.CursorVisible && opts.CursorBlinkOn && cur.Row >= 0 && cur.Row < size.Rows {
		r.paintCursor(frame, cur.Col, cur.Row, m, cursorStyleShape(opts.CursorStyle))
	}
	return frame
}

func (r *Renderer) paintCell(frame *image.RGBA, cell x11term.Cell, col, row int, m fontcache.Metrics) {
	cellRect := image.Rect(col*m.CellWidth, row*m.CellHeight, (col+1)*m.CellWidth, (row+1)*m.CellHeight)

	_, fgTrue := cell.Style.ResolveFg()
	bg, bgTrue := cell.Style.ResolveBg()
	bgPixel := bg.Resolve(bgTrue, false)
	draw.Draw(frame, cellRect, &image.Uniform{C: bgPixel}, image.Point{}, draw.Src)

	if cell.IsEmpty() {
		return
	}

	fg, _ := cell.Style.ResolveFg()
	fgPixel := fg.Resolve(fgTrue, true)

	style := x11term.FallbackStyleFor(cell.Style)
	r.uploads[uploadKey{style, cell.Char}] = true

	raster, ok := r.cache.GetGlyphRaster(fontcache.Style(style), cell.Char)
	if !ok || raster.Width == 0 || raster.Height == 0 {
		return
	}

	baseX := col*m.CellWidth + raster.Left
	baseY := row*m.CellHeight + m.Baseline - raster.Top
	dst := image.Rect(baseX, baseY, baseX+raster.Width, baseY+raster.Height)

	if raster.IsColor {
		src := &image.RGBA{Pix: raster.Pix, Stride: raster.Width * 4, Rect: image.Rect(0, 0, raster.Width, raster.Height)}
		xdraw.CatmullRom.Scale(frame, dst, src, src.Bounds(), xdraw.Over, nil)
		return
	}

	mask := &image.Alpha{
		Pix:    grayToAlpha(raster.Pix),
		Stride: raster.Width,
		Rect:   image.Rect(0, 0, raster.Width, raster.Height),
	}
	draw.DrawMask(frame, dst, &image.Uniform{C: fgPixel}, image.Point{}, mask, image.Point{}, draw.Over)
}

// grayToAlpha extracts one alpha channel out of the cache's replicated-gray
// BGRA rasterization (fontcache.Cache.rasterize always writes r=g=b=a).
func grayToAlpha(pix []byte) []byte {
	out := make([]byte, len(pix)/4)
	for i := range out {
		out[i] = pix[i*4+3]
	}
	return out
}

func (r *Renderer) paintCursor(frame *image.RGBA, col, row int, m fontcache.Metrics, shape CursorShape) {
	x0, y0 := col*m.CellWidth, row*m.CellHeight
	x1, y1 := x0+m.CellWidth, y0+m.CellHeight
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	var rect image.Rectangle
	switch shape {
	case CursorBar:
		rect = image.Rect(x0, y0, x0+barWidth(m), y1)
	case CursorUnderline:
		rect = image.Rect(x0, y1-underlineHeight(m), x1, y1)
	default:
		rect = image.Rect(x0, y0, x1, y1)
	}
	draw.Draw(frame, rect, &image.Uniform{C: white}, image.Point{}, draw.Over)
}

func barWidth(m fontcache.Metrics) int {
	if m.CellWidth/8 > 0 {
		return m.CellWidth / 8
	}
	return 1
}

func underlineHeight(m fontcache.Metrics) int {
	if m.CellHeight/8 > 0 {
		return m.CellHeight / 8
	}
	return 1
}
