// Package fontcache resolves per-style font fallback chains, loads faces,
// rasterises glyphs, and caches the result keyed by (face, glyph index).
//
// Face loading and rasterisation are done with golang.org/x/image's
// font/opentype package, an outline-font parser and rasteriser that plays
// the role a FreeType/fontconfig/HarfBuzz binding would otherwise play.
package fontcache

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FaceSource is the font-subsystem external interface: given a family name
// and a {bold, italic} style, return an ordered list of font file paths
// (the fontconfig "family + style -> path list" contract). The first match
// is the primary face; the rest form the fallback chain.
type FaceSource interface {
	Resolve(family string, bold, italic bool) ([]string, error)
}

// Style selects one of the four fallback chains.
type Style uint8

const (
	StyleRegular Style = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
)

// Logger is the minimal logging contract for per-glyph miss warnings:
// log once per unmappable codepoint, then substitute U+FFFD.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// Metrics are the cell geometry derived from the primary regular face.
type Metrics struct {
	CellWidth  int
	CellHeight int
	Descender  int
	Baseline   int
}

// GlyphRaster is the pixel result of rasterising one glyph.
type GlyphRaster struct {
	Pix           []byte // BGRA, Width*Height*4 bytes
	Width, Height int
	Left, Top     int
	Advance       fixed.Int26_6
	IsColor       bool
}

type faceEntry struct {
	sfntFont *sfnt.Font
	face     font.Face
}

type rasterKey struct {
	face  *faceEntry
	glyph sfnt.GlyphIndex
}

// Cache owns face handles and raster bitmaps for the lifetime of the
// window.
type Cache struct {
	source FaceSource
	family string
	ptSize float64
	Logger Logger

	chains  [4][]*faceEntry
	metrics Metrics
	rasters map[rasterKey]*GlyphRaster
	missed  map[rune]bool
}

var styleAxes = [4]struct{ bold, italic bool }{
	{false, false},
	{true, false},
	{false, true},
	{true, true},
}

// NewCache resolves and loads all four fallback chains for family at
// ptSize. The regular chain must resolve and load; missing or unusable
// bold/italic/bold-italic chains degrade silently to the regular chain.
func NewCache(source FaceSource, family string, ptSize float64) (*Cache, error) {
	c := &Cache{
		source:  source,
		family:  family,
		ptSize:  ptSize,
		rasters: make(map[rasterKey]*GlyphRaster),
		missed:  make(map[rune]bool),
	}

	var regular []*faceEntry
	for i, axis := range styleAxes {
		chain, err := c.resolveAndLoad(axis.bold, axis.italic)
		if err != nil || len(chain) == 0 {
			if i == 0 {
				return nil, fmt.Errorf("fontcache: resolve regular face for %q: %w", family, err)
			}
			c.chains[i] = regular
			continue
		}
		c.chains[i] = chain
		if i == 0 {
			regular = chain
		}
	}

	c.computeMetrics()
	return c, nil
}

func (c *Cache) resolveAndLoad(bold, italic bool) ([]*faceEntry, error) {
	paths, err := c.source.Resolve(c.family, bold, italic)
	if err != nil {
		return nil, err
	}
	var chain []*faceEntry
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		sf, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := newFaceAt(sf, c.ptSize)
		if err != nil {
			continue
		}
		chain = append(chain, &faceEntry{sfntFont: sf, face: face})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("fontcache: no usable face among %d candidate paths", len(paths))
	}
	return chain, nil
}

func newFaceAt(sf *sfnt.Font, ptSize float64) (font.Face, error) {
	return opentype.NewFace(sf, &opentype.FaceOptions{
		Size:    ptSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (c *Cache) computeMetrics() {
	primary := c.chains[StyleRegular][0]
	m := primary.face.Metrics()
	adv, _ := primary.face.GlyphAdvance('M')

	c.metrics.CellWidth = adv.Ceil()
	c.metrics.CellHeight = m.Height.Ceil()
	c.metrics.Descender = -m.Descent.Ceil()
	c.metrics.Baseline = c.metrics.CellHeight + c.metrics.Descender
}

// Metrics returns the cell geometry derived at construction / last SetSize.
func (c *Cache) Metrics() Metrics { return c.metrics }

// SetSize changes the point size, flushes the raster cache, and reapplies
// the new size to every loaded face.
func (c *Cache) SetSize(ptSize float64) error {
	c.ptSize = ptSize
	for _, chain := range c.chains {
		for _, fe := range chain {
			face, err := newFaceAt(fe.sfntFont, ptSize)
			if err != nil {
				return fmt.Errorf("fontcache: resize face: %w", err)
			}
			fe.face = face
		}
	}
	c.rasters = make(map[rasterKey]*GlyphRaster)
	c.computeMetrics()
	return nil
}

// glyphFor linearly searches style's fallback chain for a face whose
// character map resolves r to a non-zero glyph index.
func (c *Cache) glyphFor(style Style, r rune) (*faceEntry, sfnt.GlyphIndex, bool) {
	var buf sfnt.Buffer
	for _, fe := range c.chains[style] {
		gid, err := fe.sfntFont.GlyphIndex(&buf, r)
		if err == nil && gid != 0 {
			return fe, gid, true
		}
	}
	return nil, 0, false
}

// GetGlyphRaster rasterises (or returns the cached rasterisation of)
// codepoint r under style. On an unmappable codepoint it logs once and
// substitutes U+FFFD; if that also fails, it reports false and the caller
// skips the cell at render time.
func (c *Cache) GetGlyphRaster(style Style, r rune) (*GlyphRaster, bool) {
	fe, gid, ok := c.glyphFor(style, r)
	if !ok {
		if !c.missed[r] {
			c.missed[r] = true
			if c.Logger != nil {
				c.Logger.Warnw("fontcache: unmappable codepoint", "rune", r)
			}
		}
		if r == 0xFFFD {
			return nil, false
		}
		return c.GetGlyphRaster(style, 0xFFFD)
	}

	key := rasterKey{face: fe, glyph: gid}
	if gr, found := c.rasters[key]; found {
		return gr, true
	}

	gr := c.rasterize(fe, r)
	if gr != nil && gr.Height > c.metrics.CellHeight {
		gr = scaleToFit(gr, c.metrics.CellHeight)
	}
	c.rasters[key] = gr
	return gr, gr != nil
}

// rasterize renders one glyph via the face's own Glyph method, which
// returns an 8-bit alpha mask for outline faces. The 8-bit gray value is
// mapped to BGRA by replicating it into every channel including alpha; a
// color bitmap strike (native BGRA, e.g. embedded emoji) would be memcpy'd
// directly, but golang.org/x/image/font/opentype never produces one, so
// IsColor is always false from this path.
func (c *Cache) rasterize(fe *faceEntry, r rune) *GlyphRaster {
	dr, mask, maskp, advance, ok := fe.face.Glyph(fixed.P(0, 0), r)
	if !ok {
		return &GlyphRaster{}
	}
	w, h := dr.Dx(), dr.Dy()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			gray := byte(a >> 8)
			i := (y*w + x) * 4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = gray, gray, gray, gray
		}
	}
	return &GlyphRaster{
		Pix:     pix,
		Width:   w,
		Height:  h,
		Left:    dr.Min.X,
		Top:     -dr.Min.Y,
		Advance: advance,
	}
}

// scaleToFit repeatedly halves gr by 2x2 box averaging while its height is
// still at least twice cellHeight, then accepts whatever oversize remains;
// fractional downscaling is not implemented.
func scaleToFit(gr *GlyphRaster, cellHeight int) *GlyphRaster {
	for gr.Height/2 >= cellHeight && gr.Height > 1 && gr.Width > 1 {
		gr = boxHalve(gr)
	}
	return gr
}

func boxHalve(gr *GlyphRaster) *GlyphRaster {
	nw, nh := gr.Width/2, gr.Height/2
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	pix := make([]byte, nw*nh*4)
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			var sum [4]int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sy, sx := y*2+dy, x*2+dx
					if sy >= gr.Height || sx >= gr.Width {
						continue
					}
					si := (sy*gr.Width + sx) * 4
					sum[0] += int(gr.Pix[si+0])
					sum[1] += int(gr.Pix[si+1])
					sum[2] += int(gr.Pix[si+2])
					sum[3] += int(gr.Pix[si+3])
				}
			}
			di := (y*nw + x) * 4
			pix[di+0] = byte(sum[0] / 4)
			pix[di+1] = byte(sum[1] / 4)
			pix[di+2] = byte(sum[2] / 4)
			pix[di+3] = byte(sum[3] / 4)
		}
	}
	scale := float64(nw) / float64(gr.Width)
	return &GlyphRaster{
		Pix:     pix,
		Width:   nw,
		Height:  nh,
		Left:    int(float64(gr.Left) * scale),
		Top:     int(float64(gr.Top) * scale),
		Advance: fixed.Int26_6(float64(gr.Advance) * scale),
		IsColor: gr.IsColor,
	}
}
