package x11term

import "image/color"

// ColorKind tags how a Color's palette fields should be read when the
// owning Style's truecolor flag for that slot is unset.
type ColorKind uint8

const (
	// ColorDefault means "use the terminal's default foreground/background",
	// independent of the palette.
	ColorDefault ColorKind = iota
	// ColorIndexed means Index selects a slot in the xterm-256 palette.
	ColorIndexed
)

// Color is the tagged value from the data model: either an indexed palette
// reference or a direct RGB triple. Which interpretation applies is decided
// by the corresponding truecolor_fg/truecolor_bg bit of the owning Style,
// not by a field on Color itself -- Kind/Index and R/G/B simply live
// side-by-side rather than behind a Go union (the language doesn't offer
// one without unsafe reinterpretation, and clarity wins over the last byte
// of packing here).
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the zero-value Color: "use the terminal default".
var DefaultColor = Color{Kind: ColorDefault}

// Indexed returns a Color referencing the given xterm-256 palette slot.
func Indexed(index uint8) Color {
	return Color{Kind: ColorIndexed, Index: index}
}

// RGB returns a direct truecolor Color. The owning Style's truecolor flag
// must be set for this to be honored at resolve time.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// DefaultPalette is the standard 256-color xterm palette: 16 named colors
// (0-15), a 216-entry 6x6x6 color cube (16-231), and 24 grayscale steps
// (232-255).
var DefaultPalette = [256]color.RGBA{
	{0, 0, 0, 255},
	{205, 49, 49, 255},
	{13, 188, 121, 255},
	{229, 229, 16, 255},
	{36, 114, 200, 255},
	{188, 63, 188, 255},
	{17, 168, 205, 255},
	{229, 229, 229, 255},

	{102, 102, 102, 255},
	{241, 76, 76, 255},
	{35, 209, 139, 255},
	{245, 245, 67, 255},
	{59, 142, 234, 255},
	{214, 112, 214, 255},
	{41, 184, 219, 255},
	{255, 255, 255, 255},
}

func init() {
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				DefaultPalette[i] = color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255}
				i++
			}
		}
	}
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		DefaultPalette[232+j] = color.RGBA{R: gray, G: gray, B: gray, A: 255}
	}
}

// DefaultForeground and DefaultBackground are used whenever a Color resolves
// to ColorDefault.
var (
	DefaultForeground = color.RGBA{R: 229, G: 229, B: 229, A: 255}
	DefaultBackground = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Resolve converts a Color to a concrete RGBA pixel value, given whether
// this slot is flagged truecolor and whether it is the foreground (used to
// pick the right default when Kind is ColorDefault).
func (c Color) Resolve(truecolor, fg bool) color.RGBA {
	if truecolor {
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	switch c.Kind {
	case ColorIndexed:
		return DefaultPalette[c.Index]
	default:
		if fg {
			return DefaultForeground
		}
		return DefaultBackground
	}
}
