package x11term

import "github.com/unilibs/uniwidth"

// runeWidth returns the display width used by Grid.Write: 2 for wide
// characters (CJK, emoji, fullwidth forms), 1 for normal characters, 0 for
// zero-width combining marks and control characters.
func runeWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}

// isCombiningMark reports whether r is a zero-width combining mark that
// should be layered onto the preceding cell rather than occupying a column
// of its own.
func isCombiningMark(r rune) bool {
	switch {
	case r >= 0x0300 && r <= 0x036F,
		r >= 0x1AB0 && r <= 0x1AFF,
		r >= 0x1DC0 && r <= 0x1DFF,
		r >= 0x20D0 && r <= 0x20FF,
		r >= 0xFE20 && r <= 0xFE2F,
		r >= 0x0591 && r <= 0x05BD,
		r == 0x05BF, r == 0x05C1, r == 0x05C2, r == 0x05C4, r == 0x05C5, r == 0x05C7,
		r >= 0x0610 && r <= 0x061A,
		r >= 0x064B && r <= 0x065F,
		r == 0x0670,
		r >= 0x06D6 && r <= 0x06DC,
		r >= 0x06DF && r <= 0x06E4,
		r >= 0x06E7 && r <= 0x06E8,
		r >= 0x06EA && r <= 0x06ED,
		r >= 0x0E31 && r <= 0x0E3A,
		r >= 0x0E47 && r <= 0x0E4E,
		r >= 0x0901 && r <= 0x0903,
		r >= 0x093A && r <= 0x094F,
		r >= 0x0951 && r <= 0x0957,
		r >= 0x0962 && r <= 0x0963,
		r >= 0x1160 && r <= 0x11FF,
		r >= 0xFE00 && r <= 0xFE0F,
		r == 0x200C, r == 0x200D:
		return true
	default:
		return false
	}
}
