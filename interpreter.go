package x11term

import (
	"bytes"
	"fmt"
)

// Logger is the minimal logging contract the Interpreter needs for
// recoverable per-event errors: log once, substitute or ignore, continue.
// *zap.SugaredLogger satisfies this directly, so callers wire the ambient
// zap logger in without this package importing it.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// ShortcutAction is the result of matching a key against the fixed
// keyboard-shortcut binding table.
type ShortcutAction int

const (
	ActionNone ShortcutAction = iota
	ActionCloseWindow
	ActionDecreaseFontSize
	ActionIncreaseFontSize
	ActionRequestPaste
)

// shortcutTable is the fixed binding table of local key shortcuts, keyed
// by modifier-prefixed key name ("S-PageUp", "C-Up", ...): S/C/M prefixes
// for shift/ctrl/alt, hyphen joined, key name last.
var shortcutTable = map[string]ShortcutAction{
	"S-Escape": ActionCloseWindow,
	"C-1":      ActionDecreaseFontSize,
	"C-2":      ActionIncreaseFontSize,
	"C-S-V":    ActionRequestPaste,
}

// MatchShortcut reports the action bound to key, if any.
func MatchShortcut(key string) (ShortcutAction, bool) {
	a, ok := shortcutTable[key]
	return a, ok
}

// Interpreter owns the read/write byte queues between the shell and the
// Grid: it decodes shell output via Parse and applies the resulting
// Commands to the Grid, and it accumulates outbound bytes destined for the
// shell (keystrokes, pasted text).
type Interpreter struct {
	Grid   *Grid
	Logger Logger

	// OnSetTitle is invoked for OSC 0/2 (set window title). May be nil.
	OnSetTitle func(title string)
	// OnBell is invoked for BEL. May be nil.
	OnBell func()

	// WriteQueue accumulates bytes destined for the shell (keystrokes,
	// bracketed-paste payloads). The event loop drains and clears it.
	WriteQueue []byte

	// CursorStyle holds the last DECSCUSR (CSI Ps SP q) parameter value;
	// the renderer reads it to pick a cursor shape. Grid itself has no
	// notion of cursor shape.
	CursorStyle int

	readBuf []byte
	ctx     Context
}

// NewInterpreter constructs an Interpreter driving the given Grid.
func NewInterpreter(g *Grid) *Interpreter {
	return &Interpreter{Grid: g}
}

// Feed appends newly read shell bytes and processes as much as possible.
// Any trailing incomplete sequence is retained and completed by a later
// Feed call.
func (in *Interpreter) Feed(data []byte) {
	in.readBuf = append(in.readBuf, data...)
	in.drain()
}

func (in *Interpreter) drain() {
	for len(in.readBuf) > 0 {
		if !in.ctx.inProgress() {
			n := 0
			for n < len(in.readBuf) && in.readBuf[n] >= 0x20 && in.readBuf[n] <= 0x7E {
				in.Grid.Write(rune(in.readBuf[n]))
				n++
			}
			if n > 0 {
				in.readBuf = in.readBuf[n:]
				continue
			}
		}

		consumed, cmd := Parse(in.readBuf, &in.ctx)
		if cmd.Kind == KindIncomplete {
			// Parse has recorded where it paused in in.ctx; only the
			// bytes fed after this point belong to the resumed call.
			in.readBuf = in.readBuf[:0]
			return
		}
		in.dispatch(cmd)
		in.readBuf = in.readBuf[consumed:]
	}
}

func (in *Interpreter) dispatch(cmd Command) {
	g := in.Grid
	switch cmd.Kind {
	case KindIgnore:
	case KindInvalid:
		g.Write(0xFFFD)
	case KindCodepoint:
		g.Write(cmd.Codepoint)
	case KindTab:
		in.tab()
	case KindReturn:
		g.SetCursor(Rel(0), Abs(0))
	case KindNewline:
		g.LineFeed()
	case KindBackspace:
		g.SetCursor(Rel(0), Rel(-1))
	case KindDelete:
		// No documented control-code effect for DEL; accepted and ignored.
	case KindBell:
		if in.OnBell != nil {
			in.OnBell()
		}
	case KindIndex:
		g.LineFeed()
	case KindNextLine:
		g.LineFeed()
		g.SetCursor(Rel(0), Abs(0))
	case KindReverseIndex:
		g.ReverseLineFeed()
	case KindCSI:
		in.dispatchCSI(cmd)
	case KindOSC:
		in.dispatchOSC(cmd)
	default:
		// set_character_set, tab_set, SS2/SS3, DCS, guarded area, SOS, ST,
		// privacy message, APC, keypad mode switches, return-terminal-id:
		// accepted and ignored as unsupported escape sequences.
		in.warnf("unimplemented command kind %d", cmd.Kind)
	}
}

// tab pads with literal space writes until the column is a multiple of 8
// (not a cursor-only jump).
func (in *Interpreter) tab() {
	g := in.Grid
	for {
		g.Write(' ')
		if g.Cursor().Col%8 == 0 {
			return
		}
	}
}

func paramAt(ps []Param, i int) (int, bool) {
	if i < len(ps) {
		return ps[i].Value, ps[i].Present
	}
	return 0, false
}

// countParam reads a 1-based repeat count: missing or explicit zero both
// default to 1, matching standard VT cursor/edit-count semantics.
func countParam(ps []Param, i int) int {
	v, present := paramAt(ps, i)
	if !present || v == 0 {
		return 1
	}
	return v
}

// rawParam reads a parameter verbatim (0 is meaningful, e.g. erase modes),
// defaulting only when the parameter is absent.
func rawParam(ps []Param, i, def int) int {
	v, present := paramAt(ps, i)
	if !present {
		return def
	}
	return v
}

func eraseRangeFrom(code int) EraseRange {
	switch code {
	case 1:
		return EraseToStart
	case 2:
		return EraseAll
	default:
		return EraseToEnd
	}
}

func (in *Interpreter) dispatchCSI(cmd Command) {
	g := in.Grid
	ps := cmd.Params

	switch cmd.Final {
	case 'h', 'l':
		on := cmd.Final == 'h'
		if cmd.Intermediate != '?' {
			in.warnf("csi: unsupported %c%c", cmd.Intermediate, cmd.Final)
			return
		}
		mode := PrivateMode(rawParam(ps, 0, 0))
		switch mode {
		case ModeCursorVisible, ModeAltScreen, ModeBracketedPaste:
			g.SetPrivateMode(mode, on)
		default:
			in.warnf("csi: unsupported private mode %d", mode)
		}
	case 'm':
		in.applySGR(ps)
	case '@':
		g.InsertBlankCharacters(countParam(ps, 0))
	case 'A':
		g.SetCursor(Rel(-countParam(ps, 0)), Rel(0))
	case 'B':
		g.SetCursor(Rel(countParam(ps, 0)), Rel(0))
	case 'C':
		g.SetCursor(Rel(0), Rel(countParam(ps, 0)))
	case 'D':
		g.SetCursor(Rel(0), Rel(-countParam(ps, 0)))
	case 'H', 'f':
		g.SetCursor(Abs(countParam(ps, 0)-1), Abs(countParam(ps, 1)-1))
	case 'J':
		g.EraseInDisplay(eraseRangeFrom(rawParam(ps, 0, 0)))
	case 'K':
		g.EraseInLine(eraseRangeFrom(rawParam(ps, 0, 0)))
	case 'L':
		g.InsertBlankLines(countParam(ps, 0), InsertAtCursor)
	case 'M':
		g.DeleteLines(countParam(ps, 0))
	case 'P':
		g.DeleteCharacters(countParam(ps, 0))
	case 'X':
		g.EraseCharacters(countParam(ps, 0))
	case 'q':
		if cmd.Intermediate != ' ' && cmd.Intermediate2 != ' ' {
			in.warnf("csi: unsupported %c%c", cmd.Intermediate, cmd.Final)
			return
		}
		in.CursorStyle = rawParam(ps, 0, 0)
	case 'r':
		top := rawParam(ps, 0, 1) - 1
		bot := rawParam(ps, 1, 0)
		g.SetScrollMargins(top, bot)
	case 'u':
		if cmd.Intermediate != '=' && cmd.Intermediate2 != '=' {
			in.warnf("csi: unsupported %c%c", cmd.Intermediate, cmd.Final)
		}
		// Progressive keyboard enhancements: accepted, ignored.
	default:
		in.warnf("csi: unimplemented final %q", cmd.Final)
	}
}

// applySGR iterates SGR parameters, building up a new brush from the
// current one. An unrecognized code logs and stops the iteration without
// error.
func (in *Interpreter) applySGR(ps []Param) {
	g := in.Grid
	style := g.Brush()

	if len(ps) == 0 {
		g.SetBrush(DefaultStyle)
		return
	}

	for i := 0; i < len(ps); i++ {
		code := ps[i].Value
		switch {
		case code == 0:
			style = DefaultStyle
		case code == 1:
			style = style.With(StyleBold, true)
		case code == 22:
			style = style.With(StyleBold, false)
		case code == 3:
			style = style.With(StyleItalic, true)
		case code == 23:
			style = style.With(StyleItalic, false)
		case code == 4:
			style = style.With(StyleUnderline, true)
		case code == 24:
			style = style.With(StyleUnderline, false)
		case code == 7:
			style = style.With(StyleInverse, true)
		case code == 27:
			style = style.With(StyleInverse, false)
		case code >= 30 && code <= 37:
			style.Fg = Indexed(uint8(code - 30))
			style = style.With(StyleTruecolorFg, false)
		case code == 39:
			style.Fg = DefaultColor
			style = style.With(StyleTruecolorFg, false)
		case code >= 40 && code <= 47:
			style.Bg = Indexed(uint8(code - 40))
			style = style.With(StyleTruecolorBg, false)
		case code == 49:
			style.Bg = DefaultColor
			style = style.With(StyleTruecolorBg, false)
		case code >= 90 && code <= 97:
			style.Fg = Indexed(uint8(code-90) + 8)
			style = style.With(StyleTruecolorFg, false)
		case code >= 100 && code <= 107:
			style.Bg = Indexed(uint8(code-100) + 8)
			style = style.With(StyleTruecolorBg, false)
		case code == 38 || code == 48:
			c, truecolor, consumed := parseExtendedColor(ps[i+1:])
			if consumed == 0 {
				g.SetBrush(style)
				return
			}
			if code == 38 {
				style.Fg = c
				style = style.With(StyleTruecolorFg, truecolor)
			} else {
				style.Bg = c
				style = style.With(StyleTruecolorBg, truecolor)
			}
			i += consumed
		default:
			in.warnf("sgr: unsupported code %d", code)
			g.SetBrush(style)
			return
		}
	}
	g.SetBrush(style)
}

// parseExtendedColor reads the operand of SGR 38/48 starting right after
// the 38/48 parameter itself: "2;r;g;b" for truecolor or "5;index" for a
// palette reference. Returns how many of rest were consumed (0 on a
// malformed/short sequence).
func parseExtendedColor(rest []Param) (Color, bool, int) {
	if len(rest) == 0 {
		return Color{}, false, 0
	}
	switch rest[0].Value {
	case 2:
		if len(rest) < 4 {
			return Color{}, false, 0
		}
		return RGB(uint8(rest[1].Value), uint8(rest[2].Value), uint8(rest[3].Value)), true, 4
	case 5:
		if len(rest) < 2 {
			return Color{}, false, 0
		}
		return Indexed(uint8(rest[1].Value)), false, 2
	default:
		return Color{}, false, 0
	}
}

func (in *Interpreter) dispatchOSC(cmd Command) {
	switch cmd.OSCParam {
	case 0, 2:
		if in.OnSetTitle != nil {
			in.OnSetTitle(string(cmd.OSCPayload))
		}
	case 8:
		in.dispatchHyperlink(cmd.OSCPayload)
	default:
		in.warnf("osc: unhandled code %d", cmd.OSCParam)
	}
}

// dispatchHyperlink handles OSC 8: "params;URI". An empty URI closes the
// currently active link (subsequent writes go back to carrying none); a
// non-empty URI opens one that every cell written from here on inherits,
// until the next OSC 8 closes or replaces it.
func (in *Interpreter) dispatchHyperlink(payload []byte) {
	params, uri := payload, []byte(nil)
	if i := bytes.IndexByte(payload, ';'); i >= 0 {
		params, uri = payload[:i], payload[i+1:]
	}
	if len(uri) == 0 {
		in.Grid.SetHyperlink(nil)
		return
	}
	in.Grid.SetHyperlink(&Hyperlink{ID: string(params), URI: string(uri)})
}

// Paste enqueues pasted bytes to the shell write queue, wrapping them in
// bracketed-paste markers when mode 2004 is active.
func (in *Interpreter) Paste(data []byte) {
	if in.Grid.PrivateMode(ModeBracketedPaste) {
		in.WriteQueue = append(in.WriteQueue, []byte("\x1b[200~")...)
		in.WriteQueue = append(in.WriteQueue, data...)
		in.WriteQueue = append(in.WriteQueue, []byte("\x1b[201~")...)
		return
	}
	in.WriteQueue = append(in.WriteQueue, data...)
}

// HandleKey processes one key event from the window system: a short
// key-name string plus any literal text it produces. A matched shortcut
// suppresses the corresponding text input and is reported back so the
// caller can act on it (e.g. close the window); otherwise Ctrl+letter
// produces the corresponding 0x01..0x1A control code and any other key
// enqueues its literal text.
func (in *Interpreter) HandleKey(key string, text []byte) ShortcutAction {
	if action, ok := MatchShortcut(key); ok {
		return action
	}
	if len(key) == 2 && key[0] == '^' {
		ch := key[1]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch >= 'A' && ch <= 'Z' {
			in.WriteQueue = append(in.WriteQueue, ch-'A'+1)
			return ActionNone
		}
	}
	in.WriteQueue = append(in.WriteQueue, text...)
	return ActionNone
}

func (in *Interpreter) warnf(format string, args ...interface{}) {
	if in.Logger == nil {
		return
	}
	in.Logger.Warnw(fmt.Sprintf(format, args...))
}
