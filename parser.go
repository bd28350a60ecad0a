package x11term

import "unicode/utf8"

// paramCap bounds a single numeric CSI/OSC parameter against silent
// overflow: values saturate at this cap rather than wrapping.
const paramCap = 65535

// Parse decodes the terminal byte protocol. It is a pure, restartable
// function: given the bytes available so far and a scratch Context, it
// returns how many bytes of data it consumed and the Command those bytes
// produced.
//
// On KindIncomplete, Parse always reports 0 consumed and records exactly
// where it paused inside ctx (which stage of which sequence, plus any
// partial parameter/payload/rune bytes already seen). The caller must
// discard everything it has fed so far, wait for more bytes to arrive,
// and call Parse again passing ctx unchanged but data holding only the
// newly-arrived bytes — never the bytes from the previous call, whether
// or not they were reported consumed. Keeping decoding pure and separate
// from interpretation lets both be tested and reasoned about
// independently.
func Parse(data []byte, ctx *Context) (consumed int, cmd Command) {
	if len(data) == 0 {
		return 0, Command{Kind: KindIncomplete, NeedMore: 1}
	}

	switch ctx.stage {
	case stageGround:
		return parseGround(data, ctx)
	case stageEscape:
		return resumeEscape(data, ctx)
	case stageUTF8:
		return resumeUTF8(data, ctx)
	case stageCharset:
		return resumeCharset(data, ctx)
	case stageCSIIntermediate1, stageCSIParams, stageCSIIntermediate2, stageCSIFinal:
		return stepCSI(data, ctx)
	default: // stageOSCCode, stageOSCPayload, stageOSCPayloadEsc
		return stepOSC(data, ctx)
	}
}

// parseGround dispatches the first byte of a fresh sequence: ctx is at
// stageGround, so nothing restartable is pending.
func parseGround(data []byte, ctx *Context) (int, Command) {
	b := data[0]
	switch {
	case b == 0x00:
		return 1, Command{Kind: KindIgnore}
	case b == 0x07:
		return 1, Command{Kind: KindBell}
	case b == 0x08:
		return 1, Command{Kind: KindBackspace}
	case b == 0x7F:
		return 1, Command{Kind: KindDelete}
	case b == '\r':
		return 1, Command{Kind: KindReturn}
	case b == '\n':
		return 1, Command{Kind: KindNewline}
	case b == '\t':
		return 1, Command{Kind: KindTab}
	case b == 0x1b:
		return parseEscape(data, ctx)
	case b >= 0x20 && b <= 0x7E:
		return 1, Command{Kind: KindCodepoint, Codepoint: rune(b)}
	case b&0xE0 == 0xC0, b&0xF0 == 0xE0, b&0xF8 == 0xF0:
		return parseUTF8Begin(data, ctx)
	default:
		return 1, Command{Kind: KindInvalid, InvalidLen: 1}
	}
}

func utf8SeqLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// parseUTF8Begin handles the first byte of a multi-byte rune. If data
// already holds the whole encoding it decodes immediately; otherwise it
// stashes what it has in ctx and waits for the rest.
func parseUTF8Begin(data []byte, ctx *Context) (int, Command) {
	if utf8.FullRune(data) {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return 1, Command{Kind: KindInvalid, InvalidLen: 1}
		}
		return size, Command{Kind: KindCodepoint, Codepoint: r}
	}
	want := utf8SeqLen(data[0])
	ctx.utf8Buf = append(ctx.utf8Buf[:0], data...)
	ctx.utf8Want = want
	ctx.stage = stageUTF8
	return 0, Command{Kind: KindIncomplete, NeedMore: want - len(data)}
}

// resumeUTF8 completes a rune whose lead byte(s) arrived in an earlier
// call. It consumes only as many new bytes as the rune still needs,
// leaving any trailing bytes in data for the next Parse call.
func resumeUTF8(data []byte, ctx *Context) (int, Command) {
	need := ctx.utf8Want - len(ctx.utf8Buf)
	if need > len(data) {
		ctx.utf8Buf = append(ctx.utf8Buf, data...)
		return 0, Command{Kind: KindIncomplete, NeedMore: need - len(data)}
	}
	ctx.utf8Buf = append(ctx.utf8Buf, data[:need]...)
	r, size := utf8.DecodeRune(ctx.utf8Buf)
	var out Command
	if r == utf8.RuneError && size <= 1 {
		out = Command{Kind: KindInvalid, InvalidLen: need}
	} else {
		out = Command{Kind: KindCodepoint, Codepoint: r}
	}
	ctx.reset()
	return need, out
}

// parseEscape handles ESC as the first byte of a fresh sequence: if the
// byte that names the sequence hasn't arrived yet, it parks in stageEscape.
func parseEscape(data []byte, ctx *Context) (int, Command) {
	if len(data) < 2 {
		ctx.stage = stageEscape
		return 0, Command{Kind: KindIncomplete, NeedMore: 2}
	}
	return dispatchEscapeByte(data[1], data[2:], ctx, 2)
}

// resumeEscape handles the byte following an ESC that arrived on its own
// in an earlier call.
func resumeEscape(data []byte, ctx *Context) (int, Command) {
	return dispatchEscapeByte(data[0], data[1:], ctx, 1)
}

// dispatchEscapeByte decides what ESC b starts. rest is whatever of the
// current Parse call's data follows b; prefix is how many bytes of that
// same call's data were consumed reaching rest (2 for a fresh ESC+b, 1
// when resuming after a lone trailing ESC).
func dispatchEscapeByte(b byte, rest []byte, ctx *Context, prefix int) (int, Command) {
	switch b {
	case '[':
		return beginCSI(rest, ctx, prefix)
	case ']':
		return beginOSC(rest, ctx, prefix)
	case 'D':
		return prefix, Command{Kind: KindIndex}
	case 'E':
		return prefix, Command{Kind: KindNextLine}
	case 'H':
		return prefix, Command{Kind: KindTabSet}
	case 'M':
		return prefix, Command{Kind: KindReverseIndex}
	case 'N':
		return prefix, Command{Kind: KindSS2}
	case 'O':
		return prefix, Command{Kind: KindSS3}
	case 'P':
		return prefix, Command{Kind: KindDCS}
	case 'V', 'W':
		return prefix, Command{Kind: KindGuardedArea}
	case 'X':
		return prefix, Command{Kind: KindSOS}
	case 'Z':
		return prefix, Command{Kind: KindReturnTerminalID}
	case '\\':
		return prefix, Command{Kind: KindST}
	case '^':
		return prefix, Command{Kind: KindPrivacyMessage}
	case '_':
		return prefix, Command{Kind: KindAPC}
	case '>':
		return prefix, Command{Kind: KindNormalKeypad}
	case '=':
		return prefix, Command{Kind: KindApplicationKeypad}
	default:
		if b >= 0x20 && b <= 0x2F {
			return beginCharset(b, rest, ctx, prefix)
		}
		return prefix, Command{Kind: KindInvalid, InvalidLen: prefix}
	}
}

// beginCharset starts ESC-followed-by-intermediate character-set
// selection; stepCharset/resumeCharset carry it across restarts.
func beginCharset(b byte, rest []byte, ctx *Context, prefix int) (int, Command) {
	ctx.reset()
	ctx.charsetIntermediate = b
	ctx.stage = stageCharset
	n, cmd := stepCharset(rest, ctx)
	if cmd.Kind == KindIncomplete {
		return 0, cmd
	}
	return prefix + n, cmd
}

func resumeCharset(data []byte, ctx *Context) (int, Command) {
	return stepCharset(data, ctx)
}

// stepCharset scans zero or more further 0x20-0x2F intermediates then
// the terminating final byte (0x30-0x7E).
func stepCharset(data []byte, ctx *Context) (int, Command) {
	i := 0
	for i < len(data) && data[i] >= 0x20 && data[i] <= 0x2F {
		i++
	}
	if i >= len(data) {
		return 0, Command{Kind: KindIncomplete, NeedMore: 1}
	}
	final := data[i]
	i++
	if final < 0x30 || final > 0x7E {
		ctx.reset()
		return i, Command{Kind: KindInvalid, InvalidLen: i}
	}
	ctx.reset()
	return i, Command{Kind: KindSetCharacterSet, CharsetFinal: final}
}

func isCSIIntermediate(b byte) bool {
	return b == '?' || b == '>' || b == ' ' || b == '='
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7E
}

// beginCSI starts ESC [ ...; stepCSI carries it across restarts.
func beginCSI(rest []byte, ctx *Context, prefix int) (int, Command) {
	ctx.reset()
	ctx.stage = stageCSIIntermediate1
	n, cmd := stepCSI(rest, ctx)
	if cmd.Kind == KindIncomplete {
		return 0, cmd
	}
	return prefix + n, cmd
}

// stepCSI handles ESC [ ... per §4.2 from wherever ctx.stage says it was
// paused: an optional leading intermediate, a ';'/':'-separated decimal
// parameter list (empty entries permitted), an optional second
// intermediate, and a final byte. Each stage advances ctx.stage before
// falling into the next so an Incomplete return always leaves ctx
// resumable from exactly this point.
func stepCSI(data []byte, ctx *Context) (int, Command) {
	i := 0

	if ctx.stage == stageCSIIntermediate1 {
		if i >= len(data) {
			return 0, Command{Kind: KindIncomplete, NeedMore: 1}
		}
		if isCSIIntermediate(data[i]) {
			ctx.csiIntermediate = data[i]
			i++
		}
		ctx.stage = stageCSIParams
	}

	if ctx.stage == stageCSIParams {
	paramsLoop:
		for {
			if i >= len(data) {
				return 0, Command{Kind: KindIncomplete, NeedMore: 1}
			}
			c := data[i]
			switch {
			case c >= '0' && c <= '9':
				ctx.curPresent = true
				ctx.curValue = ctx.curValue*10 + int(c-'0')
				if ctx.curValue > paramCap {
					ctx.curValue = paramCap
				}
				i++
			case c == ';' || c == ':':
				ctx.push(Param{Value: ctx.curValue, Present: ctx.curPresent})
				ctx.curValue, ctx.curPresent = 0, false
				i++
			default:
				ctx.push(Param{Value: ctx.curValue, Present: ctx.curPresent})
				ctx.curValue, ctx.curPresent = 0, false
				break paramsLoop
			}
		}
		ctx.stage = stageCSIIntermediate2
	}

	if ctx.stage == stageCSIIntermediate2 {
		if i >= len(data) {
			return 0, Command{Kind: KindIncomplete, NeedMore: 1}
		}
		if isCSIIntermediate(data[i]) {
			ctx.csiIntermediate2 = data[i]
			i++
		}
		ctx.stage = stageCSIFinal
	}

	if ctx.stage == stageCSIFinal {
		if i >= len(data) {
			return 0, Command{Kind: KindIncomplete, NeedMore: 1}
		}
		final := data[i]
		i++
		if !isCSIFinal(final) {
			ctx.reset()
			return i, Command{Kind: KindInvalid, InvalidLen: i}
		}
		params := make([]Param, ctx.numParam)
		copy(params, ctx.params[:ctx.numParam])
		cmd := Command{
			Kind:          KindCSI,
			Intermediate:  ctx.csiIntermediate,
			Intermediate2: ctx.csiIntermediate2,
			Final:         final,
			Params:        params,
		}
		ctx.reset()
		return i, cmd
	}

	return 0, Command{Kind: KindIncomplete, NeedMore: 1}
}

// beginOSC starts ESC ] ...; stepOSC carries it across restarts.
func beginOSC(rest []byte, ctx *Context, prefix int) (int, Command) {
	ctx.reset()
	ctx.stage = stageOSCCode
	n, cmd := stepOSC(rest, ctx)
	if cmd.Kind == KindIncomplete {
		return 0, cmd
	}
	return prefix + n, cmd
}

// stepOSC handles ESC ] ... per §4.2: a leading numeric parameter, then a
// payload accumulated in ctx.oscPayload until STX, BEL, or ST (ESC \). A
// lone ESC that turns out not to start an ST is not a terminator: it is
// folded into the payload like any other byte and scanning resumes at
// the byte right after it, matching how a real OSC payload may contain
// an ESC that isn't part of its terminator.
func stepOSC(data []byte, ctx *Context) (int, Command) {
	i := 0

	if ctx.stage == stageOSCCode {
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			ctx.oscCode = ctx.oscCode*10 + int(data[i]-'0')
			if ctx.oscCode > paramCap {
				ctx.oscCode = paramCap
			}
			i++
		}
		if i >= len(data) {
			return 0, Command{Kind: KindIncomplete, NeedMore: 1}
		}
		if data[i] == ';' {
			i++
		}
		ctx.stage = stageOSCPayload
	}

	for {
		if ctx.stage == stageOSCPayloadEsc {
			if i >= len(data) {
				return 0, Command{Kind: KindIncomplete, NeedMore: 1}
			}
			if data[i] == '\\' {
				i++
				return i, finishOSC(ctx)
			}
			ctx.oscPayload = append(ctx.oscPayload, 0x1b)
			ctx.stage = stageOSCPayload
			continue
		}

		if i >= len(data) {
			return 0, Command{Kind: KindIncomplete, NeedMore: 1}
		}
		switch data[i] {
		case 0x02, 0x07:
			i++
			return i, finishOSC(ctx)
		case 0x1b:
			i++
			ctx.stage = stageOSCPayloadEsc
		default:
			ctx.oscPayload = append(ctx.oscPayload, data[i])
			i++
		}
	}
}

// finishOSC snapshots the accumulated payload into an owned copy (stable
// past the ctx.reset() that follows) and builds the completed Command.
func finishOSC(ctx *Context) Command {
	payload := append([]byte(nil), ctx.oscPayload...)
	cmd := Command{Kind: KindOSC, OSCParam: ctx.oscCode, OSCPayload: payload}
	ctx.reset()
	return cmd
}
