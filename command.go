package x11term

// CommandKind tags the Command union the parser returns.
type CommandKind int

const (
	KindIncomplete CommandKind = iota
	KindInvalid
	KindIgnore
	KindCodepoint
	KindTab
	KindReturn
	KindNewline
	KindBackspace
	KindDelete
	KindBell
	KindCSI
	KindOSC
	KindSetCharacterSet
	KindIndex
	KindNextLine
	KindReverseIndex
	KindSetCursorStyle
	KindTabSet
	KindSS2
	KindSS3
	KindDCS
	KindGuardedArea
	KindSOS
	KindST
	KindPrivacyMessage
	KindAPC
	KindNormalKeypad
	KindApplicationKeypad
	KindReturnTerminalID
)

// maxCSIParams bounds the fixed-capacity parameter list Context holds
// during CSI parsing.
const maxCSIParams = 32

// Param is one numeric CSI/OSC parameter slot: a value plus whether it was
// actually present in the input (vs. defaulted by an empty field).
type Param struct {
	Value   int
	Present bool
}

// parseStage names where a restartable parse is paused between calls to
// Parse. stageGround (the zero value) means no sequence is in progress:
// the next call dispatches fresh on its first byte.
type parseStage int

const (
	stageGround parseStage = iota
	stageEscape
	stageUTF8
	stageCharset
	stageCSIIntermediate1
	stageCSIParams
	stageCSIIntermediate2
	stageCSIFinal
	stageOSCCode
	stageOSCPayload
	stageOSCPayloadEsc
)

// Context is the parser's working state across restarts. Parse owns every
// field; a caller restarting a previously-incomplete parse must pass back
// the same Context it received, and must feed it only the bytes that
// arrived after the last call returned KindIncomplete (never the bytes
// already consumed or already reported). Whatever stage a sequence is
// paused in is recorded here so Parse can resume exactly where it left
// off instead of reparsing from the start of the sequence.
type Context struct {
	stage parseStage

	// CSI in-progress state.
	csiIntermediate  byte
	csiIntermediate2 byte
	curValue         int
	curPresent       bool
	params           [maxCSIParams]Param
	numParam         int

	// OSC in-progress state.
	oscCode    int
	oscPayload []byte

	// UTF-8 in-progress state: bytes of a multi-byte rune seen so far and
	// the total length the lead byte implied.
	utf8Buf  []byte
	utf8Want int

	// charset-selection in-progress state (ESC followed by one or more
	// 0x20-0x2F intermediates).
	charsetIntermediate byte
}

func (c *Context) reset() {
	oscPayload := c.oscPayload[:0]
	utf8Buf := c.utf8Buf[:0]
	*c = Context{oscPayload: oscPayload, utf8Buf: utf8Buf}
}

func (c *Context) push(p Param) {
	if c.numParam >= maxCSIParams {
		return
	}
	c.params[c.numParam] = p
	c.numParam++
}

// inProgress reports whether c holds a partially-parsed escape/control
// sequence, so a caller (Interpreter.drain) must route every byte through
// Parse rather than taking a plain-printable-text fast path.
func (c *Context) inProgress() bool {
	return c.stage != stageGround
}

// Command is the tagged union Parse returns: exactly one of its Kind-
// specific fields is meaningful for a given Kind.
type Command struct {
	Kind CommandKind

	// KindCodepoint
	Codepoint rune

	// KindInvalid: how many bytes were consumed producing U+FFFD.
	InvalidLen int

	// KindIncomplete: a hint of how many bytes Parse still needs: the bytes
	// missing from a partial UTF-8 rune, 2 (the length of the shortest
	// escape sequence) for a lone ESC, and 1 otherwise.
	// Parse always reports 0 consumed alongside KindIncomplete; NeedMore
	// is advisory only (a caller waiting on a fixed-size read can use it
	// as a hint, but must still feed Parse only the newly-arrived bytes).
	NeedMore int

	// KindCSI
	Intermediate  byte // 0 if none
	Intermediate2 byte
	Final         byte
	Params        []Param // snapshot of Context.params[:numParam] at completion

	// KindOSC
	OSCParam   int
	OSCPayload []byte // owned copy, stable past the Parse call that produced it

	// KindSetCharacterSet
	CharsetFinal byte
}
