package x11term

import "testing"

func TestParseASCIIPrintable(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("A"), &ctx)
	if n != 1 {
		t.Errorf("expected 1 byte consumed, got %d", n)
	}
	if cmd.Kind != KindCodepoint || cmd.Codepoint != 'A' {
		t.Errorf("expected codepoint 'A', got %+v", cmd)
	}
}

func TestParseControlCodes(t *testing.T) {
	cases := []struct {
		in   byte
		kind CommandKind
	}{
		{0x00, KindIgnore},
		{0x07, KindBell},
		{0x08, KindBackspace},
		{0x7f, KindDelete},
		{0x0d, KindReturn},
		{0x0a, KindNewline},
		{0x09, KindTab},
	}
	for _, c := range cases {
		var ctx Context
		n, cmd := Parse([]byte{c.in}, &ctx)
		if n != 1 {
			t.Errorf("byte %#x: expected 1 consumed, got %d", c.in, n)
		}
		if cmd.Kind != c.kind {
			t.Errorf("byte %#x: expected kind %v, got %v", c.in, c.kind, cmd.Kind)
		}
	}
}

func TestParseUTF8RoundTrip(t *testing.T) {
	// "é" = U+00E9, UTF-8: 0xC3 0xA9.
	var ctx Context
	n, cmd := Parse([]byte{0xC3, 0xA9}, &ctx)
	if n != 2 {
		t.Fatalf("expected 2 bytes consumed, got %d", n)
	}
	if cmd.Kind != KindCodepoint || cmd.Codepoint != 0x00E9 {
		t.Errorf("expected codepoint U+00E9, got %+v", cmd)
	}
}

func TestParseUTF8Incomplete(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte{0xC3}, &ctx)
	if n != 0 {
		t.Errorf("expected 0 bytes consumed on incomplete sequence, got %d", n)
	}
	if cmd.Kind != KindIncomplete {
		t.Errorf("expected KindIncomplete, got %v", cmd.Kind)
	}
}

func TestParseUTF8Invalid(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte{0xFF}, &ctx)
	if n != 1 {
		t.Errorf("expected invalid byte to consume 1 byte, got %d", n)
	}
	if cmd.Kind != KindInvalid {
		t.Errorf("expected KindInvalid, got %v", cmd.Kind)
	}
}

func TestParseEscapeIncomplete(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte{0x1b}, &ctx)
	if n != 0 || cmd.Kind != KindIncomplete {
		t.Errorf("expected incomplete ESC, got n=%d cmd=%+v", n, cmd)
	}
}

func TestParseCSISimple(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("\x1b[1;2H"), &ctx)
	if n != 6 {
		t.Fatalf("expected 6 bytes consumed, got %d", n)
	}
	if cmd.Kind != KindCSI || cmd.Final != 'H' {
		t.Fatalf("expected CSI final 'H', got %+v", cmd)
	}
	if len(cmd.Params) != 2 || cmd.Params[0].Value != 1 || cmd.Params[1].Value != 2 {
		t.Errorf("unexpected params: %+v", cmd.Params)
	}
}

func TestParseCSIIncomplete(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("\x1b[1;2"), &ctx)
	if n != 0 || cmd.Kind != KindIncomplete {
		t.Errorf("expected incomplete CSI, got n=%d cmd=%+v", n, cmd)
	}
}

func TestParseCSIPrivateMode(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("\x1b[?25h"), &ctx)
	if n != 6 {
		t.Fatalf("expected 6 bytes consumed, got %d", n)
	}
	if cmd.Kind != KindCSI || cmd.Intermediate != '?' || cmd.Final != 'h' {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if len(cmd.Params) != 1 || cmd.Params[0].Value != 25 {
		t.Errorf("unexpected params: %+v", cmd.Params)
	}
}

func TestParseOSCSetTitle(t *testing.T) {
	var ctx Context
	raw := []byte("\x1b]0;hello\x07")
	n, cmd := Parse(raw, &ctx)
	if n != len(raw) {
		t.Fatalf("expected %d bytes consumed, got %d", len(raw), n)
	}
	if cmd.Kind != KindOSC || cmd.OSCParam != 0 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if got := string(cmd.OSCPayload); got != "hello" {
		t.Errorf("expected payload %q, got %q", "hello", got)
	}
}

// TestParseRestartPrefix exercises §8's restart property: parsing a proper
// prefix of a byte stream yields a proper prefix of the commands the full
// stream would, plus possibly one incomplete at the boundary.
func TestParseRestartPrefix(t *testing.T) {
	full := []byte("\x1b[31mAB")
	var full1, full2, full3 Command
	var ctx Context
	n1, c1 := Parse(full, &ctx)
	full1 = c1
	n2, c2 := Parse(full[n1:], &ctx)
	full2 = c2
	_, c3 := Parse(full[n1+n2:], &ctx)
	full3 = c3

	// Feed only a prefix that splits the CSI sequence mid-stream.
	prefix := full[:3]
	var pctx Context
	n, cmd := Parse(prefix, &pctx)
	if n != 0 || cmd.Kind != KindIncomplete {
		t.Fatalf("expected incomplete on partial CSI, got n=%d cmd=%+v", n, cmd)
	}

	if full1.Kind != KindCSI || full2.Kind != KindCodepoint || full3.Kind != KindCodepoint {
		t.Fatalf("sanity check on full parse failed: %+v %+v %+v", full1, full2, full3)
	}
}

// TestParseRestartS6 is the literal scenario from the terminal-byte-
// protocol spec: a CSI sequence split between "\x1b[3" and "8;5;200m"
// must resume from only the second call's bytes, reporting a total
// consumed byte count of 8 for that call (not 11, which would mean the
// whole reassembled buffer was reparsed from scratch).
func TestParseRestartS6(t *testing.T) {
	var ctx Context
	n1, c1 := Parse([]byte("\x1b[3"), &ctx)
	if n1 != 0 || c1.Kind != KindIncomplete {
		t.Fatalf("expected incomplete after first chunk, got n=%d cmd=%+v", n1, c1)
	}

	n2, c2 := Parse([]byte("8;5;200m"), &ctx)
	if n2 != 8 {
		t.Fatalf("expected second call to consume exactly 8 new bytes, got %d", n2)
	}
	if c2.Kind != KindCSI || c2.Final != 'm' {
		t.Fatalf("expected CSI final 'm', got %+v", c2)
	}
	want := []Param{{38, true}, {5, true}, {200, true}}
	if len(c2.Params) != len(want) {
		t.Fatalf("unexpected params: %+v", c2.Params)
	}
	for i, p := range want {
		if c2.Params[i] != p {
			t.Errorf("param %d: expected %+v, got %+v", i, p, c2.Params[i])
		}
	}
}
