package telnet

import (
	"bytes"
	"testing"
)

func TestEscapeIACRoundTrip(t *testing.T) {
	// P1: decode(encode(B)) == B for every inbound byte stream B.
	cases := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{IAC},
		{IAC, IAC},
		{0x41, IAC, 0x42, IAC, IAC, 0x43},
	}

	for _, raw := range cases {
		escaped := escapeIAC(raw)

		doubled := 0
		for _, b := range raw {
			if b == IAC {
				doubled++
			}
		}
		if len(escaped) != len(raw)+doubled {
			t.Fatalf("escapeIAC(%v) = %v, expected length %d", raw, escaped, len(raw)+doubled)
		}

		// De-escape by hand the same way the decoder does, and confirm we
		// recover the original bytes.
		decoded := make([]byte, 0, len(raw))
		for i := 0; i < len(escaped); i++ {
			decoded = append(decoded, escaped[i])
			if escaped[i] == IAC && i+1 < len(escaped) && escaped[i+1] == IAC {
				i++
			}
		}
		if !bytes.Equal(decoded, raw) {
			t.Fatalf("round trip mismatch: got %v, want %v", decoded, raw)
		}
	}
}

func TestVerbReply(t *testing.T) {
	cases := []struct {
		verb   Verb
		accept bool
		want   Verb
	}{
		{VerbWill, true, VerbDo},
		{VerbWill, false, VerbDont},
		{VerbWont, true, VerbDo},
		{VerbDo, true, VerbWill},
		{VerbDo, false, VerbWont},
		{VerbDont, true, VerbWill},
	}

	for _, c := range cases {
		if got := c.verb.Reply(c.accept); got != c.want {
			t.Errorf("%s.Reply(%v) = %s, want %s", c.verb, c.accept, got, c.want)
		}
	}
}

func TestCommandNameFallsBackToDecimal(t *testing.T) {
	if got := commandName(IAC); got != "IAC" {
		t.Fatalf("commandName(IAC) = %q", got)
	}
	if got := commandName(0x01); got != "1" {
		t.Fatalf("commandName(1) = %q, want decimal fallback", got)
	}
}
