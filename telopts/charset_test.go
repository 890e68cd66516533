package telopts_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

// TestCHARSETRequestAcceptsPreferredName covers spec scenario 2: the server
// requests UTF-8, the client (here, this plugin standing in for it) accepts
// it and the session's negotiated charset switches immediately.
func TestCHARSETRequestAcceptsPreferredName(t *testing.T) {
	charset := telopts.NewCHARSET(telopts.CHARSETConfig{
		PreferredCharsets: []string{"UTF-8"},
	})
	session, out := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{charset})

	// IAC SB CHARSET REQUEST ";UTF-8" IAC SE, exactly as spec scenario 2
	// describes the wire bytes.
	request := append([]byte{1, ';'}, []byte("UTF-8")...)
	if err := charset.Subnegotiate(request); err != nil {
		t.Fatalf("Subnegotiate: %v", err)
	}

	want := append([]byte{telnet.IAC, telnet.SB, byte(telnet.OptionCharset), 2}, []byte("UTF-8")...)
	want = append(want, telnet.IAC, telnet.SE)
	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), want)
	})

	if got := session.Charset().NegotiatedCharsetName(); got != "UTF-8" {
		t.Fatalf("NegotiatedCharsetName() = %q, want UTF-8", got)
	}
}

func TestCHARSETRequestRejectsUnacceptableName(t *testing.T) {
	charset := telopts.NewCHARSET(telopts.CHARSETConfig{
		PreferredCharsets: []string{"UTF-8"},
	})
	_, out := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{charset})

	request := append([]byte{1, ';'}, []byte("SHIFT-JIS")...)
	if err := charset.Subnegotiate(request); err != nil {
		t.Fatalf("Subnegotiate: %v", err)
	}

	want := []byte{telnet.IAC, telnet.SB, byte(telnet.OptionCharset), 3, telnet.IAC, telnet.SE}
	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), want)
	})
}

func TestCHARSETAcceptedSwitchesNegotiatedCharset(t *testing.T) {
	charset := telopts.NewCHARSET(telopts.CHARSETConfig{
		PreferredCharsets: []string{"UTF-8"},
	})
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{charset})

	accepted := append([]byte{2}, []byte("UTF-8")...)
	if err := charset.Subnegotiate(accepted); err != nil {
		t.Fatalf("Subnegotiate ACCEPTED: %v", err)
	}

	if got := session.Charset().NegotiatedCharsetName(); got != "UTF-8" {
		t.Fatalf("NegotiatedCharsetName() = %q, want UTF-8", got)
	}
}

func TestCHARSETRequestPromotesDefaultOnUTF8Candidate(t *testing.T) {
	charset := telopts.NewCHARSET(telopts.CHARSETConfig{
		AllowAnyCharset: true,
	})
	session, _ := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{charset})

	request := append([]byte{1, ';'}, []byte("UTF-8")...)
	if err := charset.Subnegotiate(request); err != nil {
		t.Fatalf("Subnegotiate: %v", err)
	}

	if got := session.Charset().DefaultCharsetName(); got != "UTF-8" {
		t.Fatalf("DefaultCharsetName() = %q, want UTF-8 after promotion", got)
	}
}
