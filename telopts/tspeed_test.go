package telopts_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

func TestTSPEEDOnEnabledSendsSEND(t *testing.T) {
	tspeed := telopts.NewTSPEED()
	_, out := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{tspeed})

	tspeed.OnEnabled(telnet.SideRemote)

	want := []byte{telnet.IAC, telnet.SB, byte(telnet.OptionTerminalSpeed), 1, telnet.IAC, telnet.SE}
	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), want)
	})
}

func TestTSPEEDRepliesISWithConfiguredSpeed(t *testing.T) {
	tspeed := telopts.NewTSPEED()
	_, out := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{tspeed})
	tspeed.SetLocalSpeed(9600, 9600)

	if err := tspeed.Subnegotiate([]byte{1}); err != nil {
		t.Fatalf("Subnegotiate SEND: %v", err)
	}

	want := append([]byte{telnet.IAC, telnet.SB, byte(telnet.OptionTerminalSpeed), 0}, []byte("9600,9600")...)
	want = append(want, telnet.IAC, telnet.SE)
	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), want)
	})
}

func TestTSPEEDSubnegotiateISFiresHook(t *testing.T) {
	tspeed := telopts.NewTSPEED()
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{tspeed})

	done := make(chan struct{ tx, rx int }, 1)
	session.RegisterTerminalSpeedHook(func(s *telnet.Session, data telnet.TerminalSpeedData) {
		done <- struct{ tx, rx int }{data.Transmit, data.Receive}
	})

	payload := append([]byte{0}, []byte("38400,19200")...)
	if err := tspeed.Subnegotiate(payload); err != nil {
		t.Fatalf("Subnegotiate IS: %v", err)
	}

	select {
	case got := <-done:
		if got.tx != 38400 || got.rx != 19200 {
			t.Fatalf("got tx=%d rx=%d, want 38400/19200", got.tx, got.rx)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for terminal speed hook")
	}
}

func TestTSPEEDMalformedISIsIgnored(t *testing.T) {
	tspeed := telopts.NewTSPEED()
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{tspeed})

	fired := false
	session.RegisterTerminalSpeedHook(func(s *telnet.Session, data telnet.TerminalSpeedData) {
		fired = true
	})

	payload := append([]byte{0}, []byte("garbage")...)
	if err := tspeed.Subnegotiate(payload); err == nil {
		t.Fatal("expected Subnegotiate to report the malformed IS payload")
	}

	time.Sleep(50 * time.Millisecond)
	if fired {
		t.Fatal("expected malformed IS payload not to fire the hook")
	}
}
