package telopts_test

import (
	"testing"
	"time"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

func TestFLOWCONTROLStateTogglesFireHook(t *testing.T) {
	flow := telopts.NewFLOWCONTROL()
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{flow})

	states := make(chan bool, 2)
	session.RegisterFlowControlStateHook(func(s *telnet.Session, data telnet.FlowControlStateData) {
		states <- data.Enabled
	})

	if err := flow.Subnegotiate([]byte{1}); err != nil {
		t.Fatalf("Subnegotiate ON: %v", err)
	}
	if err := flow.Subnegotiate([]byte{0}); err != nil {
		t.Fatalf("Subnegotiate OFF: %v", err)
	}

	select {
	case got := <-states:
		if !got {
			t.Fatal("expected first state to be enabled")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first flow control state")
	}
	select {
	case got := <-states:
		if got {
			t.Fatal("expected second state to be disabled")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second flow control state")
	}
}

func TestFLOWCONTROLRestartModeTogglesFireHook(t *testing.T) {
	flow := telopts.NewFLOWCONTROL()
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{flow})

	done := make(chan bool, 1)
	session.RegisterFlowControlRestartModeHook(func(s *telnet.Session, data telnet.FlowControlRestartModeData) {
		done <- data.RestartAny
	})

	if err := flow.Subnegotiate([]byte{2}); err != nil {
		t.Fatalf("Subnegotiate RESTART-ANY: %v", err)
	}

	select {
	case got := <-done:
		if !got {
			t.Fatal("expected RestartAny to be true")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for restart mode hook")
	}
}

func TestFLOWCONTROLRejectsWrongLength(t *testing.T) {
	flow := telopts.NewFLOWCONTROL()
	newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{flow})

	if err := flow.Subnegotiate(nil); err == nil {
		t.Fatal("expected error for empty subnegotiation")
	}
	if err := flow.Subnegotiate([]byte{1, 2}); err == nil {
		t.Fatal("expected error for multi-byte subnegotiation")
	}
}
