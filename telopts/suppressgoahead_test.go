package telopts_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

func TestSUPPRESSGOAHEADEnableLocalSuppressesGA(t *testing.T) {
	sga := telopts.NewSUPPRESSGOAHEAD()
	session, out := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{sga})

	sga.OnEnabled(telnet.SideLocal)
	session.Keyboard().WriteCommand(telnet.Command{OpCode: telnet.GA}, nil)

	// Give the keyboard loop a moment to process, then confirm no GA byte
	// pair made it to the wire.
	time.Sleep(50 * time.Millisecond)
	if bytes.Contains(out.Bytes(), []byte{telnet.IAC, telnet.GA}) {
		t.Fatal("expected GA to be suppressed once SGA is enabled")
	}
}

func TestSUPPRESSGOAHEADDisableRestoresGA(t *testing.T) {
	sga := telopts.NewSUPPRESSGOAHEAD()
	session, out := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{sga})

	sga.OnEnabled(telnet.SideLocal)
	sga.OnDisabled(telnet.SideLocal)
	session.Keyboard().WriteCommand(telnet.Command{OpCode: telnet.GA}, nil)

	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), []byte{telnet.IAC, telnet.GA})
	})
}

func TestSUPPRESSGOAHEADIgnoresRemoteSide(t *testing.T) {
	sga := telopts.NewSUPPRESSGOAHEAD()
	session, out := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{sga})

	sga.OnEnabled(telnet.SideRemote)
	session.Keyboard().WriteCommand(telnet.Command{OpCode: telnet.GA}, nil)

	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), []byte{telnet.IAC, telnet.GA})
	})
}
