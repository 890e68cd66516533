package telopts_test

import (
	"testing"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

func TestTRANSMITBINARYEnableLocalSwitchesEncodeToBinary(t *testing.T) {
	binary := telopts.NewTRANSMITBINARY(telnet.PluginRequestLocal)
	session, _ := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{binary})

	binary.OnEnabled(telnet.SideLocal)
	if !session.Charset().BinaryEncode() {
		t.Fatal("expected binary encode to be enabled")
	}

	binary.OnDisabled(telnet.SideLocal)
	if session.Charset().BinaryEncode() {
		t.Fatal("expected binary encode to be disabled")
	}
}

func TestTRANSMITBINARYEnableRemoteSwitchesDecodeToBinary(t *testing.T) {
	binary := telopts.NewTRANSMITBINARY(telnet.PluginRequestLocal)
	session, _ := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{binary})

	binary.OnEnabled(telnet.SideRemote)
	if !session.Charset().BinaryDecode() {
		t.Fatal("expected binary decode to be enabled")
	}

	binary.OnDisabled(telnet.SideRemote)
	if session.Charset().BinaryDecode() {
		t.Fatal("expected binary decode to be disabled")
	}
}
