package telopts_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/duskforge/telnet"
	"github.com/duskforge/telnet/telopts"
)

func TestGMCPSendFramesPackageAndBody(t *testing.T) {
	gmcp := telopts.NewGMCP(telnet.PluginAllowLocal | telnet.PluginAllowRemote)
	_, out := newTestSession(t, telnet.SideTerminalServer, []telnet.Plugin{gmcp})

	gmcp.Send("Core.Hello", `{"client":"test"}`)

	want := append([]byte{telnet.IAC, telnet.SB, byte(telnet.OptionGMCP)}, []byte(`Core.Hello {"client":"test"}`)...)
	want = append(want, telnet.IAC, telnet.SE)
	waitFor(t, time.Second, func() bool {
		return bytes.Contains(out.Bytes(), want)
	})
}

func TestGMCPSubnegotiateSplitsPackageAndBody(t *testing.T) {
	gmcp := telopts.NewGMCP(telnet.PluginAllowLocal | telnet.PluginAllowRemote)
	session, _ := newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{gmcp})

	var pkg, body string
	done := make(chan struct{}, 1)
	session.RegisterGMCPHook(func(s *telnet.Session, data telnet.GMCPData) {
		pkg, body = data.Package, data.Info
		select {
		case done <- struct{}{}:
		default:
		}
	})

	if err := gmcp.Subnegotiate([]byte(`Room.Info {"name":"Temple"}`)); err != nil {
		t.Fatalf("Subnegotiate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for gmcp hook")
	}

	if pkg != "Room.Info" || body != `{"name":"Temple"}` {
		t.Fatalf("got pkg=%q body=%q", pkg, body)
	}
}

func TestGMCPSubnegotiateRejectsMissingSeparator(t *testing.T) {
	gmcp := telopts.NewGMCP(telnet.PluginAllowLocal | telnet.PluginAllowRemote)
	newTestSession(t, telnet.SideTerminalClient, []telnet.Plugin{gmcp})

	if err := gmcp.Subnegotiate([]byte("NoSeparatorHere")); err == nil {
		t.Fatal("expected an error for a payload with no package/body separator")
	}
}
