package telopts

import (
	"encoding/binary"
	"fmt"

	"github.com/duskforge/telnet"
)

// NAWS implements opt 31, Negotiate About Window Size. Servers ask clients
// to report their terminal dimensions; clients send them, and again
// whenever the terminal is resized.
type NAWS struct {
	BasePlugin

	width, height uint16
}

func NewNAWS() *NAWS {
	return &NAWS{
		BasePlugin: NewBasePlugin(telnet.OptionNAWS, "NAWS", 0),
		width:      78,
		height:     24,
	}
}

// Usage depends on role: the server asks the remote (client) to activate
// NAWS and never offers to activate it locally itself; the client allows
// the server's request to activate it locally but never proposes it.
func (o *NAWS) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestRemote
	}
	return telnet.PluginAllowLocal
}

// SetSize records the current terminal size and, if the client's local side
// is active, immediately reports it to the server.
func (o *NAWS) SetSize(width, height uint16) {
	o.width = width
	o.height = height

	if o.Session().IsEnabled(o.Code()) {
		payload := make([]byte, 4)
		binary.BigEndian.PutUint16(payload[0:2], width)
		binary.BigEndian.PutUint16(payload[2:4], height)
		o.Session().SendSubnegotiation(o.Code(), payload)
	}
}

// Size returns the most recently known dimensions - the 78x24 default
// before any update has been sent, or the server's most recently received
// report.
func (o *NAWS) Size() (width, height uint16) {
	return o.width, o.height
}

func (o *NAWS) OnEnabled(side telnet.Side) {
	if side == telnet.SideLocal && o.width != 0 {
		o.SetSize(o.width, o.height)
	}
}

func (o *NAWS) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) != 4 {
		return fmt.Errorf("naws: expected a 4-byte payload, got %d bytes", len(subnegotiation))
	}

	o.width = binary.BigEndian.Uint16(subnegotiation[0:2])
	o.height = binary.BigEndian.Uint16(subnegotiation[2:4])

	o.Session().FireNAWS(o.height, o.width)
	return nil
}

func (o *NAWS) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) != 4 {
		return "", fmt.Errorf("naws: expected a 4-byte payload, got %d bytes", len(subnegotiation))
	}

	width := binary.BigEndian.Uint16(subnegotiation[0:2])
	height := binary.BigEndian.Uint16(subnegotiation[2:4])
	return fmt.Sprintf("%dx%d", width, height), nil
}
