package telopts

import (
	"fmt"

	"github.com/duskforge/telnet"
)

const (
	xdisplocIS   byte = 0
	xdisplocSEND byte = 1
)

// XDISPLOC implements opt 35, X-DISPLAY-LOCATION. The server requests DO
// XDISPLOC at bring-up; on WILL XDISPLOC it sends SEND, and the client
// replies IS with an ASCII X11 display string such as "host:0.0".
type XDISPLOC struct {
	BasePlugin

	localDisplay string
}

func NewXDISPLOC() *XDISPLOC {
	return &XDISPLOC{
		BasePlugin: NewBasePlugin(telnet.OptionXDisplayLocation, "X-DISPLAY-LOCATION", telnet.PluginRequestRemote),
	}
}

// SetLocalDisplay configures the display string this side reports when
// asked, e.g. "workstation:0.0".
func (o *XDISPLOC) SetLocalDisplay(display string) {
	o.localDisplay = display
}

func (o *XDISPLOC) OnEnabled(side telnet.Side) {
	if side == telnet.SideRemote {
		o.Session().SendSubnegotiation(o.Code(), []byte{xdisplocSEND})
	}
}

func (o *XDISPLOC) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return fmt.Errorf("xdisploc: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case xdisplocSEND:
		payload := append([]byte{xdisplocIS}, []byte(o.localDisplay)...)
		o.Session().SendSubnegotiation(o.Code(), payload)
		return nil
	case xdisplocIS:
		o.Session().FireXDisplay(string(subnegotiation[1:]))
		return nil
	default:
		return fmt.Errorf("xdisploc: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func (o *XDISPLOC) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("xdisploc: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case xdisplocSEND:
		return "SEND", nil
	case xdisplocIS:
		return fmt.Sprintf("IS %q", string(subnegotiation[1:])), nil
	default:
		return "", fmt.Errorf("xdisploc: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
