package telopts

import (
	"fmt"

	"github.com/duskforge/telnet"
)

const (
	ttypeIS   byte = 0
	ttypeSEND byte = 1
)

const maxTerminalTypes = 8

// TTYPE implements opt 24, TERMINAL-TYPE. The server cycles SB SEND
// requests; the client replies with its terminal type names in turn. The
// server stops once a name repeats (end of the client's list) or it has
// collected maxTerminalTypes entries, whichever comes first. The same
// plugin type serves both roles: a client configured with SetLocalTypes
// answers SEND requests from its own list.
type TTYPE struct {
	BasePlugin

	localTypes  []string
	localCursor int

	remoteTypes []string
}

func NewTTYPE() *TTYPE {
	return &TTYPE{
		BasePlugin: NewBasePlugin(telnet.OptionTerminalType, "TERMINAL-TYPE", 0),
	}
}

func (o *TTYPE) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestRemote
	}
	return telnet.PluginAllowLocal
}

// SetLocalTypes configures the ordered list of terminal type names this
// side offers when asked, e.g. ["xterm-256color", "xterm", "ansi"]. The
// last entry is repeated once the cursor runs past the end, letting a
// cycling peer detect end-of-list.
func (o *TTYPE) SetLocalTypes(types []string) {
	o.localTypes = types
}

// RemoteTypes returns the terminal type names collected from the peer so
// far, in arrival order.
func (o *TTYPE) RemoteTypes() []string {
	return append([]string(nil), o.remoteTypes...)
}

func (o *TTYPE) OnEnabled(side telnet.Side) {
	if side == telnet.SideRemote {
		o.localCursor = 0
		o.requestNext()
	}
}

func (o *TTYPE) OnDisabled(side telnet.Side) {
	if side == telnet.SideRemote {
		o.remoteTypes = nil
	}
	if side == telnet.SideLocal {
		o.localCursor = 0
	}
}

func (o *TTYPE) requestNext() {
	o.Session().SendSubnegotiation(o.Code(), []byte{ttypeSEND})
}

func (o *TTYPE) replyType(name string) {
	payload := append([]byte{ttypeIS}, []byte(name)...)
	o.Session().SendSubnegotiation(o.Code(), payload)
}

func (o *TTYPE) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) < 1 {
		return fmt.Errorf("ttype: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case ttypeSEND:
		if len(o.localTypes) == 0 {
			o.replyType("UNKNOWN")
			return nil
		}

		if o.localCursor >= len(o.localTypes) {
			o.replyType(o.localTypes[len(o.localTypes)-1])
			return nil
		}

		o.replyType(o.localTypes[o.localCursor])
		o.localCursor++
		return nil

	case ttypeIS:
		name := string(subnegotiation[1:])

		repeated := len(o.remoteTypes) > 0 && o.remoteTypes[len(o.remoteTypes)-1] == name
		if !repeated {
			o.remoteTypes = append(o.remoteTypes, name)
		}

		if repeated || len(o.remoteTypes) >= maxTerminalTypes {
			return nil
		}

		o.requestNext()
		return nil

	default:
		return fmt.Errorf("ttype: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func (o *TTYPE) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) < 1 {
		return "", fmt.Errorf("ttype: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case ttypeSEND:
		return "SEND", nil
	case ttypeIS:
		return fmt.Sprintf("IS %q", string(subnegotiation[1:])), nil
	default:
		return "", fmt.Errorf("ttype: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
