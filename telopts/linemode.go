package telopts

import (
	"fmt"

	"github.com/duskforge/telnet"
)

// LineModeFlags are the MODE subnegotiation bits (RFC 1184).
type LineModeFlags byte

const (
	LineModeEDIT LineModeFlags = 1 << iota
	LineModeTRAPSIG
	LineModeModeACK
	LineModeSOFTTAB
	LineModeLITECHO
)

const (
	linemodeMODE        byte = 1
	linemodeFORWARDMASK byte = 2
	linemodeSLC         byte = 3
)

// LINEMODE implements opt 34. The client, on DO LINEMODE, replies WILL
// LINEMODE; the server then sends SB MODE <flags>, and the client
// acknowledges by echoing the same flags back with LineModeModeACK set.
// SLC and FORWARDMASK subnegotiations are parsed just far enough to find
// their end and are otherwise only logged - this core doesn't mediate
// per-character function assignment or demand-forwarding.
type LINEMODE struct {
	BasePlugin

	mode LineModeFlags
}

func NewLINEMODE() *LINEMODE {
	return &LINEMODE{
		BasePlugin: NewBasePlugin(telnet.OptionLineMode, "LINEMODE", telnet.PluginRequestLocal),
	}
}

// Usage depends on role: the server asks the remote (client) to activate
// LINEMODE; the client allows the server's request but never proposes it.
func (o *LINEMODE) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestRemote
	}
	return telnet.PluginAllowLocal
}

func (o *LINEMODE) Mode() LineModeFlags {
	return o.mode
}

// RequestMode sends an SB MODE with the given flags - called by the server
// role once it's ready to describe its line editing requirements.
func (o *LINEMODE) RequestMode(mode LineModeFlags) {
	o.Session().SendSubnegotiation(o.Code(), []byte{linemodeMODE, byte(mode &^ LineModeModeACK)})
}

func (o *LINEMODE) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return fmt.Errorf("linemode: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case linemodeMODE:
		if len(subnegotiation) != 2 {
			return fmt.Errorf("linemode: MODE expected one flags byte, got %d", len(subnegotiation)-1)
		}

		mode := LineModeFlags(subnegotiation[1])
		if mode&LineModeModeACK != 0 {
			// This is the client's ack of our own request.
			o.mode = mode &^ LineModeModeACK
			return nil
		}

		o.mode = mode
		o.Session().SendSubnegotiation(o.Code(), []byte{linemodeMODE, byte(mode | LineModeModeACK)})
		return nil
	case linemodeSLC, linemodeFORWARDMASK:
		return nil
	default:
		return fmt.Errorf("linemode: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func (o *LINEMODE) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("linemode: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case linemodeMODE:
		if len(subnegotiation) != 2 {
			return "MODE", nil
		}
		return fmt.Sprintf("MODE %08b", subnegotiation[1]), nil
	case linemodeSLC:
		return "SLC", nil
	case linemodeFORWARDMASK:
		return "FORWARDMASK", nil
	default:
		return "", fmt.Errorf("linemode: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
