package telopts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/duskforge/telnet"
)

const (
	tspeedIS   byte = 0
	tspeedSEND byte = 1
)

// TSPEED implements opt 32, TERMINAL-SPEED. The server requests DO TSPEED
// at bring-up; on WILL TSPEED it sends SEND, and the client replies IS with
// ASCII "<transmit>,<receive>" decimal baud rates. A malformed reply is
// returned as an error, which the session logs as a subnegotiation anomaly,
// and is otherwise ignored, per RFC 1079 being silent on the error case.
type TSPEED struct {
	BasePlugin

	localSpeed string
}

func NewTSPEED() *TSPEED {
	return &TSPEED{
		BasePlugin: NewBasePlugin(telnet.OptionTerminalSpeed, "TERMINAL-SPEED", telnet.PluginRequestRemote),
		localSpeed: "38400,38400",
	}
}

// SetLocalSpeed configures the transmit/receive baud pair this side reports
// when asked - purely informational on modern connections.
func (o *TSPEED) SetLocalSpeed(transmit, receive int) {
	o.localSpeed = fmt.Sprintf("%d,%d", transmit, receive)
}

func (o *TSPEED) OnEnabled(side telnet.Side) {
	if side == telnet.SideRemote {
		o.Session().SendSubnegotiation(o.Code(), []byte{tspeedSEND})
	}
}

func (o *TSPEED) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return fmt.Errorf("tspeed: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case tspeedSEND:
		payload := append([]byte{tspeedIS}, []byte(o.localSpeed)...)
		o.Session().SendSubnegotiation(o.Code(), payload)
		return nil
	case tspeedIS:
		tx, rx, ok := parseTSpeed(string(subnegotiation[1:]))
		if !ok {
			return fmt.Errorf("tspeed: malformed IS reply %q", subnegotiation[1:])
		}
		o.Session().FireTerminalSpeed(tx, rx)
		return nil
	default:
		return fmt.Errorf("tspeed: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func parseTSpeed(text string) (transmit, receive int, ok bool) {
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	tx, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	rx, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}

	return tx, rx, true
}

func (o *TSPEED) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("tspeed: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case tspeedSEND:
		return "SEND", nil
	case tspeedIS:
		return fmt.Sprintf("IS %q", string(subnegotiation[1:])), nil
	default:
		return "", fmt.Errorf("tspeed: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
