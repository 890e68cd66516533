package telopts

import (
	"fmt"

	"github.com/duskforge/telnet"
)

const (
	flowOFF        byte = 0
	flowON         byte = 1
	flowRestartAny byte = 2
	flowRestartXON byte = 3
)

// FLOWCONTROL implements opt 33, TOGGLE-FLOW-CONTROL. The server requests
// DO FLOWCONTROL at bring-up; once active, either side may send one of the
// four subcommand bytes to toggle flow control on/off or change the restart
// discipline.
type FLOWCONTROL struct {
	BasePlugin
}

func NewFLOWCONTROL() *FLOWCONTROL {
	return &FLOWCONTROL{
		BasePlugin: NewBasePlugin(telnet.OptionToggleFlowControl, "TOGGLE-FLOW-CONTROL", telnet.PluginRequestRemote),
	}
}

func (o *FLOWCONTROL) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) != 1 {
		return fmt.Errorf("flowcontrol: expected a single subcommand byte, got %d bytes", len(subnegotiation))
	}

	switch subnegotiation[0] {
	case flowOFF:
		o.Session().FireFlowControlState(false)
	case flowON:
		o.Session().FireFlowControlState(true)
	case flowRestartAny:
		o.Session().FireFlowControlRestartMode(true)
	case flowRestartXON:
		o.Session().FireFlowControlRestartMode(false)
	default:
		return fmt.Errorf("flowcontrol: unrecognized subcommand byte %d", subnegotiation[0])
	}

	return nil
}

func (o *FLOWCONTROL) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) != 1 {
		return "", fmt.Errorf("flowcontrol: expected a single subcommand byte, got %d bytes", len(subnegotiation))
	}

	switch subnegotiation[0] {
	case flowOFF:
		return "OFF", nil
	case flowON:
		return "ON", nil
	case flowRestartAny:
		return "RESTART-ANY", nil
	case flowRestartXON:
		return "RESTART-XON", nil
	default:
		return "", fmt.Errorf("flowcontrol: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
