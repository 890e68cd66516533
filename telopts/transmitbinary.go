package telopts

import "github.com/duskforge/telnet"

// TRANSMITBINARY implements opt 0. Once active locally, the keyboard
// switches to the negotiated charset's binary encoding; once active on the
// remote side, the printer switches its decoding the same way. There is no
// subnegotiation.
type TRANSMITBINARY struct {
	BasePlugin
}

func NewTRANSMITBINARY(usage telnet.PluginUsage) *TRANSMITBINARY {
	return &TRANSMITBINARY{
		BasePlugin: NewBasePlugin(telnet.OptionTransmitBinary, "TRANSMIT-BINARY", usage),
	}
}

func (o *TRANSMITBINARY) OnEnabled(side telnet.Side) {
	switch side {
	case telnet.SideLocal:
		o.Session().Charset().SetBinaryEncode(true)
	case telnet.SideRemote:
		o.Session().Charset().SetBinaryDecode(true)
	}
}

func (o *TRANSMITBINARY) OnDisabled(side telnet.Side) {
	switch side {
	case telnet.SideLocal:
		o.Session().Charset().SetBinaryEncode(false)
	case telnet.SideRemote:
		o.Session().Charset().SetBinaryDecode(false)
	}
}
