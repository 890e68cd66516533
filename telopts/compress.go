package telopts

import (
	"github.com/duskforge/telnet"
)

// COMPRESS2 implements opt 86, MCCP2: server-to-client stream compression.
// The server offers WILL COMPRESS2; once the client agrees, the server sends
// the empty-payload enabling subnegotiation and begins deflating every
// subsequent outbound byte immediately afterward. The client, on receiving
// that subnegotiation, arms the inbound splice so the printer's next read
// decodes from a zlib stream starting at exactly that boundary.
type COMPRESS2 struct {
	BasePlugin
}

func NewCOMPRESS2() *COMPRESS2 {
	return &COMPRESS2{
		BasePlugin: NewBasePlugin(telnet.OptionMCCP2, "MCCP2", 0),
	}
}

func (o *COMPRESS2) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestLocal
	}
	return telnet.PluginAllowRemote
}

// OnEnabled, on the server's local side, sends the enabling subnegotiation
// and starts compressing immediately after it is queued - postSend runs once
// the frame has actually reached the wire, so no plaintext byte can follow
// the boundary it marks.
func (o *COMPRESS2) OnEnabled(side telnet.Side) {
	if side != telnet.SideLocal {
		return
	}

	o.Session().Keyboard().WriteCommand(telnet.Command{
		OpCode: telnet.SB,
		Option: o.Code(),
	}, func() error {
		o.Session().Keyboard().EnableCompression()
		o.Session().FireCompressionState(o.Code(), true)
		return nil
	})
}

func (o *COMPRESS2) OnDisabled(side telnet.Side) {
	if side != telnet.SideLocal {
		return
	}

	if err := o.Session().Keyboard().DisableCompression(); err != nil {
		return
	}
	o.Session().FireCompressionState(o.Code(), false)
}

// Subnegotiate is only ever reached on the client: the server never sends
// COMPRESS2 a subnegotiation to dispatch back to itself, and this payload
// carries no data of its own - its mere arrival is the "start decompressing
// now" signal.
func (o *COMPRESS2) Subnegotiate(subnegotiation []byte) error {
	o.Session().Compression().ArmSplice()
	o.Session().FireCompressionState(o.Code(), true)
	return nil
}

func (o *COMPRESS2) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", nil
}

// COMPRESS3 implements opt 87, MCCP3: the client-to-server counterpart of
// MCCP2. Roles are reversed - the client is the one that announces and
// starts compressing, the server is the one that arms the inbound splice.
type COMPRESS3 struct {
	BasePlugin
}

func NewCOMPRESS3() *COMPRESS3 {
	return &COMPRESS3{
		BasePlugin: NewBasePlugin(telnet.OptionMCCP3, "MCCP3", 0),
	}
}

func (o *COMPRESS3) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalClient {
		return telnet.PluginRequestLocal
	}
	return telnet.PluginAllowRemote
}

func (o *COMPRESS3) OnEnabled(side telnet.Side) {
	if side != telnet.SideLocal {
		return
	}

	o.Session().Keyboard().WriteCommand(telnet.Command{
		OpCode: telnet.SB,
		Option: o.Code(),
	}, func() error {
		o.Session().Keyboard().EnableCompression()
		o.Session().FireCompressionState(o.Code(), true)
		return nil
	})
}

func (o *COMPRESS3) OnDisabled(side telnet.Side) {
	if side != telnet.SideLocal {
		return
	}

	if err := o.Session().Keyboard().DisableCompression(); err != nil {
		return
	}
	o.Session().FireCompressionState(o.Code(), false)
}

// Subnegotiate is only ever reached on the server, signaling that the
// client's subsequent outbound bytes are a zlib stream.
func (o *COMPRESS3) Subnegotiate(subnegotiation []byte) error {
	o.Session().Compression().ArmSplice()
	o.Session().FireCompressionState(o.Code(), true)
	return nil
}

func (o *COMPRESS3) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", nil
}
