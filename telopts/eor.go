package telopts

import "github.com/duskforge/telnet"

// EOR implements opt 25, END-OF-RECORD. Once negotiated, IAC EOR may be used
// in place of IAC GA to mark the end of a prompt - the decoder already turns
// IAC EOR into a PromptMark event on ingress (IAC GA produces no event), so
// this plugin's job is just the negotiation itself and an outbound
// SendPrompt helper for the server role.
type EOR struct {
	BasePlugin
}

func NewEOR() *EOR {
	return &EOR{
		BasePlugin: NewBasePlugin(telnet.OptionEndOfRecord, "END-OF-RECORD", 0),
	}
}

func (o *EOR) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestLocal
	}
	return telnet.PluginAllowRemote
}

func (o *EOR) OnEnabled(side telnet.Side) {
	if side == telnet.SideLocal {
		o.Session().Keyboard().SetPromptCommand(telnet.PromptCommandEOR)
	}
}

func (o *EOR) OnDisabled(side telnet.Side) {
	if side == telnet.SideLocal {
		o.Session().Keyboard().ClearPromptCommand(telnet.PromptCommandEOR)
	}
}

// SendPrompt writes IAC EOR, marking the end of the current prompt line.
func (o *EOR) SendPrompt() {
	o.Session().Keyboard().WriteCommand(telnet.Command{OpCode: telnet.EOR}, nil)
}
