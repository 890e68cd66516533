package telopts

import "github.com/duskforge/telnet"

// SUPPRESSGOAHEAD implements opt 3. Once active, the keyboard stops emitting
// IAC GA - the state itself is the entire behavior, there's no subnegotiation.
type SUPPRESSGOAHEAD struct {
	BasePlugin
}

func NewSUPPRESSGOAHEAD() *SUPPRESSGOAHEAD {
	return &SUPPRESSGOAHEAD{
		BasePlugin: NewBasePlugin(telnet.OptionSuppressGoAhead, "SUPPRESS-GO-AHEAD", telnet.PluginRequestLocal),
	}
}

func (o *SUPPRESSGOAHEAD) OnEnabled(side telnet.Side) {
	if side == telnet.SideLocal {
		o.Session().Keyboard().ClearPromptCommand(telnet.PromptCommandGA)
	}
}

func (o *SUPPRESSGOAHEAD) OnDisabled(side telnet.Side) {
	if side == telnet.SideLocal {
		o.Session().Keyboard().SetPromptCommand(telnet.PromptCommandGA)
	}
}
