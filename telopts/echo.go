package telopts

import "github.com/duskforge/telnet"

// ECHO implements opt 1. Whether the local side echoes typed characters
// back to the remote - or stops a client-side echo so a server-side
// password prompt isn't doubled - is a host policy decision; this plugin
// only tracks the negotiated state and does nothing on its own.
type ECHO struct {
	BasePlugin
}

func NewECHO(usage telnet.PluginUsage) *ECHO {
	return &ECHO{
		BasePlugin: NewBasePlugin(telnet.OptionEcho, "ECHO", usage),
	}
}
