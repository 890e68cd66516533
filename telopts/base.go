package telopts

import (
	"fmt"
	"strings"

	"github.com/duskforge/telnet"
)

// BasePlugin supplies the bookkeeping every option plugin needs - its code,
// display name, usage, dependency list, and owning session - so concrete
// plugins only need to implement the behavior specific to their option:
// OnEnabled/OnDisabled and Subnegotiate.
type BasePlugin struct {
	code    telnet.OptionCode
	name    string
	usage   telnet.PluginUsage
	depends []telnet.OptionCode
	session *telnet.Session
}

func NewBasePlugin(code telnet.OptionCode, name string, usage telnet.PluginUsage, depends ...telnet.OptionCode) BasePlugin {
	return BasePlugin{
		code:    code,
		name:    name,
		usage:   usage,
		depends: depends,
	}
}

func (o *BasePlugin) Code() telnet.OptionCode { return o.code }
func (o *BasePlugin) String() string          { return o.name }

func (o *BasePlugin) Usage() telnet.PluginUsage { return o.usage }

func (o *BasePlugin) Dependencies() []telnet.OptionCode { return o.depends }

func (o *BasePlugin) Initialize(session *telnet.Session) { o.session = session }
func (o *BasePlugin) Session() *telnet.Session           { return o.session }

// OnEnabled/OnDisabled default to doing nothing; plugins that care about
// their own enable/disable lifecycle override them.
func (o *BasePlugin) OnEnabled(side telnet.Side)  {}
func (o *BasePlugin) OnDisabled(side telnet.Side) {}

func (o *BasePlugin) Subnegotiate(subnegotiation []byte) error {
	return fmt.Errorf("%s: unexpected subnegotiation %+v", strings.ToLower(o.name), subnegotiation)
}

func (o *BasePlugin) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", fmt.Errorf("%s: unexpected subnegotiation %+v", strings.ToLower(o.name), subnegotiation)
}
