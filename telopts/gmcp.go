package telopts

import (
	"fmt"
	"strings"

	"github.com/duskforge/telnet"
)

// GMCP implements opt 201, Generic MUD Communication Protocol. Either side
// may offer it; payloads are "<package> <json>" and are opaque past framing
// - the core only splits the package name from the JSON body and hands both
// to the host.
type GMCP struct {
	BasePlugin
}

func NewGMCP(usage telnet.PluginUsage) *GMCP {
	return &GMCP{
		BasePlugin: NewBasePlugin(telnet.OptionGMCP, "GMCP", usage),
	}
}

// Send writes a GMCP message with the given package name and a raw JSON
// body (the caller is responsible for producing valid JSON).
func (o *GMCP) Send(pkg string, jsonBody string) {
	payload := append([]byte(pkg+" "), []byte(jsonBody)...)
	o.Session().SendSubnegotiation(o.Code(), payload)
}

func (o *GMCP) Subnegotiate(subnegotiation []byte) error {
	text := string(subnegotiation)

	idx := strings.IndexByte(text, ' ')
	if idx < 0 {
		return fmt.Errorf("gmcp: payload has no package/body separator: %q", text)
	}

	pkg := text[:idx]
	body := text[idx+1:]

	o.Session().FireGMCP(pkg, body)
	return nil
}

func (o *GMCP) SubnegotiationString(subnegotiation []byte) (string, error) {
	return string(subnegotiation), nil
}
