package telopts

import (
	"bytes"
	"fmt"

	"github.com/duskforge/telnet"
)

const (
	msspVAR byte = 1
	msspVAL byte = 2
)

// MSSPConfig carries the server-info variables advertised to clients.
// Multiple entries for the same key produce multiple VAL runs under one
// VAR, which is how MSSP represents array-typed values (e.g. CRAWL_DELAY
// or multi-valued GENRE lists).
type MSSPConfig struct {
	Variables map[string][]string
}

// MSSP implements opt 70. The server sends its configured variables in a
// single SB the moment the option is activated locally; there is no
// subnegotiation in the other direction.
type MSSP struct {
	BasePlugin

	config MSSPConfig
}

func NewMSSP(config MSSPConfig) *MSSP {
	return &MSSP{
		BasePlugin: NewBasePlugin(telnet.OptionMSSP, "MSSP", telnet.PluginRequestLocal),
		config:     config,
	}
}

// Usage depends on role: the server offers MSSP locally; the client allows
// the server to activate it.
func (o *MSSP) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestLocal
	}
	return telnet.PluginAllowRemote
}

func (o *MSSP) OnEnabled(side telnet.Side) {
	if side != telnet.SideLocal {
		return
	}

	var buf bytes.Buffer
	for name, values := range o.config.Variables {
		buf.WriteByte(msspVAR)
		buf.WriteString(name)
		for _, value := range values {
			buf.WriteByte(msspVAL)
			buf.WriteString(value)
		}
	}

	o.Session().SendSubnegotiation(o.Code(), buf.Bytes())
}

func (o *MSSP) Subnegotiate(subnegotiation []byte) error {
	vars, err := parseMSSP(subnegotiation)
	if err != nil {
		return err
	}

	o.Session().FireMSSPRequest(vars)
	return nil
}

func parseMSSP(subnegotiation []byte) (map[string][]string, error) {
	vars := make(map[string][]string)

	var currentName string
	var haveName bool

	i := 0
	for i < len(subnegotiation) {
		tag := subnegotiation[i]
		i++

		start := i
		for i < len(subnegotiation) && subnegotiation[i] != msspVAR && subnegotiation[i] != msspVAL {
			i++
		}
		text := string(subnegotiation[start:i])

		switch tag {
		case msspVAR:
			currentName = text
			haveName = true
			if _, ok := vars[currentName]; !ok {
				vars[currentName] = nil
			}
		case msspVAL:
			if !haveName {
				return nil, fmt.Errorf("mssp: VAL with no preceding VAR")
			}
			vars[currentName] = append(vars[currentName], text)
		default:
			return nil, fmt.Errorf("mssp: unexpected tag byte %d", tag)
		}
	}

	return vars, nil
}

func (o *MSSP) SubnegotiationString(subnegotiation []byte) (string, error) {
	vars, err := parseMSSP(subnegotiation)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", vars), nil
}
