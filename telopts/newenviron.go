package telopts

import (
	"bytes"
	"fmt"

	"github.com/duskforge/telnet"
)

const (
	environIS   byte = 0
	environSEND byte = 1
	environINFO byte = 2
)

const (
	environVAR     byte = 0
	environVALUE   byte = 1
	environESC     byte = 2
	environUSERVAR byte = 3
)

// NEWENVIRON implements both opt 39 (NEW-ENVIRON, RFC 1572) and opt 36
// (the older ENVIRON, RFC 1408) - they share the same wire grammar closely
// enough to use one plugin type parameterized by option code. The server
// sends SEND naming the variables it wants (or an empty list for "all");
// the client replies IS with VAR/VALUE pairs, and for NEW-ENVIRON only,
// USERVAR/VALUE pairs for client-defined variables. A VAR/USERVAR with no
// following VALUE carries an empty-string value.
type NEWENVIRON struct {
	BasePlugin

	supportsUserVars bool
	localVars        map[string]string
	localUserVars    map[string]string
}

// NewNEWENVIRON constructs the modern (opt 39) variant, which distinguishes
// well-known VAR entries from client-defined USERVAR entries.
func NewNEWENVIRON() *NEWENVIRON {
	return &NEWENVIRON{
		BasePlugin:       NewBasePlugin(telnet.OptionNewEnviron, "NEW-ENVIRON", telnet.PluginRequestRemote),
		supportsUserVars: true,
	}
}

// NewEnvironOld constructs the legacy (opt 36) variant for peers that
// never adopted NEW-ENVIRON; it has no USERVAR concept.
func NewEnvironOld() *NEWENVIRON {
	return &NEWENVIRON{
		BasePlugin: NewBasePlugin(telnet.OptionEnvironOld, "ENVIRON", telnet.PluginRequestRemote),
	}
}

// SetLocalVars configures the variables this side reports when asked.
// userVars is ignored by the legacy ENVIRON variant.
func (o *NEWENVIRON) SetLocalVars(vars, userVars map[string]string) {
	o.localVars = vars
	o.localUserVars = userVars
}

func (o *NEWENVIRON) OnEnabled(side telnet.Side) {
	if side != telnet.SideRemote {
		return
	}
	// Ask for everything; we don't narrow the request to specific names.
	o.Session().SendSubnegotiation(o.Code(), []byte{environSEND})
}

func encodeEnvironText(buf *bytes.Buffer, text string) {
	for _, b := range []byte(text) {
		if b <= environUSERVAR {
			buf.WriteByte(environESC)
		}
		buf.WriteByte(b)
	}
}

func decodeEnvironText(buffer []byte) (consumed int, text string) {
	var out bytes.Buffer

	i := 0
	for ; i < len(buffer); i++ {
		b := buffer[i]
		if b == environESC {
			i++
			if i >= len(buffer) {
				break
			}
			out.WriteByte(buffer[i])
			continue
		}
		if b <= environUSERVAR {
			break
		}
		out.WriteByte(b)
	}

	return i, out.String()
}

func (o *NEWENVIRON) subnegotiateSend() {
	var buf bytes.Buffer
	buf.WriteByte(environIS)

	for name, value := range o.localVars {
		buf.WriteByte(environVAR)
		encodeEnvironText(&buf, name)
		buf.WriteByte(environVALUE)
		encodeEnvironText(&buf, value)
	}

	if o.supportsUserVars {
		for name, value := range o.localUserVars {
			buf.WriteByte(environUSERVAR)
			encodeEnvironText(&buf, name)
			buf.WriteByte(environVALUE)
			encodeEnvironText(&buf, value)
		}
	}

	o.Session().SendSubnegotiation(o.Code(), buf.Bytes())
}

func (o *NEWENVIRON) subnegotiateValues(payload []byte) (vars, userVars map[string]string, err error) {
	vars = make(map[string]string)
	userVars = make(map[string]string)

	i := 0
	for i < len(payload) {
		tag := payload[i]
		i++
		if tag != environVAR && tag != environUSERVAR {
			return nil, nil, fmt.Errorf("new-environ: unexpected tag byte %d", tag)
		}

		nameLen, name := decodeEnvironText(payload[i:])
		i += nameLen

		value := ""
		if i < len(payload) && payload[i] == environVALUE {
			i++
			valueLen, v := decodeEnvironText(payload[i:])
			i += valueLen
			value = v
		}

		if tag == environUSERVAR {
			userVars[name] = value
		} else {
			vars[name] = value
		}
	}

	return vars, userVars, nil
}

func (o *NEWENVIRON) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return fmt.Errorf("new-environ: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case environSEND:
		o.subnegotiateSend()
		return nil
	case environIS, environINFO:
		vars, userVars, err := o.subnegotiateValues(subnegotiation[1:])
		if err != nil {
			return err
		}
		o.Session().FireEnvironment(vars, userVars)
		return nil
	default:
		return fmt.Errorf("new-environ: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func (o *NEWENVIRON) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("new-environ: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case environSEND:
		return "SEND", nil
	case environIS:
		vars, userVars, err := o.subnegotiateValues(subnegotiation[1:])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("IS vars=%v userVars=%v", vars, userVars), nil
	case environINFO:
		vars, userVars, err := o.subnegotiateValues(subnegotiation[1:])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("INFO vars=%v userVars=%v", vars, userVars), nil
	default:
		return "", fmt.Errorf("new-environ: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
