package telopts

import (
	"errors"

	"github.com/duskforge/telnet"
)

const (
	authIS   byte = 0
	authSEND byte = 1
)

// AuthType is a single (type, modifier) preference pair as used by the
// AUTHENTICATION SEND/IS subnegotiations (RFC 2941). The core never
// interprets these beyond framing; it's the host's job to know what type 3
// (SRP) or type 5 (KERBEROS_V5) actually mean.
type AuthType struct {
	Type     byte
	Modifier byte
}

// AUTHENTICATION implements opt 37. The server requests DO AUTH at bring-up;
// on WILL AUTH it sends SEND with its acceptable (type, modifier) pairs in
// preference order. The client replies IS with the type/modifier it picked
// plus whatever authentication data that type requires - the core passes
// that data through to the host untouched.
type AUTHENTICATION struct {
	BasePlugin

	preferredTypes []AuthType
}

func NewAUTHENTICATION(preferredTypes []AuthType) *AUTHENTICATION {
	return &AUTHENTICATION{
		BasePlugin:     NewBasePlugin(telnet.OptionAuthentication, "AUTHENTICATION", telnet.PluginRequestRemote),
		preferredTypes: preferredTypes,
	}
}

func (o *AUTHENTICATION) OnEnabled(side telnet.Side) {
	if side != telnet.SideRemote {
		return
	}

	payload := make([]byte, 0, 1+2*len(o.preferredTypes))
	payload = append(payload, authSEND)
	for _, t := range o.preferredTypes {
		payload = append(payload, t.Type, t.Modifier)
	}

	o.Session().SendSubnegotiation(o.Code(), payload)
}

func (o *AUTHENTICATION) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return errors.New("authentication: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case authSEND:
		types := make([]byte, 0, len(subnegotiation)-1)
		types = append(types, subnegotiation[1:]...)
		o.Session().FireAuthRequest(types)
		return nil
	case authIS:
		if len(subnegotiation) < 3 {
			return errors.New("authentication: IS reply missing type/modifier")
		}
		o.Session().FireAuthResponse(subnegotiation[1], subnegotiation[2:])
		return nil
	default:
		return errors.New("authentication: unrecognized subcommand byte")
	}
}

// Reply lets the host send its IS response once it has evaluated the
// request delivered via the auth-request hook.
func (o *AUTHENTICATION) Reply(authType byte, data []byte) {
	payload := append([]byte{authIS, authType}, data...)
	o.Session().SendSubnegotiation(o.Code(), payload)
}

func (o *AUTHENTICATION) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", errors.New("authentication: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case authSEND:
		return "SEND", nil
	case authIS:
		return "IS", nil
	default:
		return "", errors.New("authentication: unrecognized subcommand byte")
	}
}
