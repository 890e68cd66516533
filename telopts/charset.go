package telopts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/duskforge/telnet"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	charsetREQUEST        byte = 1
	charsetACCEPTED       byte = 2
	charsetREJECTED       byte = 3
	charsetTTABLEIS       byte = 4
	charsetTTABLEREJECTED byte = 5
	charsetTTABLEACK      byte = 6
	charsetTTABLENAK      byte = 7
)

const charsetKeyboardLock = "lock.charset"

// CHARSETConfig is the per-session configuration surface for opt 42: the
// preferred charsets, in offering order, and whether names outside that
// list are still acceptable when proposed by the peer.
type CHARSETConfig struct {
	PreferredCharsets []string
	AllowAnyCharset   bool
	// Separator is written as the first byte of an outbound REQUEST payload
	// and used to split the peer's list; ';' matches the RFC 2066 example
	// and is what most peers expect. Some servers use ',' instead.
	Separator byte
}

// CHARSET implements opt 42. Whichever side activates it locally sends an
// SB REQUEST listing acceptable charsets; the other side picks the first
// entry it also accepts and replies ACCEPTED or REJECTED. Both sides switch
// their session encoding at the byte immediately following the ACCEPTED
// SB's closing SE - SetNegotiatedCharset is called synchronously from
// within Subnegotiate, before the decoder/keyboard resumes processing the
// next byte, so there is no window where the two sides disagree.
type CHARSET struct {
	BasePlugin

	options CHARSETConfig
	allowed map[string]struct{}

	bestEncoding string
}

func NewCHARSET(options CHARSETConfig) *CHARSET {
	if options.Separator == 0 {
		options.Separator = ';'
	}

	allowed := make(map[string]struct{}, len(options.PreferredCharsets))
	for _, name := range options.PreferredCharsets {
		allowed[strings.ToUpper(name)] = struct{}{}
	}

	return &CHARSET{
		BasePlugin: NewBasePlugin(telnet.OptionCharset, "CHARSET", 0),
		options:    options,
		allowed:    allowed,
	}
}

func (o *CHARSET) Usage() telnet.PluginUsage {
	if o.Session() == nil {
		return telnet.PluginAllowLocal | telnet.PluginAllowRemote
	}
	if o.Session().Side() == telnet.SideTerminalServer {
		return telnet.PluginRequestLocal
	}
	return telnet.PluginAllowRemote
}

func (o *CHARSET) OnEnabled(side telnet.Side) {
	if side != telnet.SideLocal || len(o.options.PreferredCharsets) == 0 {
		return
	}

	o.Session().Keyboard().SetLock(charsetKeyboardLock, telnet.DefaultKeyboardLock)
	o.writeRequest(o.options.PreferredCharsets)
}

func (o *CHARSET) OnDisabled(side telnet.Side) {
	if side == telnet.SideLocal {
		o.Session().Keyboard().ClearLock(charsetKeyboardLock)
	}
	o.bestEncoding = ""
}

func (o *CHARSET) writeRequest(charsets []string) {
	var buf bytes.Buffer
	buf.WriteByte(charsetREQUEST)
	for _, name := range charsets {
		buf.WriteByte(o.options.Separator)
		buf.WriteString(name)
	}

	o.Session().SendSubnegotiation(o.Code(), buf.Bytes())
}

func (o *CHARSET) writeAccept(name string) {
	payload := append([]byte{charsetACCEPTED}, []byte(name)...)
	o.Session().SendSubnegotiation(o.Code(), payload)
}

func (o *CHARSET) writeReject() {
	o.Session().SendSubnegotiation(o.Code(), []byte{charsetREJECTED})
}

func (o *CHARSET) isAcceptable(name string) bool {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return false
	}

	if o.options.AllowAnyCharset {
		return true
	}

	_, ok := o.allowed[strings.ToUpper(name)]
	return ok
}

func (o *CHARSET) subnegotiateRequest(subnegotiation []byte) error {
	if len(subnegotiation) < 2 {
		return errors.New("charset: REQUEST with no separator byte")
	}

	sep := subnegotiation[1]
	candidates := strings.Split(string(subnegotiation[2:]), string(sep))

	o.bestEncoding = ""
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if strings.EqualFold(candidate, "utf-8") {
			o.Session().Charset().PromoteDefaultCharset("US-ASCII", "UTF-8")
		}
		if o.isAcceptable(candidate) {
			o.bestEncoding = candidate
			break
		}
	}

	if o.bestEncoding == "" {
		o.writeReject()
		return nil
	}

	if o.Session().Side() == telnet.SideTerminalServer && o.Session().Keyboard().HasActiveLock(charsetKeyboardLock) {
		// We already have a request of our own outstanding and this module
		// gives local negotiations priority - reject the peer's for now.
		o.writeReject()
		return nil
	}

	if err := o.Session().Charset().SetNegotiatedCharset(o.bestEncoding); err != nil {
		o.writeReject()
		return err
	}

	o.writeAccept(o.bestEncoding)
	return nil
}

func (o *CHARSET) subnegotiateAccepted(subnegotiation []byte) error {
	name := string(subnegotiation[1:])
	if !o.isAcceptable(name) {
		return fmt.Errorf("charset: peer accepted unsupported charset %q", name)
	}

	return o.Session().Charset().SetNegotiatedCharset(name)
}

func (o *CHARSET) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return errors.New("charset: empty subnegotiation")
	}

	defer func() {
		switch subnegotiation[0] {
		case charsetREQUEST, charsetACCEPTED, charsetREJECTED:
			o.Session().Keyboard().ClearLock(charsetKeyboardLock)
		}
	}()

	switch subnegotiation[0] {
	case charsetREQUEST:
		return o.subnegotiateRequest(subnegotiation)
	case charsetACCEPTED:
		return o.subnegotiateAccepted(subnegotiation)
	case charsetREJECTED:
		return nil
	case charsetTTABLEIS, charsetTTABLEREJECTED, charsetTTABLEACK, charsetTTABLENAK:
		// Translation tables are not implemented; these are logged and
		// otherwise ignored.
		return nil
	default:
		return fmt.Errorf("charset: unrecognized subcommand byte %d", subnegotiation[0])
	}
}

func (o *CHARSET) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("charset: empty subnegotiation")
	}

	switch subnegotiation[0] {
	case charsetREQUEST:
		return fmt.Sprintf("REQUEST %q", string(subnegotiation[1:])), nil
	case charsetACCEPTED:
		return fmt.Sprintf("ACCEPTED %q", string(subnegotiation[1:])), nil
	case charsetREJECTED:
		return "REJECTED", nil
	case charsetTTABLEIS:
		return "TTABLE-IS", nil
	case charsetTTABLEREJECTED:
		return "TTABLE-REJECTED", nil
	case charsetTTABLEACK:
		return "TTABLE-ACK", nil
	case charsetTTABLENAK:
		return "TTABLE-NAK", nil
	default:
		return "", fmt.Errorf("charset: unrecognized subcommand byte %d", subnegotiation[0])
	}
}
