package telnet

// subnegFramer is the egress half of the subnegotiation framer (C3). Ingress
// buffering, de-escaping, and the 64 KiB truncation bound live in decoder.go,
// which owns the raw byte buffer; this type owns escaping outbound payloads
// and routing completed inbound payloads to their plugin.
type subnegFramer struct {
	session *Session
}

func newSubnegFramer(session *Session) *subnegFramer {
	return &subnegFramer{session: session}
}

// escapeIAC doubles every 0xFF byte in payload, per RFC 854 byte-stuffing.
func escapeIAC(payload []byte) []byte {
	doubled := 0
	for _, b := range payload {
		if b == IAC {
			doubled++
		}
	}

	if doubled == 0 {
		return payload
	}

	out := make([]byte, 0, len(payload)+doubled)
	for _, b := range payload {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}

	return out
}

// Send queues IAC SB opt payload IAC SE for transmission. payload is the raw,
// unescaped subnegotiation content - IAC doubling happens once, in the
// keyboard, at the moment bytes actually go on the wire, so that Command
// values flowing through hooks and logging always carry the same raw payload
// a plugin's Subnegotiate would receive. Payloads over MaxSubnegotiationSize
// are truncated with a logged anomaly, matching the ingress bound enforced by
// the decoder.
func (f *subnegFramer) Send(opt OptionCode, payload []byte) {
	if len(payload) > MaxSubnegotiationSize {
		f.session.reportError(SubnegotiationAnomalyError{
			Option: opt,
			Detail: "outbound payload exceeded 64KiB, truncating before send",
		})
		payload = payload[:MaxSubnegotiationSize]
	}

	f.session.keyboard.WriteCommand(Command{
		OpCode:         SB,
		Option:         opt,
		Subnegotiation: payload,
	}, nil)
}

// Dispatch routes a completed inbound subnegotiation payload to the owning
// plugin, if the option is currently enabled on at least one side. Payloads
// for unregistered or not-yet-enabled options are silently dropped, per the
// ordering guarantee that a plugin may ignore frames that arrive before its
// negotiation reaches steady state.
func (f *subnegFramer) Dispatch(opt OptionCode, payload []byte) {
	plugin, ok := f.session.host.get(opt)
	if !ok {
		return
	}

	if !f.session.host.isEnabled(opt) {
		return
	}

	if err := plugin.Subnegotiate(payload); err != nil {
		f.session.reportError(SubnegotiationAnomalyError{Option: opt, Detail: err.Error()})
	}
}
