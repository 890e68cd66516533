package telnet

import "fmt"

// qState is the per-option, per-side Q-method state (RFC 1143).
type qState byte

const (
	qNo qState = iota
	qWantYesEmpty
	qWantYesOpposite
	qYes
	qWantNoEmpty
	qWantNoOpposite
)

func (s qState) String() string {
	switch s {
	case qNo:
		return "NO"
	case qWantYesEmpty:
		return "WANTYES_EMPTY"
	case qWantYesOpposite:
		return "WANTYES_OPPOSITE"
	case qYes:
		return "YES"
	case qWantNoEmpty:
		return "WANTNO_EMPTY"
	case qWantNoOpposite:
		return "WANTNO_OPPOSITE"
	default:
		return "UNKNOWN"
	}
}

// optionStates holds the two independent Q-method state machines - local and
// remote - for a single option code.
type optionStates struct {
	local  qState
	remote qState
}

func (s *optionStates) forSide(side Side) *qState {
	if side == SideLocal {
		return &s.local
	}
	return &s.remote
}

// negotiator is the sole writer of the option-state table (C2). It decides
// the reply to WILL/WONT/DO/DONT per the Q-method, and is the only component
// that may request negotiation on behalf of a plugin.
type negotiator struct {
	session *Session
	states  map[OptionCode]*optionStates
}

func newNegotiator(session *Session) *negotiator {
	return &negotiator{
		session: session,
		states:  make(map[OptionCode]*optionStates),
	}
}

func (n *negotiator) stateFor(opt OptionCode) *optionStates {
	st, ok := n.states[opt]
	if !ok {
		st = &optionStates{}
		n.states[opt] = st
	}
	return st
}

// state returns the current Q-method state for opt on the given side, mostly
// useful to tests and to the plugin host's enablement bookkeeping.
func (n *negotiator) state(opt OptionCode, side Side) qState {
	return *n.stateFor(opt).forSide(side)
}

func (n *negotiator) sendVerb(opt OptionCode, side Side, activate bool) {
	var op byte
	switch {
	case side == SideRemote && activate:
		op = DO
	case side == SideRemote && !activate:
		op = DONT
	case side == SideLocal && activate:
		op = WILL
	default:
		op = WONT
	}

	n.session.keyboard.WriteCommand(Command{OpCode: op, Option: opt}, nil)
}

// acceptable reports whether a registered plugin declares interest in opt on
// the given side - the only acceptance policy this engine has. Unregistered
// options are always refused.
func (n *negotiator) acceptable(opt OptionCode, side Side) bool {
	plugin, ok := n.session.host.get(opt)
	if !ok {
		return false
	}

	usage := plugin.Usage()
	if side == SideRemote {
		return usage&PluginAllowRemote != 0
	}
	return usage&PluginAllowLocal != 0
}

// RequestEnable is called by the plugin host at bring-up (or later, by a
// plugin wanting to open a fresh negotiation) to ask the peer to enable opt
// on the given side. Only valid for an option currently at NO; the
// negotiator advances the state to WANTYES_EMPTY and emits the command.
func (n *negotiator) RequestEnable(opt OptionCode, side Side) {
	st := n.stateFor(opt).forSide(side)
	if *st != qNo {
		return
	}

	*st = qWantYesEmpty
	n.sendVerb(opt, side, true)
}

// RequestDisable asks the peer to disable opt on the given side. Only valid
// from YES; advances to WANTNO_EMPTY and emits the command.
func (n *negotiator) RequestDisable(opt OptionCode, side Side) {
	st := n.stateFor(opt).forSide(side)
	if *st != qYes {
		return
	}

	*st = qWantNoEmpty
	n.sendVerb(opt, side, false)
}

// HandleCommand processes one inbound negotiation Command (WILL/WONT/DO/
// DONT) against the state table, emitting at most one reply, per the
// Q-method transition rules of RFC 1143.
func (n *negotiator) HandleCommand(c Command) {
	if !c.isNegotiation() {
		return
	}

	side := SideRemote
	if c.verb().IsLocal() {
		side = SideLocal
	}

	st := n.stateFor(c.Option).forSide(side)
	activate := c.verb().IsActivate()

	oldState := *st
	newState, reply, enabled, disabled, anomaly := qTransition(oldState, activate, n.acceptable(c.Option, side))
	*st = newState

	if anomaly != "" {
		n.session.reportError(NegotiationAnomalyError{Option: c.Option, Detail: anomaly})
	}

	if reply != nil {
		n.sendVerb(c.Option, side, *reply)
	}

	if enabled {
		n.session.host.fireEnabled(c.Option, side)
	}
	if disabled {
		n.session.host.fireDisabled(c.Option, side)
	}
}

// qTransition is the pure Q-method transition function: given the current
// state, whether the inbound verb is an activate (WILL/DO) or deactivate
// (WONT/DONT) request, and whether we are willing to accept activation, it
// returns the new state, an optional reply (true = activate, false =
// deactivate), whether this transition is the moment the option becomes
// enabled or disabled, and a non-empty anomaly description if the peer's
// message was non-conformant.
func qTransition(state qState, activate bool, accept bool) (newState qState, reply *bool, enabled bool, disabled bool, anomaly string) {
	trueVal, falseVal := true, false

	if activate {
		switch state {
		case qNo:
			if accept {
				return qYes, &trueVal, true, false, ""
			}
			return qNo, &falseVal, false, false, ""
		case qYes:
			return qYes, nil, false, false, ""
		case qWantNoEmpty:
			return qNo, nil, false, false, "received activate while awaiting deactivate acknowledgement"
		case qWantNoOpposite:
			return qWantYesEmpty, &trueVal, false, false, ""
		case qWantYesEmpty:
			return qYes, nil, true, false, ""
		case qWantYesOpposite:
			return qWantNoEmpty, &falseVal, false, false, ""
		}
	} else {
		switch state {
		case qNo:
			return qNo, nil, false, false, ""
		case qYes:
			return qNo, &falseVal, false, true, ""
		case qWantNoEmpty:
			return qNo, nil, false, true, ""
		case qWantNoOpposite:
			return qWantYesEmpty, &trueVal, false, true, ""
		case qWantYesEmpty:
			return qNo, nil, false, false, ""
		case qWantYesOpposite:
			return qNo, nil, false, false, ""
		}
	}

	return state, nil, false, false, fmt.Sprintf("unreachable Q-method state %s", state)
}
