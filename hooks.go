package telnet

import "sync"

// EventHook is a function pointer registered to receive events from a
// Session's EventPublisher.
type EventHook[T any] func(session *Session, data T)

// EventPublisher registers and fires hooks of a single event shape.
type EventPublisher[U any] struct {
	lock sync.Mutex

	registeredHooks []EventHook[U]
}

// NewPublisher creates a new EventPublisher. A slice of hooks can be passed
// in to pre-register them, or nil.
func NewPublisher[U any, T ~func(session *Session, data U)](hooks []T) *EventPublisher[U] {
	var convertedHooks []EventHook[U]

	for _, hook := range hooks {
		convertedHooks = append(convertedHooks, EventHook[U](hook))
	}

	return &EventPublisher[U]{
		registeredHooks: convertedHooks,
	}
}

// Register adds a single EventHook to this publisher.
func (e *EventPublisher[U]) Register(hook EventHook[U]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.registeredHooks = append(e.registeredHooks, hook)
}

// Fire invokes every registered hook in registration order, synchronously,
// on the calling goroutine - callers are the session's own processing loop,
// so hooks always observe events in wire arrival order.
func (e *EventPublisher[U]) Fire(session *Session, eventData U) {
	e.lock.Lock()
	hooks := make([]EventHook[U], len(e.registeredHooks))
	copy(hooks, e.registeredHooks)
	e.lock.Unlock()

	for _, hook := range hooks {
		hook(session, eventData)
	}
}

// ErrorHandler receives anomalies and fatal errors as they are reported.
type ErrorHandler func(s *Session, err error)

// SubmitData carries a line of application text submitted by the remote
// (decoded per the active charset), and the name of the charset it was
// decoded with.
type SubmitData struct {
	Text     string
	Encoding string
}

// NegotiationOutData carries the raw bytes of an outbound negotiation
// command, after framing but before the wire write.
type NegotiationOutData struct {
	Bytes []byte
}

// NAWSData carries a negotiated terminal size. Per design note, the public
// callback orders (height, width) though the wire payload is
// width-then-height.
type NAWSData struct {
	Height uint16
	Width  uint16
}

// GMCPData carries one decoded Generic Mud Communication Protocol message.
type GMCPData struct {
	Package string
	Info    string
}

// MSSPData carries a decoded MSSP config as a flat set of variable/value
// pairs - a variable may repeat, e.g. PLAYERS given once per team.
type MSSPData struct {
	Variables map[string][]string
}

// EnvironmentData carries NEW-ENVIRON/ENVIRON variables sent by the peer,
// split into well-known and user-defined categories.
type EnvironmentData struct {
	Variables map[string]string
	UserVars  map[string]string
}

// TerminalSpeedData carries the negotiated TSPEED transmit/receive baud.
type TerminalSpeedData struct {
	Transmit int
	Receive  int
}

// FlowControlStateData reports whether the remote end wants flow control
// (XON/XOFF) active.
type FlowControlStateData struct {
	Enabled bool
}

// FlowControlRestartModeData reports which key restarts output after a
// stop, per the TOGGLE-FLOW-CONTROL RESTART-ANY/RESTART-XON subcommands.
type FlowControlRestartModeData struct {
	RestartAny bool
}

// CompressionStateData reports an MCCP stream transition.
type CompressionStateData struct {
	Version OptionCode
	Enabled bool
}

// AuthRequestData carries an AUTHENTICATION SEND request from the peer.
type AuthRequestData struct {
	Types []byte
}

// AuthResponseData carries an AUTHENTICATION IS reply from the peer.
type AuthResponseData struct {
	Type byte
	Data []byte
}

type (
	SubmitHandler                 func(s *Session, data SubmitData)
	NegotiationOutHandler         func(s *Session, data NegotiationOutData)
	NAWSHandler                   func(s *Session, data NAWSData)
	PromptHandler                 func(s *Session, data struct{})
	GMCPHandler                   func(s *Session, data GMCPData)
	MSSPRequestHandler            func(s *Session, data MSSPData)
	EnvironmentHandler            func(s *Session, data EnvironmentData)
	TerminalSpeedHandler          func(s *Session, data TerminalSpeedData)
	XDisplayHandler               func(s *Session, data string)
	FlowControlStateHandler       func(s *Session, data FlowControlStateData)
	FlowControlRestartModeHandler func(s *Session, data FlowControlRestartModeData)
	CompressionStateHandler       func(s *Session, data CompressionStateData)
	AuthRequestHandler            func(s *Session, data AuthRequestData)
	AuthResponseHandler           func(s *Session, data AuthResponseData)
)

// EventHooks is the set of callbacks a SessionConfig can pre-register with a
// Session. Each field mirrors one of the Session's Register* methods and is
// equivalent to calling that method before Build.
type EventHooks struct {
	EncounteredError []ErrorHandler

	Submit             []SubmitHandler
	NegotiationOut     []NegotiationOutHandler
	NAWS               []NAWSHandler
	Prompt             []PromptHandler
	GMCP               []GMCPHandler
	MSSPRequest        []MSSPRequestHandler
	Environment        []EnvironmentHandler
	TerminalSpeed      []TerminalSpeedHandler
	XDisplay           []XDisplayHandler
	FlowControlState   []FlowControlStateHandler
	FlowControlRestart []FlowControlRestartModeHandler
	CompressionState   []CompressionStateHandler
	AuthRequest        []AuthRequestHandler
	AuthResponse       []AuthResponseHandler
}

// hookSet is the Session's live collection of EventPublisher instances, one
// per hook shape declared above.
type hookSet struct {
	encounteredError *EventPublisher[error]

	submit             *EventPublisher[SubmitData]
	negotiationOut     *EventPublisher[NegotiationOutData]
	naws               *EventPublisher[NAWSData]
	prompt             *EventPublisher[struct{}]
	gmcp               *EventPublisher[GMCPData]
	msspRequest        *EventPublisher[MSSPData]
	environment        *EventPublisher[EnvironmentData]
	terminalSpeed      *EventPublisher[TerminalSpeedData]
	xdisplay           *EventPublisher[string]
	flowControlState   *EventPublisher[FlowControlStateData]
	flowControlRestart *EventPublisher[FlowControlRestartModeData]
	compressionState   *EventPublisher[CompressionStateData]
	authRequest        *EventPublisher[AuthRequestData]
	authResponse       *EventPublisher[AuthResponseData]
}

func newHookSet(hooks EventHooks) *hookSet {
	return &hookSet{
		encounteredError:   NewPublisher[error](hooks.EncounteredError),
		submit:             NewPublisher[SubmitData](hooks.Submit),
		negotiationOut:     NewPublisher[NegotiationOutData](hooks.NegotiationOut),
		naws:               NewPublisher[NAWSData](hooks.NAWS),
		prompt:             NewPublisher[struct{}](hooks.Prompt),
		gmcp:               NewPublisher[GMCPData](hooks.GMCP),
		msspRequest:        NewPublisher[MSSPData](hooks.MSSPRequest),
		environment:        NewPublisher[EnvironmentData](hooks.Environment),
		terminalSpeed:      NewPublisher[TerminalSpeedData](hooks.TerminalSpeed),
		xdisplay:           NewPublisher[string](hooks.XDisplay),
		flowControlState:   NewPublisher[FlowControlStateData](hooks.FlowControlState),
		flowControlRestart: NewPublisher[FlowControlRestartModeData](hooks.FlowControlRestart),
		compressionState:   NewPublisher[CompressionStateData](hooks.CompressionState),
		authRequest:        NewPublisher[AuthRequestData](hooks.AuthRequest),
		authResponse:       NewPublisher[AuthResponseData](hooks.AuthResponse),
	}
}
