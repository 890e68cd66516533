package telnet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Session is a wrapper around a connection that drives telnet communication
// over it. Telnet's base protocol doesn't distinguish between client and
// server, so there is only one session type for both sides of the
// connection. A few plugins, notably CHARSET and NAWS, behave differently
// depending on which role the session was built for.
//
// Telnet functions as a full-duplex protocol: envision a session as two
// independent data streams, a printer reading text from the remote peer and
// a keyboard writing text to it. Inbound activity is delivered to the
// consumer through the many event hooks that can be registered for; outbound
// application text is sent with Keyboard().WriteString, and plugins are
// reached with GetPlugin.
//
// A session runs several goroutines internally: one driving the printer's
// raw reads, one driving the keyboard's writes, and one draining the event
// pump that reports keyboard anomalies and sent commands to hooks. Hooks for
// inbound activity run on the printer's goroutine, in strict wire arrival
// order; a hook that blocks for a long time will delay delivery of
// subsequent events, so long-running work should be handed off by the
// consumer.
type Session struct {
	reader io.Reader
	writer io.Writer
	side   TerminalSide

	charset     *Charset
	compression *compressionState
	keyboard    *TelnetKeyboard
	printer     *TelnetPrinter
	negotiator  *negotiator
	subneg      *subnegFramer
	host        *pluginHost
	logger      sessionLogger
	hooks       *hookSet
	pump        *sessionEventPump

	lineBuf      bytes.Buffer
	awaitingMore int
}

// Build initializes a new session from a net.Conn and begins negotiation
// with the remote immediately. The session runs until ctx is cancelled or
// the connection closes.
func Build(ctx context.Context, conn net.Conn, config SessionConfig) (*Session, error) {
	return BuildFromPipes(ctx, conn, conn, config)
}

// BuildFromPipes initializes a session from a Reader and Writer instead of a
// net.Conn - useful for testing, or when bytes arrive by more circuitous
// means than a plain connection. The session runs until reading from reader
// ends, or ctx is cancelled.
func BuildFromPipes(ctx context.Context, reader io.Reader, writer io.Writer, config SessionConfig) (*Session, error) {
	charset, err := NewCharset(config.DefaultCharsetName, config.FallbackCharsetName, config.CharsetUsage)
	if err != nil {
		newSessionLogger(config.Logger).fatal(err)
		return nil, err
	}

	pump := newSessionEventPump()

	session := &Session{
		reader:  reader,
		writer:  writer,
		side:    config.Side,
		charset: charset,
		logger:  newSessionLogger(config.Logger),
		hooks:   newHookSet(config.EventHooks),
		pump:    pump,
	}

	session.compression = newCompressionState(session)
	session.negotiator = newNegotiator(session)
	session.subneg = newSubnegFramer(session)
	session.host = newPluginHost(session)

	session.keyboard, err = newTelnetKeyboard(charset, writer, pump)
	if err != nil {
		return nil, err
	}
	session.printer = newTelnetPrinter(reader, session.compression, session)

	if err := session.host.Build(config.Plugins); err != nil {
		session.logger.fatal(err)
		return nil, err
	}

	go func() {
		connCtx, connCancel := context.WithCancel(ctx)
		defer connCancel()

		pumpCtx, pumpCancel := context.WithCancel(context.Background())
		defer pumpCancel()

		go pump.Run(pumpCtx, session)

		go session.keyboard.keyboardLoop(connCtx)
		go session.printer.printerLoop(connCtx)

		_ = session.printer.waitForExit()

		connCancel()
		session.keyboard.waitForExit()
	}()

	session.host.WriteInitialNegotiations()

	return session, nil
}

// Side returns whether this session was built as a client or server.
func (s *Session) Side() TerminalSide {
	return s.side
}

// Charset returns the session's charset bootstrap - the default, fallback,
// and negotiated character sets and the current binary-mode flags.
func (s *Session) Charset() *Charset {
	return s.charset
}

// Keyboard returns the subsidiary used to send outbound communications.
func (s *Session) Keyboard() *TelnetKeyboard {
	return s.keyboard
}

// Printer returns the subsidiary used to receive inbound communications.
func (s *Session) Printer() *TelnetPrinter {
	return s.printer
}

// IsEnabled reports whether opt has reached YES on at least one side.
func (s *Session) IsEnabled(opt OptionCode) bool {
	return s.host.isEnabled(opt)
}

// RequestDisable asks the peer to disable opt on the given side, refusing
// synchronously if an enabled plugin still depends on it.
func (s *Session) RequestDisable(opt OptionCode, side Side) error {
	return s.host.DisableOption(opt, side)
}

// SendSubnegotiation queues IAC SB opt <payload> IAC SE for transmission,
// escaping IAC bytes in payload.
func (s *Session) SendSubnegotiation(opt OptionCode, payload []byte) {
	s.subneg.Send(opt, payload)
}

// FireNAWS delivers a negotiated terminal size to registered NAWS hooks.
func (s *Session) FireNAWS(height, width uint16) {
	s.hooks.naws.Fire(s, NAWSData{Height: height, Width: width})
}

// FireGMCP delivers a decoded GMCP message to registered GMCP hooks.
func (s *Session) FireGMCP(pkg, info string) {
	s.hooks.gmcp.Fire(s, GMCPData{Package: pkg, Info: info})
}

// FireMSSPRequest delivers a decoded MSSP config to registered hooks.
func (s *Session) FireMSSPRequest(vars map[string][]string) {
	s.hooks.msspRequest.Fire(s, MSSPData{Variables: vars})
}

// FireEnvironment delivers decoded (NEW-)ENVIRON variables to registered hooks.
func (s *Session) FireEnvironment(vars, userVars map[string]string) {
	s.hooks.environment.Fire(s, EnvironmentData{Variables: vars, UserVars: userVars})
}

// FireTerminalSpeed delivers a decoded TSPEED reply to registered hooks.
func (s *Session) FireTerminalSpeed(tx, rx int) {
	s.hooks.terminalSpeed.Fire(s, TerminalSpeedData{Transmit: tx, Receive: rx})
}

// FireXDisplay delivers a decoded XDISPLOC reply to registered hooks.
func (s *Session) FireXDisplay(display string) {
	s.hooks.xdisplay.Fire(s, display)
}

// FireFlowControlState delivers a TOGGLE-FLOW-CONTROL ON/OFF subcommand to
// registered hooks.
func (s *Session) FireFlowControlState(enabled bool) {
	s.hooks.flowControlState.Fire(s, FlowControlStateData{Enabled: enabled})
}

// FireFlowControlRestartMode delivers a TOGGLE-FLOW-CONTROL RESTART-ANY/
// RESTART-XON subcommand to registered hooks.
func (s *Session) FireFlowControlRestartMode(restartAny bool) {
	s.hooks.flowControlRestart.Fire(s, FlowControlRestartModeData{RestartAny: restartAny})
}

// FireCompressionState delivers an MCCP stream transition to registered
// hooks.
func (s *Session) FireCompressionState(version OptionCode, enabled bool) {
	s.hooks.compressionState.Fire(s, CompressionStateData{Version: version, Enabled: enabled})
}

// FireAuthRequest delivers an AUTHENTICATION SEND request to registered hooks.
func (s *Session) FireAuthRequest(types []byte) {
	s.hooks.authRequest.Fire(s, AuthRequestData{Types: types})
}

// FireAuthResponse delivers an AUTHENTICATION IS reply to registered hooks.
func (s *Session) FireAuthResponse(authType byte, data []byte) {
	s.hooks.authResponse.Fire(s, AuthResponseData{Type: authType, Data: data})
}

// Compression returns the session's MCCP splice state, used by the
// COMPRESS2/COMPRESS3 plugins to arm the inbound splice and by the keyboard
// to arm outbound compression.
func (s *Session) Compression() *compressionState {
	return s.compression
}

func (s *Session) reportError(err error) {
	s.logger.anomaly(err)
	s.hooks.encounteredError.Fire(s, err)
}

// handleDecoderEvent is invoked on the printer's read goroutine for every
// Event the decoder produces, in wire arrival order.
func (s *Session) handleDecoderEvent(ev Event) {
	switch ev.Kind {
	case EventDataByte:
		s.lineBuf.WriteByte(ev.Byte)
	case EventLineBoundary:
		s.lineBuf.WriteByte('\n')
		s.flushLine(true)
	case EventCommand:
		s.logger.command("in", Command{OpCode: byte(ev.Verb), Option: ev.Option})
		s.negotiator.HandleCommand(Command{OpCode: byte(ev.Verb), Option: ev.Option})
	case EventSubnegStart:
		// Buffering happens inside the decoder; nothing to do until
		// EventSubnegEnd delivers the assembled payload.
	case EventSubnegEnd:
		s.logger.command("in", Command{OpCode: SB, Option: ev.Option, Subnegotiation: ev.Payload})
		s.subneg.Dispatch(ev.Option, ev.Payload)
	case EventPromptMark:
		s.flushLine(false)
		s.hooks.prompt.Fire(s, struct{}{})
	}
}

// flushLine decodes and delivers whatever has accumulated in lineBuf as a
// Submit event. complete indicates the line ended with LF (true) or was
// flushed early by a prompt mark with no terminator (false, the partial-line
// "keep typing over this" case MUDs rely on for unterminated prompts).
func (s *Session) flushLine(complete bool) {
	raw := s.lineBuf.Bytes()
	if len(raw) == 0 {
		return
	}

	text := s.decodeAll(raw)
	s.lineBuf.Reset()

	if !complete {
		text = strings.TrimSuffix(text, "\n")
	}

	s.hooks.submit.Fire(s, SubmitData{Text: text, Encoding: s.charset.DecodingName()})
}

func (s *Session) decodeAll(raw []byte) string {
	var sb strings.Builder
	scratch := make([]byte, 256)
	remaining := raw

	for len(remaining) > 0 {
		consumed, buffered, err := s.charset.Decode(scratch, remaining)
		if err != nil {
			s.reportError(err)
			break
		}
		if consumed == 0 && buffered == 0 {
			break
		}

		sb.Write(scratch[:buffered])
		remaining = remaining[consumed:]
	}

	return sb.String()
}

func (s *Session) handleReportedError(err error) {
	s.reportError(err)
}

func (s *Session) handleSentCommand(c Command) {
	s.logger.command("out", c)
	s.hooks.negotiationOut.Fire(s, NegotiationOutData{Bytes: encodeCommandBytes(c)})
}

func encodeCommandBytes(c Command) []byte {
	b := []byte{IAC, c.OpCode}
	if c.OpCode == GA || c.OpCode == NOP || c.OpCode == EOR {
		return b
	}
	b = append(b, byte(c.Option))
	if c.OpCode == SB {
		b = append(b, escapeIAC(c.Subnegotiation)...)
		b = append(b, IAC, SE)
	}
	return b
}

// CommandString converts a Command into a legible string, e.g. for logging.
func (s *Session) CommandString(c Command) string {
	var sb strings.Builder
	sb.WriteString("IAC ")

	opCode, hasOpCode := commandCodes[c.OpCode]
	if !hasOpCode {
		opCode = strconv.Itoa(int(c.OpCode))
	}
	sb.WriteString(opCode)

	if c.OpCode == GA || c.OpCode == NOP || c.OpCode == EOR {
		return sb.String()
	}

	sb.WriteByte(' ')

	plugin, hasPlugin := s.host.get(c.Option)
	if !hasPlugin {
		sb.WriteString(c.Option.String())
	} else {
		sb.WriteString(plugin.String())
	}

	if c.OpCode != SB {
		return sb.String()
	}

	sb.WriteByte(' ')

	if !hasPlugin {
		sb.WriteString(fmt.Sprintf("%+v", c.Subnegotiation))
	} else if str, err := plugin.SubnegotiationString(c.Subnegotiation); err == nil {
		sb.WriteString(str)
	} else {
		sb.WriteString(fmt.Sprintf("%+v", c.Subnegotiation))
	}

	sb.WriteString(" IAC SE")
	return sb.String()
}

// WaitForExit blocks until the session has ceased operation, either because
// the context passed to Build was cancelled or because the underlying
// streams closed.
func (s *Session) WaitForExit() error {
	s.keyboard.waitForExit()
	return s.printer.waitForExit()
}

// RegisterEncounteredErrorHook registers a hook fired for anomalies and
// fatal errors encountered by the session or a subsidiary that aren't
// returned directly to the caller.
func (s *Session) RegisterEncounteredErrorHook(h ErrorHandler) {
	s.hooks.encounteredError.Register(EventHook[error](h))
}

// RegisterSubmitHook registers a hook fired once per complete line of
// application text received from the peer, and once for any partial line
// pending when the peer marks a prompt.
func (s *Session) RegisterSubmitHook(h SubmitHandler) {
	s.hooks.submit.Register(EventHook[SubmitData](h))
}

// RegisterNegotiationOutHook registers a hook fired whenever a negotiation
// or subnegotiation command is sent, primarily useful for debug logging.
func (s *Session) RegisterNegotiationOutHook(h NegotiationOutHandler) {
	s.hooks.negotiationOut.Register(EventHook[NegotiationOutData](h))
}

// RegisterNAWSHook registers a hook fired when the peer reports a new
// terminal size via NAWS.
func (s *Session) RegisterNAWSHook(h NAWSHandler) {
	s.hooks.naws.Register(EventHook[NAWSData](h))
}

// RegisterPromptHook registers a hook fired when the peer marks a prompt
// boundary (IAC EOR).
func (s *Session) RegisterPromptHook(h PromptHandler) {
	s.hooks.prompt.Register(EventHook[struct{}](h))
}

// RegisterGMCPHook registers a hook fired for each decoded GMCP message.
func (s *Session) RegisterGMCPHook(h GMCPHandler) {
	s.hooks.gmcp.Register(EventHook[GMCPData](h))
}

// RegisterMSSPRequestHook registers a hook fired when the peer sends an
// MSSP config.
func (s *Session) RegisterMSSPRequestHook(h MSSPRequestHandler) {
	s.hooks.msspRequest.Register(EventHook[MSSPData](h))
}

// RegisterEnvironmentHook registers a hook fired when the peer sends
// NEW-ENVIRON/ENVIRON variables.
func (s *Session) RegisterEnvironmentHook(h EnvironmentHandler) {
	s.hooks.environment.Register(EventHook[EnvironmentData](h))
}

// RegisterTerminalSpeedHook registers a hook fired when the peer reports its
// TSPEED transmit/receive baud.
func (s *Session) RegisterTerminalSpeedHook(h TerminalSpeedHandler) {
	s.hooks.terminalSpeed.Register(EventHook[TerminalSpeedData](h))
}

// RegisterXDisplayHook registers a hook fired when the peer reports its
// X-DISPLAY-LOCATION.
func (s *Session) RegisterXDisplayHook(h XDisplayHandler) {
	s.hooks.xdisplay.Register(EventHook[string](h))
}

// RegisterFlowControlStateHook registers a hook fired when the peer toggles
// flow control via TOGGLE-FLOW-CONTROL.
func (s *Session) RegisterFlowControlStateHook(h FlowControlStateHandler) {
	s.hooks.flowControlState.Register(EventHook[FlowControlStateData](h))
}

// RegisterFlowControlRestartModeHook registers a hook fired when the peer
// changes its RESTART-ANY/RESTART-XON preference.
func (s *Session) RegisterFlowControlRestartModeHook(h FlowControlRestartModeHandler) {
	s.hooks.flowControlRestart.Register(EventHook[FlowControlRestartModeData](h))
}

// RegisterCompressionStateHook registers a hook fired whenever an MCCP
// stream starts or stops.
func (s *Session) RegisterCompressionStateHook(h CompressionStateHandler) {
	s.hooks.compressionState.Register(EventHook[CompressionStateData](h))
}

// RegisterAuthRequestHook registers a hook fired when the peer sends an
// AUTHENTICATION SEND request.
func (s *Session) RegisterAuthRequestHook(h AuthRequestHandler) {
	s.hooks.authRequest.Register(EventHook[AuthRequestData](h))
}

// RegisterAuthResponseHook registers a hook fired when the peer sends an
// AUTHENTICATION IS reply.
func (s *Session) RegisterAuthResponseHook(h AuthResponseHandler) {
	s.hooks.authResponse.Register(EventHook[AuthResponseData](h))
}
