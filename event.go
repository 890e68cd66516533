package telnet

import "context"

// sessionEventPump serializes notifications from the keyboard's own write
// goroutine (sent commands, write errors) back into hook calls, so that
// goroutine never has to wait on a potentially slow hook. Inbound decoder
// events are handled separately and synchronously by the printer itself,
// since those carry the strict wire-ordering and MCCP-splice-precision
// guarantees; nothing about outbound notification ordering is as delicate.
type pumpEntryKind byte

const (
	pumpAnomaly pumpEntryKind = iota
	pumpOutboundCommand
)

type pumpEntry struct {
	kind pumpEntryKind

	err        error
	outCommand Command
}

type sessionEventPump struct {
	entries chan pumpEntry
}

func newSessionEventPump() *sessionEventPump {
	return &sessionEventPump{
		entries: make(chan pumpEntry, 64),
	}
}

func (p *sessionEventPump) process(session *Session, entry pumpEntry) {
	switch entry.kind {
	case pumpAnomaly:
		session.handleReportedError(entry.err)
	case pumpOutboundCommand:
		session.handleSentCommand(entry.outCommand)
	}
}

func (p *sessionEventPump) loopCleanup(session *Session) {
	close(p.entries)

	for entry := range p.entries {
		p.process(session, entry)
	}
}

// Run drains the pump until ctx is cancelled, then finishes whatever was
// already queued before returning - a session never drops an event it
// already accepted onto the pump.
func (p *sessionEventPump) Run(ctx context.Context, session *Session) {
	defer p.loopCleanup(session)

	for {
		select {
		case entry := <-p.entries:
			p.process(session, entry)
		case <-ctx.Done():
			return
		}
	}
}

func (p *sessionEventPump) Anomaly(err error) {
	p.entries <- pumpEntry{kind: pumpAnomaly, err: err}
}

func (p *sessionEventPump) SentCommand(c Command) {
	p.entries <- pumpEntry{kind: pumpOutboundCommand, outCommand: c}
}
