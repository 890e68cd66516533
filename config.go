package telnet

import "log/slog"

// TerminalSide indicates whether this session represents a client or server.
// Technically telnet is a peer-to-peer protocol, more concerned with "local
// and remote" than "client and server", but a few options (mainly CHARSET
// and NAWS) have distinct behavior for clients and servers.
type TerminalSide byte

const (
	SideUnknown TerminalSide = iota
	SideTerminalClient
	SideTerminalServer
)

// CharsetUsage indicates when charsets negotiated via the CHARSET option are
// used. Per RFC, negotiated charsets are only supposed to be used once
// TRANSMIT-BINARY is active, but many implementations are not so careful.
type CharsetUsage byte

const (
	// CharsetUsageBinary uses the CHARSET-negotiated character set only
	// while the connection is in binary mode, and the default charset
	// otherwise.
	CharsetUsageBinary CharsetUsage = iota
	// CharsetUsageAlways always uses the CHARSET-negotiated character set
	// (once one has been negotiated), regardless of binary mode.
	CharsetUsageAlways
)

// SessionConfig carries everything needed to build a Session.
type SessionConfig struct {
	// Side indicates whether this session is the client or server role. Some
	// options, notably CHARSET and NAWS, behave differently per role.
	Side TerminalSide

	// DefaultCharsetName is the registered IANA name of the character set
	// used for all communication not covered by a negotiated charset. Per
	// RFC 854 the historical default is US-ASCII; RFC 5198 prefers UTF-8.
	DefaultCharsetName string

	// FallbackCharsetName, if set, is used to retry decoding a byte that
	// failed against DefaultCharsetName/the negotiated charset - useful for
	// legacy MUDs that push CP437 without ever negotiating CHARSET.
	FallbackCharsetName string

	// CharsetUsage controls when a CHARSET-negotiated charset supersedes the
	// default.
	CharsetUsage CharsetUsage

	// Plugins is the set of option plugins this session supports. Each
	// plugin's Usage determines whether it is requested at bring-up and
	// whether the remote is permitted to request it.
	Plugins []Plugin

	// EventHooks is the set of callbacks the session will invoke as protocol
	// events occur. Additional hooks can be registered after Build with the
	// Session's Register* methods.
	EventHooks EventHooks

	// Logger receives structured log output for decoder/negotiation
	// anomalies, command traffic, plugin lifecycle, and fatal errors. If
	// nil, slog.Default() is used.
	Logger *slog.Logger
}
