package telnet

import (
	"log/slog"
)

// sessionLogger wraps the configured *slog.Logger with the level mapping used
// throughout the session: decoder/negotiation/subnegotiation anomalies log at
// Warn, inbound/outbound commands at Debug, plugin enable/disable at Info,
// and compression/configuration failures at Error.
type sessionLogger struct {
	logger *slog.Logger
}

func newSessionLogger(logger *slog.Logger) sessionLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return sessionLogger{logger: logger}
}

func (l sessionLogger) anomaly(err error) {
	l.logger.Warn("telnet anomaly", slog.String("error", err.Error()))
}

func (l sessionLogger) command(direction string, c Command) {
	l.logger.Debug("telnet command",
		slog.String("direction", direction),
		slog.String("opcode", commandName(c.OpCode)),
		slog.Any("option", c.Option))
}

func (l sessionLogger) pluginState(opt OptionCode, side Side, enabled bool) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}

	l.logger.Info("plugin state change",
		slog.Any("option", opt),
		slog.String("side", side.String()),
		slog.String("state", state))
}

func (l sessionLogger) fatal(err error) {
	l.logger.Error("telnet fatal error", slog.String("error", err.Error()))
}
