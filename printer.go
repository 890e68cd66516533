package telnet

import (
	"context"
	"errors"
	"io"
	"net"
)

// TelnetPrinter is a Session subsidiary that pulls raw bytes off the wire,
// feeds the byte decoder, and processes every decoded Event synchronously,
// inline, on this same goroutine: negotiation replies, subnegotiation
// dispatch, and hook delivery all happen here, in strict wire arrival order.
// This is deliberate - the ordering guarantee a negotiation reply must be
// sent before any later byte is processed, and the precision an MCCP splice
// needs to begin decoding at exactly the right byte, both require that
// nothing reorders or parallelizes this path. A hook that blocks for a long
// time will delay delivery of all subsequent events.
type TelnetPrinter struct {
	inputStream io.Reader
	decoder     *decoder
	compression *compressionState
	session     *Session
	complete    chan error
}

func newTelnetPrinter(inputStream io.Reader, compression *compressionState, session *Session) *TelnetPrinter {
	printer := &TelnetPrinter{
		inputStream: inputStream,
		compression: compression,
		session:     session,
		complete:    make(chan error, 1),
	}

	printer.decoder = newDecoder(func(err error) {
		session.reportError(err)
	})

	return printer
}

func (p *TelnetPrinter) printerLoop(ctx context.Context) {
	buf := make([]byte, 4096)
	var err error

readLoop:
	for ctx.Err() == nil {
		source := p.compression.Reader(p.inputStream)

		var n int
		n, err = source.Read(buf)
		if n > 0 {
			err = p.feed(buf[:n])
			if err != nil {
				break readLoop
			}
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				err = nil
				continue
			}
			break readLoop
		}
	}

	var compErr CompressionError
	if err != nil && !errors.As(err, &compErr) && p.compression.Compressing() &&
		!errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		compErr = CompressionError{Version: OptionMCCP2, Err: err}
	}
	if compErr.Err != nil {
		p.session.logger.fatal(compErr)
		p.session.hooks.encounteredError.Fire(p.session, compErr)
		p.session.FireCompressionState(compErr.Version, false)
		err = compErr
	}

	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		p.complete <- ctx.Err()
	} else if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		p.complete <- err
	}

	p.complete <- nil
}

// feed drives data through the decoder, restarting exactly at the byte after
// an MCCP splice boundary when the compression state arms mid-read.
func (p *TelnetPrinter) feed(data []byte) error {
	for len(data) > 0 {
		consumed := p.decoder.Feed(data, func(ev Event) {
			p.session.handleDecoderEvent(ev)
		}, p.compression.shouldStop)

		data = data[consumed:]

		if p.compression.shouldStop() {
			if err := p.compression.Splice(data, p.inputStream); err != nil {
				return err
			}
			// Splice installed a new reader over the unconsumed remainder
			// plus whatever raw bytes follow; stop feeding this read buffer
			// and let the next loop iteration pull from it.
			return nil
		}
	}

	return nil
}

// waitForExit will block until the printer is disposed of
func (p *TelnetPrinter) waitForExit() error {
	err := <-p.complete
	p.complete <- err
	return err
}
