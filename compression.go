package telnet

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressionState is the mid-stream MCCP splice (C7). MCCP2 compresses
// server-to-client traffic once the client has agreed to COMPRESS2; MCCP3
// compresses client-to-server traffic. Both are plain zlib streams (RFC
// 1950) laid directly over the raw connection bytes - there is no further
// telnet framing inside them, which is exactly what makes the splice
// boundary delicate: everything up to and including the IAC SE that closed
// the enabling subnegotiation is plaintext telnet, and every byte after it
// is zlib.
type compressionState struct {
	session *Session

	decompressing bool
	pendingSplice bool
	reader        io.Reader
}

func newCompressionState(session *Session) *compressionState {
	return &compressionState{session: session}
}

// ArmSplice is called by the COMPRESS2/MCCP3 plugin the instant its enabling
// subnegotiation is accepted, from within the same synchronous event
// delivery that produced it. It does not itself touch the input reader -
// that happens in the printer's feed loop, which is the only component holding the
// raw bytes still unconsumed past the boundary.
func (c *compressionState) ArmSplice() {
	c.pendingSplice = true
}

// shouldStop is handed to decoder.Feed: the decoder calls it after every
// byte, and the printer's feed loop uses a true result to know exactly how many bytes
// of the current read it already handed to the decoder before the splice
// must happen.
func (c *compressionState) shouldStop() bool {
	return c.pendingSplice
}

// Splice installs a zlib reader over the remainder of data (the bytes the
// decoder did not consume before the splice point) followed by whatever
// further raw bytes arrive from rawReader. Every subsequent read from the
// session's input should go through Reader() instead of rawReader directly.
func (c *compressionState) Splice(remainder []byte, rawReader io.Reader) error {
	c.pendingSplice = false

	combined := io.MultiReader(bytes.NewReader(remainder), rawReader)
	zr, err := zlib.NewReader(combined)
	if err != nil {
		return CompressionError{Version: OptionMCCP2, Err: err}
	}

	c.reader = zr
	c.decompressing = true
	return nil
}

// Reader returns the reader the printer's feed loop should currently be pulling raw
// bytes from: the spliced zlib stream once compression has been negotiated
// and installed, or rawReader otherwise.
func (c *compressionState) Reader(rawReader io.Reader) io.Reader {
	if c.decompressing {
		return c.reader
	}
	return rawReader
}

// End drops back to raw, uncompressed bytes. Neither the printer nor the
// COMPRESS2/COMPRESS3 plugins call it: a zlib EOF ends the printer's read
// loop, and disabling an MCCP plugin leaves the splice in place.
func (c *compressionState) End() {
	c.decompressing = false
	c.reader = nil
}

// Compressing reports whether inbound bytes are currently being read through
// the zlib splice.
func (c *compressionState) Compressing() bool {
	return c.decompressing
}

// compressWriter wraps a zlib writer for MCCP2 (outbound compression, server
// role) so that keyboard writes transparently flow through it once armed.
type compressWriter struct {
	w  io.Writer
	zw *zlib.Writer
	on bool
}

func newCompressWriter(w io.Writer) *compressWriter {
	return &compressWriter{w: w}
}

// Enable switches subsequent writes to flow through a fresh zlib writer.
// Per MCCP2, this takes effect immediately after the IAC SB COMPRESS2 IAC SE
// that announces it - the caller is responsible for sequencing that frame
// before calling Enable.
func (c *compressWriter) Enable() {
	c.zw = zlib.NewWriter(c.w)
	c.on = true
}

func (c *compressWriter) Disable() error {
	if !c.on {
		return nil
	}
	c.on = false
	err := c.zw.Close()
	c.zw = nil
	return err
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if c.on {
		n, err := c.zw.Write(p)
		if err == nil {
			err = c.zw.Flush()
		}
		return n, err
	}
	return c.w.Write(p)
}
