package telopts_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/duskforge/telnet"
)

// safeBuffer is a mutex-guarded bytes.Buffer, since the session's keyboard
// loop writes on its own goroutine while tests read the accumulated bytes
// from the test goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// newTestSession builds a session with no live peer: reads see immediate EOF
// (nothing arrives unsolicited) and writes land in a safeBuffer the test can
// inspect. side and plugins let each test exercise a plugin in the role and
// configuration it cares about.
func newTestSession(t *testing.T, side telnet.TerminalSide, plugins []telnet.Plugin) (*telnet.Session, *safeBuffer) {
	t.Helper()

	out := &safeBuffer{}
	session, err := telnet.BuildFromPipes(context.Background(), bytes.NewReader(nil), out, telnet.SessionConfig{
		Side:               side,
		DefaultCharsetName: "US-ASCII",
		Plugins:            plugins,
	})
	if err != nil {
		t.Fatalf("BuildFromPipes: %v", err)
	}
	return session, out
}

// waitFor polls cond until it returns true or the timeout elapses, failing
// the test if the timeout is reached first - used to wait for asynchronous
// keyboard-write delivery without a fixed sleep.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("timed out waiting for condition")
	}
}
