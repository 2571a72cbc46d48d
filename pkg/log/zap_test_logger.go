package log

import (
	"bytes"

	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"
)

// CleanupT is a zaptest.TestingT that can register cleanup functions, as
// *testing.T does.
type CleanupT interface {
	zaptest.TestingT
	Cleanup(func())
}

// SetupTestLogger routes the global logger through t.Logf until t finishes,
// then restores the previous logger. Loggers derived while it is installed
// go quiet once t has finished.
func SetupTestLogger(t CleanupT) {
	prevL, prevP := L(), _globalP.Load().(*ZapProperties)

	writer := newTestingWriter(t)
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: "console"}, writer)
	if err != nil {
		t.Errorf("init test logger: %v", err)
		t.FailNow()
	}
	ReplaceGlobals(lg, props)
	t.Cleanup(func() {
		writer.stopped.Store(true)
		ReplaceGlobals(prevL, prevP)
	})
}

// testingWriter forwards log lines to t.Logf, following zaptest's writer.
type testingWriter struct {
	t          zaptest.TestingT
	markFailed bool
	stopped    *atomic.Bool
}

func newTestingWriter(t zaptest.TestingT) testingWriter {
	return testingWriter{t: t, stopped: atomic.NewBool(false)}
}

func (w testingWriter) WithMarkFailed(v bool) testingWriter {
	w.markFailed = v
	return w
}

func (w testingWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if w.stopped.Load() {
		return n, nil
	}
	// t.Log appends its own newline.
	p = bytes.TrimRight(p, "\n")
	w.t.Logf("%s", p)
	if w.markFailed {
		w.t.Fail()
	}
	return n, nil
}

func (w testingWriter) Sync() error {
	return nil
}
