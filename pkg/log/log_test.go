package log

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	_, _, err := InitLogger(&Config{Level: "loud", Stdout: true})
	require.Error(t, err)
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	lg, props, err := InitLogger(&Config{Level: "warn", File: FileLogConfig{Filename: path}})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, props.Level.Level())
	assert.False(t, lg.Core().Enabled(zapcore.InfoLevel))
	lg.Warn("room emptied", FieldRoom("lobby"))
	require.NoError(t, lg.Sync())
	assert.FileExists(t, path)
}

func TestInitLoggerRejectsDirectory(t *testing.T) {
	_, _, err := InitLogger(&Config{File: FileLogConfig{Filename: t.TempDir()}})
	require.Error(t, err)
}

func TestReplaceGlobals(t *testing.T) {
	oldL, oldP := L(), _globalP.Load().(*ZapProperties)
	defer ReplaceGlobals(oldL, oldP)

	lg, props, err := InitTestLogger(t, &Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	ReplaceGlobals(lg, props)
	assert.Equal(t, zapcore.DebugLevel, GetLevel())

	SetLevel(zapcore.ErrorLevel)
	assert.Equal(t, zapcore.ErrorLevel, GetLevel())
	Info("suppressed", zap.String("k", "v"))
}

// fakeT collects log lines and cleanups the way *testing.T would run them.
type fakeT struct {
	lines    []string
	cleanups []func()
	failed   bool
}

func (f *fakeT) Logf(format string, args ...any) {
	f.lines = append(f.lines, fmt.Sprintf(format, args...))
}

func (f *fakeT) Errorf(format string, args ...any) {
	f.Logf(format, args...)
	f.failed = true
}

func (f *fakeT) Fail()             { f.failed = true }
func (f *fakeT) FailNow()          { f.failed = true }
func (f *fakeT) Failed() bool      { return f.failed }
func (f *fakeT) Name() string      { return "fake" }
func (f *fakeT) Cleanup(fn func()) { f.cleanups = append(f.cleanups, fn) }

func (f *fakeT) finish() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
}

func TestSetupTestLogger(t *testing.T) {
	before := L()
	ft := &fakeT{}
	SetupTestLogger(ft)

	derived := With(FieldModule("relay"))
	derived.Info("session joined room", FieldRoom("lobby"))
	require.Len(t, ft.lines, 1)
	assert.Contains(t, ft.lines[0], "session joined room")
	assert.Contains(t, ft.lines[0], "lobby")

	ft.finish()
	assert.Same(t, before, L())

	derived.Info("late line")
	assert.Len(t, ft.lines, 1)
	assert.False(t, ft.failed)
}
