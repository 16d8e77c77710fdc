package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDefault(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetDefault(newBufferLogger(&buf, level).WithCaller(true).Build())
	t.Cleanup(func() { SetDefault(nil) })
	return &buf
}

func TestDefault_CallerIsUserFrame(t *testing.T) {
	buf := withDefault(t, DebugLevel)

	Trace("invisible")
	Debug("d", Int("n", 1))
	Infof("i %d", 2)
	Notice("n")
	Warnf("w %s", "x")
	Error("e")
	With(String("scope", "job")).Info("scoped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.NotContains(t, buf.String(), "invisible")
	assert.Contains(t, lines[1], "[INFO] [default_test.go:")
	assert.Contains(t, lines[5], "scoped scope=job")
	for _, line := range lines {
		assert.Contains(t, line, "[default_test.go:", "caller should be the test, not the package helper")
	}
}

func TestDefault_FatalAndPanic(t *testing.T) {
	buf := withDefault(t, InfoLevel)

	var code int
	origExit := osExit
	osExit = func(c int) { code = c }
	defer func() { osExit = origExit }()

	Fatalf("lost %s", "quorum")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] [default_test.go:")
	assert.Contains(t, buf.String(), "lost quorum")

	assert.PanicsWithValue(t, "bad state 7", func() { Panicf("bad state %d", 7) })
	assert.Contains(t, buf.String(), "[PANIC]")
}

func TestDefault_SetDefaultNilRestoresRegistry(t *testing.T) {
	custom := NewBuilder().WithName("custom").Build()
	SetDefault(custom)
	assert.Same(t, custom, Default())

	SetDefault(nil)
	assert.Same(t, Get(""), Default())
}
