package filehandler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func logMessage(t testing.TB, h handler.Handler, msg string) {
	t.Helper()
	entry := core.GetEntry()
	entry.Time = time.Now()
	entry.Level = core.InfoLevel
	entry.Message = msg
	err := h.Handle(entry)
	core.PutEntry(entry)
	require.NoError(t, err)
}

func readLines(t *testing.T, filename string) []string {
	t.Helper()
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// fakeClock advances one millisecond per call.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestNewFileHandler_Validation(t *testing.T) {
	_, err := NewFileHandler(FileConfig{})
	assert.Error(t, err)

	_, err = NewFileHandler(FileConfig{Filename: "x.log", QueueCapacity: -1})
	assert.Error(t, err)
}

func TestAsyncFileHandler_FIFOOrder(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.log")
	h, err := NewFileHandler(FileConfig{Filename: filename, Async: true, QueueCapacity: 8, BlockTimeout: -1})
	require.NoError(t, err)
	require.IsType(t, &AsyncFileHandler{}, h)

	for i := 0; i < 500; i++ {
		logMessage(t, h, fmt.Sprintf("msg-%03d", i))
	}
	require.NoError(t, h.Close())

	lines := readLines(t, filename)
	require.Len(t, lines, 500)
	for i, line := range lines {
		assert.True(t, strings.HasSuffix(line, fmt.Sprintf("[INFO] msg-%03d", i)), "line %d: %q", i, line)
	}
}

func TestAsyncFileHandler_FlushIsDurable(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.log")
	h, err := NewFileHandler(FileConfig{Filename: filename, Async: true})
	require.NoError(t, err)
	defer h.Close()

	logMessage(t, h, "one")
	logMessage(t, h, "two")
	require.NoError(t, handler.Flush(context.Background(), h))

	lines := readLines(t, filename)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "one")
	assert.Contains(t, lines[1], "two")
}

func TestFileHandler_LazyOpen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	h, err := NewFileHandler(FileConfig{Filename: filename, Async: true})
	require.NoError(t, err)

	_, err = os.Stat(filename)
	assert.True(t, os.IsNotExist(err), "file must not exist before the first record")

	logMessage(t, h, "hello")
	require.NoError(t, h.Close())
	assert.FileExists(t, filename)
}

func TestAsyncFileHandler_OpenFailureIsReportedAndRetried(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	filename := filepath.Join(blocker, "app.log")

	var mu sync.Mutex
	var reported []error
	h, err := NewFileHandler(FileConfig{
		Filename: filename,
		Async:    true,
		ErrorReporter: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	logMessage(t, h, "lost")
	require.NoError(t, handler.Flush(context.Background(), h))

	mu.Lock()
	require.Len(t, reported, 1)
	var we *handler.WriteError
	require.True(t, errors.As(reported[0], &we))
	assert.Equal(t, "open", we.Op)
	assert.Equal(t, filename, we.Path)
	mu.Unlock()

	require.NoError(t, os.Remove(blocker))
	logMessage(t, h, "kept")
	require.NoError(t, h.Close())

	lines := readLines(t, filename)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")

	snap := h.(handler.StatsProvider).Stats()
	assert.EqualValues(t, 1, snap.Failed)
	assert.EqualValues(t, 1, snap.Processed)
}

func TestSyncFileHandler_ReturnsWriteErrors(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	h, err := NewFileHandler(FileConfig{Filename: filepath.Join(blocker, "app.log")})
	require.NoError(t, err)
	defer h.Close()

	entry := core.GetEntry()
	defer core.PutEntry(entry)
	var we *handler.WriteError
	require.ErrorAs(t, h.Handle(entry), &we)
	assert.Equal(t, "open", we.Op)
}

func entryWith(msg string) *core.Entry {
	return &core.Entry{Time: time.Now(), Level: core.InfoLevel, Message: msg}
}

func TestFileSink_RecoversAfterFailedWrite(t *testing.T) {
	tests := []struct {
		name    string
		bufSize int
		// fail breaks the open descriptor and returns the resulting error.
		fail func(s *fileSink) error
	}{
		{
			name:    "unbuffered write",
			bufSize: 16,
			fail: func(s *fileSink) error {
				return s.Write(entryWith("this line is longer than the buffer"))
			},
		},
		{
			name:    "flush on sync",
			bufSize: 4096,
			fail: func(s *fileSink) error {
				if err := s.Write(entryWith("stays buffered")); err != nil {
					return err
				}
				return s.Sync()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			cfg := FileConfig{Filename: path, WriteBufferSize: tt.bufSize}
			applyFileDefaults(&cfg)
			s := newFileSink(cfg)
			defer s.Close()

			require.NoError(t, s.Write(entryWith("before")))
			require.NoError(t, s.Sync())

			// Close the descriptor behind the sink's back, like a device
			// that stops accepting writes.
			require.NoError(t, s.file.Close())
			var we *handler.WriteError
			require.ErrorAs(t, tt.fail(s), &we)
			assert.Equal(t, "write", we.Op)
			assert.ErrorIs(t, we, os.ErrClosed)

			require.NoError(t, s.Write(entryWith("after-recovery")))
			require.NoError(t, s.Sync())

			lines := readLines(t, path)
			assert.Contains(t, lines[0], "before")
			assert.Contains(t, lines[len(lines)-1], "after-recovery")
		})
	}
}

func TestFileHandler_AppendsToExistingFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(filename, []byte("previous run\n"), 0644))

	h, err := NewFileHandler(FileConfig{Filename: filename})
	require.NoError(t, err)
	logMessage(t, h, "this run")
	require.NoError(t, h.Close())

	lines := readLines(t, filename)
	require.Len(t, lines, 2)
	assert.Equal(t, "previous run", lines[0])
	assert.Contains(t, lines[1], "this run")
}

func TestFileHandler_HandleAfterClose(t *testing.T) {
	for _, async := range []bool{false, true} {
		t.Run(fmt.Sprintf("async=%v", async), func(t *testing.T) {
			h, err := NewFileHandler(FileConfig{Filename: filepath.Join(t.TempDir(), "app.log"), Async: async})
			require.NoError(t, err)
			require.NoError(t, h.Close())
			require.NoError(t, h.Close())

			entry := core.GetEntry()
			defer core.PutEntry(entry)
			assert.ErrorIs(t, h.Handle(entry), handler.ErrHandlerClosed)
		})
	}
}

func TestFileHandler_MaxBackups(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.log")
	h, err := NewFileHandler(FileConfig{
		Filename:   filename,
		MaxSize:    100, // small size to trigger rotation
		MaxBackups: 2,
	})
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink := h.(*SyncFileHandler).sink
	sink.now = clock.now

	for i := 0; i < 100; i++ {
		logMessage(t, h, "This is a test message that will trigger rotation")
	}
	require.NoError(t, h.Close())

	assert.Len(t, sink.backups(), 2)
	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(200))
}

func TestFileHandler_RotateInterval(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.log")
	h, err := NewFileHandler(FileConfig{
		Filename:       filename,
		RotateInterval: time.Hour,
	})
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink := h.(*SyncFileHandler).sink
	sink.now = clock.now

	logMessage(t, h, "first")
	clock.advance(2 * time.Hour)
	logMessage(t, h, "second")
	require.NoError(t, h.Close())

	backups := sink.backups()
	require.Len(t, backups, 1)
	assert.Contains(t, readLines(t, backups[0])[0], "first")
	current := readLines(t, filename)
	require.Len(t, current, 1)
	assert.Contains(t, current[0], "second")
}

// plainFormatter only implements Format.
type plainFormatter struct{}

func (plainFormatter) Format(e *core.Entry) ([]byte, error) {
	return []byte(e.Level.String() + " " + e.Message + "\n"), nil
}

func TestFileHandler_FormatterWithoutBuffer(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.log")
	h, err := NewFileHandler(FileConfig{Filename: filename, Formatter: plainFormatter{}, Async: true})
	require.NoError(t, err)

	logMessage(t, h, "plain")
	require.NoError(t, h.Close())
	assert.Equal(t, []string{"INFO plain"}, readLines(t, filename))
}

func TestFileHandler_JSON(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.json")
	h, err := NewFileHandler(FileConfig{
		Filename:  filename,
		Formatter: formatter.NewJSONFormatter(formatter.Config{}),
		Async:     true,
	})
	require.NoError(t, err)

	logMessage(t, h, "structured")
	require.NoError(t, h.Close())
	assert.Contains(t, readLines(t, filename)[0], `"message":"structured"`)
}

func BenchmarkAsyncFileHandler(b *testing.B) {
	h, err := NewFileHandler(FileConfig{
		Filename:      filepath.Join(b.TempDir(), "bench.log"),
		Async:         true,
		QueueCapacity: 4096,
		BlockTimeout:  -1,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer h.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logMessage(b, h, "benchmark message")
	}
}
