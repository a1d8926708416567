package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const filePrefix = "audit"

// Writer appends events to one zstd compressed JSONL file per day. Nothing
// is written while the writer is disabled.
type Writer struct {
	dir     string
	enabled atomic.Bool
	now     func() time.Time

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

type WriterOpt func(*Writer)

// WithClock replaces the wall clock used for timestamps and file rotation.
func WithClock(now func() time.Time) WriterOpt {
	return func(w *Writer) {
		w.now = now
	}
}

// WithEnabled sets whether events are written.
func WithEnabled(enabled bool) WriterOpt {
	return func(w *Writer) {
		w.enabled.Store(enabled)
	}
}

func NewWriter(dir string, opts ...WriterOpt) *Writer {
	w := &Writer{
		dir: dir,
		now: time.Now,
	}
	w.enabled.Store(true)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Enabled() bool {
	return w.enabled.Load()
}

// SetEnabled toggles writing. Disabling closes the current file.
func (w *Writer) SetEnabled(enabled bool) {
	w.enabled.Store(enabled)
	if !enabled {
		if err := w.Close(); err != nil {
			slog.Warn("closing audit file", "error", err)
		}
	}
}

// Record writes ev, filling in its id and time. Failures are logged.
func (w *Writer) Record(ctx context.Context, ev Event) {
	if !w.Enabled() {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Time.IsZero() {
		ev.Time = w.now().UTC()
	}

	err := w.write(ev)
	if err != nil {
		slog.WarnContext(ctx, "writing audit event", "kind", ev.Kind, "error", err)
	}
}

func (w *Writer) write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := ev.Time.UTC().Format(time.DateOnly)
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Start keeps the writer open until ctx is done.
func (w *Writer) Start(ctx context.Context) error {
	<-ctx.Done()
	return w.Close()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// PathForDay returns the file events of day (YYYY-MM-DD) are written to.
func (w *Writer) PathForDay(day string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", filePrefix, day))
}

func (w *Writer) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForDay(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curDay = day
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curDay = ""
	return err
}
