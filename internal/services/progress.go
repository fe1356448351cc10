package services

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Lllllllleong/docpipeline/internal/models"
)

// ProgressFunc observes document progress. It is called synchronously from
// the processing goroutine and should return quickly.
type ProgressFunc func(models.ProgressStatus)

// Fanout delivers every update to each non-nil subscriber in order.
func Fanout(subscribers ...ProgressFunc) ProgressFunc {
	active := make([]ProgressFunc, 0, len(subscribers))
	for _, fn := range subscribers {
		if fn != nil {
			active = append(active, fn)
		}
	}
	return func(s models.ProgressStatus) {
		for _, fn := range active {
			fn(s)
		}
	}
}

// LogReporter writes updates to logger; in-flight updates at debug level.
func LogReporter(logger *slog.Logger) ProgressFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(s models.ProgressStatus) {
		attrs := []any{"documentId", s.DocumentID, "status", s.Status, "progress", s.Progress}
		switch s.Status {
		case models.StatusError:
			logger.Warn(s.Message, append(attrs, "error", s.Error)...)
		case models.StatusCompleted:
			logger.Info(s.Message, attrs...)
		default:
			logger.Debug(s.Message, attrs...)
		}
	}
}

// ChannelReporter hands updates to a consumer goroutine over a bounded
// channel. When the buffer is full, in-flight updates are dropped; terminal
// updates wait for room.
type ChannelReporter struct {
	mu      sync.Mutex
	ch      chan models.ProgressStatus
	closed  bool
	dropped atomic.Int64
}

// NewChannelReporter creates a reporter buffering up to size updates.
func NewChannelReporter(size int) *ChannelReporter {
	return &ChannelReporter{ch: make(chan models.ProgressStatus, max(size, 1))}
}

// Report is a ProgressFunc. Updates after Close are discarded.
func (r *ChannelReporter) Report(s models.ProgressStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if s.Status.Terminal() {
		r.ch <- s
		return
	}
	select {
	case r.ch <- s:
	default:
		r.dropped.Add(1)
	}
}

// Updates is closed by Close after the last update.
func (r *ChannelReporter) Updates() <-chan models.ProgressStatus {
	return r.ch
}

func (r *ChannelReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
}

// Dropped returns how many in-flight updates were discarded.
func (r *ChannelReporter) Dropped() int64 {
	return r.dropped.Load()
}
