// Package chat delivers engine messages to the player. Messages are queued as
// they are reported and written out in batches, so a burst of loop echoes never
// blocks the engine.
package chat

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

const (
	defaultPrefix   = "[peon]"
	defaultCapacity = 256
)

// Reporter is a queued macrotypes.Reporter.
type Reporter struct {
	mu       sync.Mutex
	queue    []macrotypes.Message
	prefix   string
	plain    bool
	capacity int
	logger   *log.Logger
}

var _ macrotypes.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter with the given options.
func NewReporter(options ...Option) *Reporter {
	r := &Reporter{
		prefix:   defaultPrefix,
		capacity: defaultCapacity,
		logger:   logger.NewStyledLogger("Chat"),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Report queues a message for the next flush.
func (r *Reporter) Report(msg macrotypes.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) >= r.capacity {
		r.logger.Warn("Chat queue full, dropping oldest message", "text", r.queue[0].Text)
		r.queue = r.queue[1:]
	}
	r.queue = append(r.queue, msg)
}

// ClearQueued drops every message not yet flushed.
func (r *Reporter) ClearQueued() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		r.logger.Debug("Clearing queued messages", "count", len(r.queue))
	}
	r.queue = nil
}

// Pending returns the number of queued messages.
func (r *Reporter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Flush writes every queued message to w, one per line.
func (r *Reporter) Flush(w io.Writer) error {
	r.mu.Lock()
	batch := r.queue
	r.queue = nil
	r.mu.Unlock()

	for i, msg := range batch {
		if _, err := fmt.Fprintln(w, r.Render(msg)); err != nil {
			// Keep what was not written.
			r.requeue(batch[i:])
			return fmt.Errorf("failed to write chat message: %w", err)
		}
	}
	return nil
}

// Run flushes to w every interval until ctx is done, then flushes once more.
func (r *Reporter) Run(ctx context.Context, w io.Writer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.Flush(w)
		case <-ticker.C:
			if err := r.Flush(w); err != nil {
				r.logger.Error("Chat flush failed", "error", err)
			}
		}
	}
}

// Render formats one message as it appears in chat.
func (r *Reporter) Render(msg macrotypes.Message) string {
	line := r.prefix + " " + msg.Text
	if r.plain {
		return line
	}

	color := colorFor(msg)
	if color == macrotypes.ColorDefault {
		return line
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(line)
}

func (r *Reporter) requeue(msgs []macrotypes.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(append([]macrotypes.Message(nil), msgs...), r.queue...)
}

// colorFor picks the message hint, falling back to a severity color.
func colorFor(msg macrotypes.Message) macrotypes.Color {
	if msg.Hint != macrotypes.ColorDefault {
		return msg.Hint
	}
	switch msg.Severity {
	case macrotypes.SeverityWarning:
		return macrotypes.ColorYellow
	case macrotypes.SeverityError:
		return macrotypes.ColorRed
	default:
		return macrotypes.ColorDefault
	}
}
