package testutils

import (
	"strings"
	"sync"

	"peon/pkg/macrotypes"
)

// RecordingReporter keeps every reported message.
type RecordingReporter struct {
	mu       sync.Mutex
	messages []macrotypes.Message
	clears   int
}

// NewRecordingReporter creates an empty reporter.
func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{}
}

// Report records msg.
func (r *RecordingReporter) Report(msg macrotypes.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// ClearQueued counts the call; recorded messages are kept for assertions.
func (r *RecordingReporter) ClearQueued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

// Messages returns a copy of the recorded messages.
func (r *RecordingReporter) Messages() []macrotypes.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]macrotypes.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Clears returns how many times ClearQueued was called.
func (r *RecordingReporter) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

// Contains reports whether any message contains substr.
func (r *RecordingReporter) Contains(substr string) bool {
	for _, m := range r.Messages() {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}
