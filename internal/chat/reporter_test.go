package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peon/pkg/macrotypes"
)

// syncBuffer is a bytes.Buffer safe for the flush goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after == 0 {
		return 0, errors.New("closed")
	}
	w.after--
	return len(p), nil
}

func info(text string) macrotypes.Message {
	return macrotypes.Message{Text: text, Severity: macrotypes.SeverityInfo}
}

func TestReporter_FlushWritesQueuedMessages(t *testing.T) {
	r := NewReporter(PlainText())
	r.Report(info("Looping"))
	r.Report(macrotypes.Message{Text: "Required quality was not found", Severity: macrotypes.SeverityWarning, Hint: macrotypes.ColorRed})
	assert.Equal(t, 2, r.Pending())

	var buf bytes.Buffer
	require.NoError(t, r.Flush(&buf))

	assert.Equal(t, "[peon] Looping\n[peon] Required quality was not found\n", buf.String())
	assert.Zero(t, r.Pending())
}

func TestReporter_ClearQueued(t *testing.T) {
	r := NewReporter(PlainText())
	r.Report(info("one"))
	r.Report(info("two"))

	r.ClearQueued()

	var buf bytes.Buffer
	require.NoError(t, r.Flush(&buf))
	assert.Empty(t, buf.String())
}

func TestReporter_WithPrefix(t *testing.T) {
	r := NewReporter(PlainText(), WithPrefix("[macro]"))
	assert.Equal(t, "[macro] hello", r.Render(info("hello")))
}

func TestReporter_CapacityDropsOldest(t *testing.T) {
	r := NewReporter(PlainText(), WithCapacity(2))
	r.Report(info("one"))
	r.Report(info("two"))
	r.Report(info("three"))

	var buf bytes.Buffer
	require.NoError(t, r.Flush(&buf))
	assert.Equal(t, "[peon] two\n[peon] three\n", buf.String())
}

func TestReporter_FailedWriteKeepsRemainder(t *testing.T) {
	r := NewReporter(PlainText())
	r.Report(info("one"))
	r.Report(info("two"))
	r.Report(info("three"))

	err := r.Flush(&failingWriter{after: 1})
	require.Error(t, err)
	assert.Equal(t, 2, r.Pending())

	var buf bytes.Buffer
	require.NoError(t, r.Flush(&buf))
	assert.Equal(t, "[peon] two\n[peon] three\n", buf.String())
}

func TestReporter_Run(t *testing.T) {
	r := NewReporter(PlainText())
	buf := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, buf, 5*time.Millisecond) }()

	r.Report(info("first"))
	assert.Eventually(t, func() bool { return strings.Contains(buf.String(), "first") }, time.Second, 5*time.Millisecond)

	r.Report(info("last"))
	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, buf.String(), "[peon] last")
}

func TestReporter_ConcurrentReports(t *testing.T) {
	r := NewReporter(PlainText())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(info(fmt.Sprintf("msg %d", i)))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Pending())
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, macrotypes.ColorOrange, colorFor(macrotypes.Message{Severity: macrotypes.SeverityError, Hint: macrotypes.ColorOrange}))
	assert.Equal(t, macrotypes.ColorRed, colorFor(macrotypes.Message{Severity: macrotypes.SeverityError}))
	assert.Equal(t, macrotypes.ColorYellow, colorFor(macrotypes.Message{Severity: macrotypes.SeverityWarning}))
	assert.Equal(t, macrotypes.ColorDefault, colorFor(macrotypes.Message{Severity: macrotypes.SeverityInfo}))
}

func TestReporter_RenderStyledKeepsText(t *testing.T) {
	r := NewReporter()
	rendered := r.Render(macrotypes.Message{Text: "Peon has died unexpectedly", Severity: macrotypes.SeverityError})
	assert.Contains(t, rendered, "[peon] Peon has died unexpectedly")
}
