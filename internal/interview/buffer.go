package interview

import (
	"strings"
	"sync"
	"time"
)

// FlushFunc receives a finished transcript entry. It must not block; the
// buffer calls it synchronously while holding no accumulator open.
type FlushFunc func(entry TranscriptEntry)

// accumulator is one speaker's in-progress utterance.
type accumulator struct {
	text    strings.Builder
	started time.Time
	timer   *time.Timer
}

// TranscriptBuffer coalesces speech-to-text fragments into complete
// utterances. At most one accumulator is open per speaker; it flushes when
// the producer marks a fragment final, when the accumulated text exceeds
// maxChars, or when no new fragment arrives within the idle window.
type TranscriptBuffer struct {
	mu       sync.Mutex
	maxChars int
	idle     time.Duration
	flush    FlushFunc
	open     map[Speaker]*accumulator
	closed   bool
}

// NewTranscriptBuffer creates a buffer with the given flush thresholds.
func NewTranscriptBuffer(maxChars int, idle time.Duration, flush FlushFunc) *TranscriptBuffer {
	if maxChars <= 0 {
		maxChars = defaultFlushMaxChars
	}
	if idle <= 0 {
		idle = defaultFlushIdle
	}
	return &TranscriptBuffer{
		maxChars: maxChars,
		idle:     idle,
		flush:    flush,
		open:     make(map[Speaker]*accumulator),
	}
}

// Add appends a fragment to the speaker's accumulator, flushing it if any
// completion condition is met. Fragments for a single speaker are flushed in
// arrival order.
func (b *TranscriptBuffer) Add(speaker Speaker, fragment string, isFinal bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" && !isFinal {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	acc := b.open[speaker]
	if acc == nil {
		acc = &accumulator{started: time.Now().UTC()}
		b.open[speaker] = acc
	}
	if fragment != "" {
		if acc.text.Len() > 0 {
			acc.text.WriteString(" ")
		}
		acc.text.WriteString(fragment)
	}

	if isFinal || acc.text.Len() > b.maxChars {
		b.flushLocked(speaker)
		return
	}

	// Re-arm the inactivity timer so a trailing fragment is never stranded.
	if acc.timer != nil {
		acc.timer.Stop()
	}
	acc.timer = time.AfterFunc(b.idle, func() { b.flushIdle(speaker) })
}

// flushIdle is the inactivity-timer path.
func (b *TranscriptBuffer) flushIdle(speaker Speaker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.flushLocked(speaker)
}

// flushLocked finalizes the speaker's accumulator into a TranscriptEntry and
// resets it. Caller holds b.mu.
func (b *TranscriptBuffer) flushLocked(speaker Speaker) {
	acc := b.open[speaker]
	if acc == nil {
		return
	}
	if acc.timer != nil {
		acc.timer.Stop()
	}
	delete(b.open, speaker)

	text := strings.TrimSpace(acc.text.String())
	if text == "" {
		return
	}
	b.flush(TranscriptEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: acc.started,
	})
}

// Close cancels all inactivity timers and discards any open accumulators.
// Nothing flushes after Close.
func (b *TranscriptBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, acc := range b.open {
		if acc.timer != nil {
			acc.timer.Stop()
		}
	}
	b.open = nil
}
