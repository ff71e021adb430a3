package interview

import (
	"sync"
	"time"
)

// RunFunc executes one analysis cycle over a batch of flushed entries. It is
// never invoked concurrently with itself; the batch may be empty when a cycle
// was forced without queued entries.
type RunFunc func(batch []TranscriptEntry)

// Scheduler coalesces bursts of flushed entries into single analysis cycles.
// Every enqueue re-arms a single quiet-period timer; when it fires the whole
// queue is swapped out atomically and handed to one cycle. While a cycle is
// running new entries keep queueing and are picked up on the next fire, so
// cycles never overlap, no entry is analyzed twice and none is dropped.
type Scheduler struct {
	mu      sync.Mutex
	window  time.Duration
	run     RunFunc
	queue   []TranscriptEntry
	timer   *time.Timer
	running bool
	closed  bool
}

// NewScheduler creates a scheduler with the given quiet window.
func NewScheduler(window time.Duration, run RunFunc) *Scheduler {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	return &Scheduler{window: window, run: run}
}

// Enqueue appends an entry and restarts the quiet-period timer.
func (s *Scheduler) Enqueue(e TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, e)
	s.armLocked()
}

// Kick fires a cycle immediately, without waiting for the quiet window. Used
// for explicit guidance requests. The cycle may run with an empty batch.
func (s *Scheduler) Kick() {
	go s.fire()
}

// Pending returns the number of entries waiting for the next cycle.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops the timer and drops any queued entries. No cycle starts after
// Close returns, though an in-flight cycle may still be finishing.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.queue = nil
}

// armLocked restarts the quiet-period timer. Caller holds s.mu.
func (s *Scheduler) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.fire)
}

// fire runs one analysis cycle if none is in flight. If a cycle is already
// running the queue is left intact for the next fire.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || s.running {
		s.mu.Unlock()
		return
	}
	batch := s.queue
	s.queue = nil
	s.running = true
	s.mu.Unlock()

	s.run(batch)

	s.mu.Lock()
	s.running = false
	// Entries that arrived during the cycle would otherwise wait forever on a
	// quiet session; give them a fresh quiet window.
	rearm := !s.closed && len(s.queue) > 0
	if rearm {
		s.armLocked()
	}
	s.mu.Unlock()
}
