package interview

// History is a bounded ring of the most recent transcript entries, used as
// prompt context and as the input to coverage scoring. Oldest entries are
// evicted first. Not safe for concurrent use; the engine guards it.
type History struct {
	entries []TranscriptEntry
	max     int
}

// NewHistory creates a history capped at max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &History{max: max}
}

// Append adds an entry, evicting the oldest if the cap is reached.
func (h *History) Append(e TranscriptEntry) {
	if len(h.entries) >= h.max {
		// Shift instead of re-slicing so the backing array does not grow
		// without bound over a long interview.
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = e
		return
	}
	h.entries = append(h.entries, e)
}

// Entries returns a copy of the current history, oldest first.
func (h *History) Entries() []TranscriptEntry {
	out := make([]TranscriptEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Last returns a copy of the most recent k entries, oldest first.
func (h *History) Last(k int) []TranscriptEntry {
	if k <= 0 || len(h.entries) == 0 {
		return nil
	}
	if k > len(h.entries) {
		k = len(h.entries)
	}
	out := make([]TranscriptEntry, k)
	copy(out, h.entries[len(h.entries)-k:])
	return out
}

// Len returns the number of buffered entries.
func (h *History) Len() int { return len(h.entries) }
