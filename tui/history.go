// Package tui provides a Bubble Tea terminal UI for textquest sessions.
package tui

// History keeps submitted commands for Up/Down recall. The line being
// typed when recall starts is kept as a draft and comes back when the
// player moves past the newest entry.
type History struct {
	entries []string
	limit   int
	pos     int // len(entries) while not recalling
	draft   string
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Len returns the number of stored commands.
func (h *History) Len() int {
	return len(h.entries)
}

// Push records cmd and ends any recall in progress. Repeating the newest
// entry is not stored twice.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != cmd {
		h.entries = append(h.entries, cmd)
		if len(h.entries) > h.limit {
			h.entries = h.entries[len(h.entries)-h.limit:]
		}
	}
	h.Reset()
}

// Prev steps to the previous command. current is the input line as it
// is now; it becomes the draft when recall starts.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Next steps towards newer commands. Past the newest it returns the draft.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.pos], true
}

// Reset ends recall and drops the draft.
func (h *History) Reset() {
	h.pos = len(h.entries)
	h.draft = ""
}
