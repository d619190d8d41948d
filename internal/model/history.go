package model

// DefaultHistoryCap is the number of snapshots retained when no capacity is given.
const DefaultHistoryCap = 100

// HistoryBuffer is a fixed-size ring buffer of snapshots in arrival order.
// When the buffer is full, an append overwrites the oldest entry.
// HistoryBuffer is not safe for concurrent use; Store guards it.
type HistoryBuffer struct {
	buf  []*Snapshot
	head int // index of the next write position
	size int // number of valid entries
}

// NewHistoryBuffer creates a HistoryBuffer with the given capacity.
// If capacity <= 0, DefaultHistoryCap (100) is used.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &HistoryBuffer{
		buf: make([]*Snapshot, capacity),
	}
}

// Append adds s as the newest entry, evicting the oldest if full.
func (h *HistoryBuffer) Append(s *Snapshot) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries.
func (h *HistoryBuffer) Len() int {
	return h.size
}

// Cap returns the fixed capacity.
func (h *HistoryBuffer) Cap() int {
	return len(h.buf)
}

// Clear resets the buffer to empty.
func (h *HistoryBuffer) Clear() {
	for i := range h.buf {
		h.buf[i] = nil
	}
	h.head = 0
	h.size = 0
}

// Chronological returns the entries oldest first. The returned slice is a copy.
func (h *HistoryBuffer) Chronological() []*Snapshot {
	out := make([]*Snapshot, h.size)
	// oldest entry sits at (head - size + cap) % cap
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// RecentFirst returns the entries newest first. The returned slice is a copy
// and the backing order is untouched.
func (h *HistoryBuffer) RecentFirst() []*Snapshot {
	out := make([]*Snapshot, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.head-1-i+len(h.buf))%len(h.buf)]
	}
	return out
}
