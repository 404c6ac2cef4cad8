package formation

// HistoryEntry is a past track -> slot binding.
type HistoryEntry[K comparable] struct {
	Track K
	Slot  int
}

// HistoryLog is a fixed capacity ring of past bindings. When full the oldest entry is overwritten.
type HistoryLog[K comparable] struct {
	entries  []HistoryEntry[K]
	capacity int
	head     int // Points to next write position
	size     int // Current number of stored entries
}

// NewHistoryLog creates a new history ring with the given capacity. Zero capacity keeps nothing.
func NewHistoryLog[K comparable](capacity int) *HistoryLog[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &HistoryLog[K]{
		entries:  make([]HistoryEntry[K], capacity),
		capacity: capacity,
	}
}

// Push appends an entry, evicting the oldest one when at capacity
func (h *HistoryLog[K]) Push(entry HistoryEntry[K]) {
	if h.capacity == 0 {
		return
	}
	h.entries[h.head] = entry
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Len returns number of stored entries
func (h *HistoryLog[K]) Len() int {
	return h.size
}

// Each calls fn for every entry from oldest to newest. Iteration stops when fn returns false.
func (h *HistoryLog[K]) Each(fn func(entry HistoryEntry[K]) bool) {
	if h.size == 0 {
		return
	}
	start := (h.head - h.size + h.capacity) % h.capacity
	for i := 0; i < h.size; i++ {
		if !fn(h.entries[(start+i)%h.capacity]) {
			return
		}
	}
}

// Entries returns a copy of stored entries, oldest first
func (h *HistoryLog[K]) Entries() []HistoryEntry[K] {
	out := make([]HistoryEntry[K], 0, h.size)
	h.Each(func(entry HistoryEntry[K]) bool {
		out = append(out, entry)
		return true
	})
	return out
}
