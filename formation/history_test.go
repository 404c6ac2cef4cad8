package formation

import (
	"testing"
)

func TestHistoryLogEvictsOldest(t *testing.T) {
	h := NewHistoryLog[string](3)
	for i, track := range []string{"a", "b", "c", "d", "e"} {
		h.Push(HistoryEntry[string]{Track: track, Slot: i + 1})
	}
	if h.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", h.Len())
	}
	entries := h.Entries()
	correct := []string{"c", "d", "e"}
	for i := range correct {
		if entries[i].Track != correct[i] {
			t.Errorf("Entry %d: expected %s, got %s", i, correct[i], entries[i].Track)
		}
	}
}

func TestHistoryLogPartial(t *testing.T) {
	h := NewHistoryLog[int](5)
	h.Push(HistoryEntry[int]{Track: 7, Slot: 1})
	h.Push(HistoryEntry[int]{Track: 8, Slot: 2})
	entries := h.Entries()
	if len(entries) != 2 || entries[0].Track != 7 || entries[1].Track != 8 {
		t.Errorf("Expected [7 8] in insertion order, got %+v", entries)
	}

	visited := 0
	h.Each(func(entry HistoryEntry[int]) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("Each must stop when callback returns false, visited %d", visited)
	}
}

func TestHistoryLogZeroCapacity(t *testing.T) {
	h := NewHistoryLog[int](0)
	h.Push(HistoryEntry[int]{Track: 1, Slot: 1})
	if h.Len() != 0 {
		t.Errorf("Zero capacity history must stay empty, got %d", h.Len())
	}
	if len(h.Entries()) != 0 {
		t.Errorf("Expected no entries")
	}
}
