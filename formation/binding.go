package formation

// BindingTable is a bidirectional track <-> slot map.
// Both directions are updated together so at most one track maps to a slot and at most one slot maps to a track.
type BindingTable[K comparable] struct {
	slotToTrack map[int]K
	trackToSlot map[K]int
}

// NewBindingTable creates empty BindingTable
func NewBindingTable[K comparable]() *BindingTable[K] {
	return &BindingTable[K]{
		slotToTrack: make(map[int]K),
		trackToSlot: make(map[K]int),
	}
}

// Bind associates track with slot. Any previous binding of either side is removed first.
// Returns the track which held the slot before, if any.
func (bt *BindingTable[K]) Bind(track K, slot int) (K, bool) {
	previous, hadPrevious := bt.slotToTrack[slot]
	if hadPrevious {
		delete(bt.trackToSlot, previous)
	}
	if oldSlot, ok := bt.trackToSlot[track]; ok {
		delete(bt.slotToTrack, oldSlot)
	}
	bt.slotToTrack[slot] = track
	bt.trackToSlot[track] = slot
	if hadPrevious && previous == track {
		var zero K
		return zero, false
	}
	return previous, hadPrevious
}

// UnbindSlot removes binding of the slot in both directions
func (bt *BindingTable[K]) UnbindSlot(slot int) (K, bool) {
	track, ok := bt.slotToTrack[slot]
	if !ok {
		return track, false
	}
	delete(bt.slotToTrack, slot)
	delete(bt.trackToSlot, track)
	return track, true
}

// UnbindTrack removes binding of the track in both directions
func (bt *BindingTable[K]) UnbindTrack(track K) (int, bool) {
	slot, ok := bt.trackToSlot[track]
	if !ok {
		return 0, false
	}
	delete(bt.trackToSlot, track)
	delete(bt.slotToTrack, slot)
	return slot, true
}

// SlotOf returns slot bound to the track
func (bt *BindingTable[K]) SlotOf(track K) (int, bool) {
	slot, ok := bt.trackToSlot[track]
	return slot, ok
}

// TrackOf returns track bound to the slot
func (bt *BindingTable[K]) TrackOf(slot int) (K, bool) {
	track, ok := bt.slotToTrack[slot]
	return track, ok
}

// Len returns number of live bindings
func (bt *BindingTable[K]) Len() int {
	return len(bt.slotToTrack)
}
