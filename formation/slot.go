package formation

import (
	"math"
)

// neverSeen marks a slot which has not been observed yet
const neverSeen = -1

// SlotState is the last known state of a persistent slot.
type SlotState struct {
	// Slot number in [1, NumDancers]
	Slot int
	// Normalized depth in [0, 1]. +Inf until the slot is observed
	Depth float64
	// Last known grid cell
	Position Cell
	// Frame index of the last observation, -1 if never observed
	LastSeen int
}

// Observed reports whether the slot has been seen at least once
func (s SlotState) Observed() bool {
	return s.LastSeen != neverSeen
}

func seedSlots(numDancers, gridSize int) []SlotState {
	positions := DefaultPositions(numDancers, gridSize)
	slots := make([]SlotState, numDancers)
	for i := range slots {
		slots[i] = SlotState{
			Slot:     i + 1,
			Depth:    math.Inf(1),
			Position: positions[i],
			LastSeen: neverSeen,
		}
	}
	return slots
}
