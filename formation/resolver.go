package formation

import (
	"log/slog"
	"math"
)

// Reattachment path used to resolve a track.
type Reattachment uint16

const (
	// ReattachNone means the track was not resolved
	ReattachNone Reattachment = iota
	// ReattachBound means the track was already bound to a slot
	ReattachBound
	// ReattachHistory means the slot was taken over from a vanished track found in history
	ReattachHistory
	// ReattachProximity means the nearest known slot was taken over
	ReattachProximity
	// ReattachAllocated means a never used slot was allocated
	ReattachAllocated
	// ReattachRecycled means a slot released by the staleness check was handed out again
	ReattachRecycled
)

func (r Reattachment) String() string {
	switch r {
	case ReattachBound:
		return "bound"
	case ReattachHistory:
		return "history"
	case ReattachProximity:
		return "proximity"
	case ReattachAllocated:
		return "allocated"
	case ReattachRecycled:
		return "recycled"
	default:
		return "none"
	}
}

// Resolver turns ephemeral track identifiers into persistent slot numbers.
// It owns the binding table, the per slot states and the history ring.
type Resolver[K comparable] struct {
	numDancers        int
	distanceThreshold float64
	staleThreshold    int
	// Number of slots handed out so far. Next allocation is allocated+1
	allocated int
	slots     []SlotState
	bindings  *BindingTable[K]
	history   *HistoryLog[K]
	logger    *slog.Logger
}

// NewResolver creates a resolver with every slot seeded at its default position.
// Config is expected to be validated already.
func NewResolver[K comparable](cfg Config, logger *slog.Logger) *Resolver[K] {
	if logger == nil {
		logger = discardLogger()
	}
	return &Resolver[K]{
		numDancers:        cfg.NumDancers,
		distanceThreshold: cfg.DistanceThreshold,
		staleThreshold:    cfg.StaleThreshold,
		slots:             seedSlots(cfg.NumDancers, cfg.GridSize),
		bindings:          NewBindingTable[K](),
		history:           NewHistoryLog[K](cfg.MaxHistory),
		logger:            logger,
	}
}

// Resolve returns the slot for the track observed at cell on the given frame.
// The order is: existing binding, history handoff, proximity to a known slot, fresh allocation,
// reuse of a released slot.
// When every slot is in use it returns false; that is saturation, not an error.
// A resolved slot is claimed for the frame and its position is overwritten with cell.
func (r *Resolver[K]) Resolve(track K, cell Cell, frame int) (int, bool) {
	slot, _ := r.resolve(track, cell, frame)
	return slot, slot != 0
}

func (r *Resolver[K]) resolve(track K, cell Cell, frame int) (int, Reattachment) {
	if slot, ok := r.bindings.SlotOf(track); ok {
		r.claim(slot, cell, frame)
		return slot, ReattachBound
	}
	if slot, ok := r.matchHistory(cell, frame); ok {
		r.handoff(track, slot, cell, frame, ReattachHistory)
		return slot, ReattachHistory
	}
	if slot, ok := r.matchProximity(cell, frame); ok {
		r.handoff(track, slot, cell, frame, ReattachProximity)
		return slot, ReattachProximity
	}
	if r.allocated < r.numDancers {
		r.allocated++
		slot := r.allocated
		r.bindings.Bind(track, slot)
		r.claim(slot, cell, frame)
		r.logger.Debug("slot allocated", "slot", slot, "track", track, "frame", frame)
		return slot, ReattachAllocated
	}
	for slot := 1; slot <= r.allocated; slot++ {
		if _, bound := r.bindings.TrackOf(slot); bound {
			continue
		}
		r.bindings.Bind(track, slot)
		r.claim(slot, cell, frame)
		r.logger.Debug("released slot reused", "slot", slot, "track", track, "frame", frame)
		return slot, ReattachRecycled
	}
	return 0, ReattachNone
}

// available reports whether slot may be taken over by a new track on this frame.
// Only slots handed out before and not yet claimed by another track on the same frame qualify.
func (r *Resolver[K]) available(slot, frame int) bool {
	if slot < 1 || slot > r.allocated {
		return false
	}
	return r.slots[slot-1].LastSeen != frame
}

func (r *Resolver[K]) matchHistory(cell Cell, frame int) (int, bool) {
	bestSlot := 0
	bestDist := math.Inf(1)
	r.history.Each(func(entry HistoryEntry[K]) bool {
		if !r.available(entry.Slot, frame) {
			return true
		}
		if current, ok := r.bindings.SlotOf(entry.Track); ok && current != entry.Slot {
			// Vanished track was handed another slot since, entry is outdated
			return true
		}
		dist := r.slots[entry.Slot-1].Position.DistanceTo(cell)
		if dist > r.distanceThreshold {
			return true
		}
		if dist < bestDist || (dist == bestDist && entry.Slot < bestSlot) {
			bestDist = dist
			bestSlot = entry.Slot
		}
		return true
	})
	return bestSlot, bestSlot != 0
}

func (r *Resolver[K]) matchProximity(cell Cell, frame int) (int, bool) {
	bestSlot := 0
	bestDist := math.Inf(1)
	for slot := 1; slot <= r.allocated; slot++ {
		if !r.available(slot, frame) {
			continue
		}
		dist := r.slots[slot-1].Position.DistanceTo(cell)
		if dist > r.distanceThreshold {
			continue
		}
		// Strict comparison keeps the lowest slot on ties
		if dist < bestDist {
			bestDist = dist
			bestSlot = slot
		}
	}
	return bestSlot, bestSlot != 0
}

func (r *Resolver[K]) handoff(track K, slot int, cell Cell, frame int, path Reattachment) {
	previous, hadPrevious := r.bindings.Bind(track, slot)
	r.claim(slot, cell, frame)
	if hadPrevious {
		r.logger.Debug("slot reattached", "slot", slot, "track", track, "previous_track", previous, "via", path.String(), "frame", frame)
		return
	}
	r.logger.Debug("slot reattached", "slot", slot, "track", track, "via", path.String(), "frame", frame)
}

func (r *Resolver[K]) claim(slot int, cell Cell, frame int) {
	state := &r.slots[slot-1]
	state.Position = cell
	state.LastSeen = frame
}

// SetDepth stores the observed depth of a slot clamped to [0, 1]. NaN values are ignored.
func (r *Resolver[K]) SetDepth(slot int, depth float64) {
	if slot < 1 || slot > r.numDancers || math.IsNaN(depth) {
		return
	}
	r.slots[slot-1].Depth = math.Max(0, math.Min(1, depth))
}

// Reap releases bindings of slots unseen for more than the stale threshold.
// Slot states are kept so a vacated slot still shows its last location.
// Returns released slots in ascending order.
func (r *Resolver[K]) Reap(frame int) []int {
	var reaped []int
	for slot := 1; slot <= r.numDancers; slot++ {
		track, ok := r.bindings.TrackOf(slot)
		if !ok {
			continue
		}
		state := r.slots[slot-1]
		if frame-state.LastSeen <= r.staleThreshold {
			continue
		}
		r.bindings.UnbindSlot(slot)
		reaped = append(reaped, slot)
		r.logger.Debug("stale binding released", "slot", slot, "track", track, "last_seen", state.LastSeen, "frame", frame)
	}
	return reaped
}

// RecordHistory copies live bindings into the history ring in slot order
func (r *Resolver[K]) RecordHistory() {
	for slot := 1; slot <= r.numDancers; slot++ {
		if track, ok := r.bindings.TrackOf(slot); ok {
			r.history.Push(HistoryEntry[K]{Track: track, Slot: slot})
		}
	}
}

// SlotOf returns slot currently bound to the track
func (r *Resolver[K]) SlotOf(track K) (int, bool) {
	return r.bindings.SlotOf(track)
}

// States returns a copy of all slot states ordered by slot number
func (r *Resolver[K]) States() []SlotState {
	out := make([]SlotState, len(r.slots))
	copy(out, r.slots)
	return out
}

// Allocated returns number of slots handed out so far
func (r *Resolver[K]) Allocated() int {
	return r.allocated
}

// History returns the binding history, oldest first
func (r *Resolver[K]) History() []HistoryEntry[K] {
	return r.history.Entries()
}
