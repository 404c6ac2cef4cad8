package formation

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a square occupancy grid indexed as [y][x]. Zero marks an empty cell,
// positive values are slot numbers.
type Matrix [][]int

// NewMatrix creates empty gridSize x gridSize matrix
func NewMatrix(gridSize int) Matrix {
	m := make(Matrix, gridSize)
	for y := range m {
		m[y] = make([]int, gridSize)
	}
	return m
}

// At returns slot at the cell, zero for empty or out of bounds cells
func (m Matrix) At(c Cell) int {
	if c.Y < 0 || c.Y >= len(m) || c.X < 0 || c.X >= len(m[c.Y]) {
		return 0
	}
	return m[c.Y][c.X]
}

// Find returns the cell occupied by slot
func (m Matrix) Find(slot int) (Cell, bool) {
	for y := range m {
		for x := range m[y] {
			if m[y][x] == slot {
				return Cell{X: x, Y: y}, true
			}
		}
	}
	return Cell{}, false
}

// Occupied returns number of non-empty cells
func (m Matrix) Occupied() int {
	n := 0
	for y := range m {
		for x := range m[y] {
			if m[y][x] != 0 {
				n++
			}
		}
	}
	return n
}

// Clone returns deep copy of the matrix
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for y := range m {
		out[y] = append([]int(nil), m[y]...)
	}
	return out
}

// PlacementWarning reports a slot left out of a matrix because the grid had no empty cell.
type PlacementWarning struct {
	Slot   int
	Target Cell
}

func (w PlacementWarning) String() string {
	return fmt.Sprintf("slot %d dropped: no empty cell left for target (%d,%d)", w.Slot, w.Target.X, w.Target.Y)
}

// Place lays all slot states onto a gridSize x gridSize matrix.
// Slots are painted back to front: larger depth first, lower slot number first on equal depth.
// A slot whose target cell is taken goes to the nearest empty cell of an expanding square ring;
// inside a ring cells are scanned dx ascending, then dy ascending.
// When the grid is full the slot is dropped and a warning is returned.
func Place(states []SlotState, gridSize int) (Matrix, []PlacementWarning) {
	matrix := NewMatrix(gridSize)
	order := make([]SlotState, len(states))
	copy(order, states)
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := paintDepth(order[i].Depth), paintDepth(order[j].Depth)
		if di != dj {
			return di > dj
		}
		return order[i].Slot < order[j].Slot
	})

	var warnings []PlacementWarning
	for _, state := range order {
		if state.Slot <= 0 {
			continue
		}
		target := state.Position.clamp(gridSize)
		cell, ok := nearestEmpty(matrix, target)
		if !ok {
			warnings = append(warnings, PlacementWarning{Slot: state.Slot, Target: target})
			continue
		}
		matrix[cell.Y][cell.X] = state.Slot
	}
	return matrix, warnings
}

// paintDepth treats NaN as never observed
func paintDepth(depth float64) float64 {
	if math.IsNaN(depth) {
		return math.Inf(1)
	}
	return depth
}

// nearestEmpty returns first empty cell in increasing radius order.
// Cells of inner rings were already found occupied, so every radius only visits its own ring;
// the visiting order equals a full (2r+1)x(2r+1) square scan.
func nearestEmpty(matrix Matrix, target Cell) (Cell, bool) {
	gridSize := len(matrix)
	if matrix[target.Y][target.X] == 0 {
		return target, true
	}
	for radius := 1; radius < gridSize; radius++ {
		for dx := -radius; dx <= radius; dx++ {
			x := target.X + dx
			if x < 0 || x >= gridSize {
				continue
			}
			onEdgeColumn := dx == -radius || dx == radius
			for dy := -radius; dy <= radius; dy++ {
				if !onEdgeColumn && dy != -radius && dy != radius {
					continue
				}
				y := target.Y + dy
				if y < 0 || y >= gridSize {
					continue
				}
				if matrix[y][x] == 0 {
					return Cell{X: x, Y: y}, true
				}
			}
		}
	}
	return Cell{}, false
}
