package formation

import (
	"math"
)

// Cell is a discrete grid position. X is the column and Y is the row.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewCell creates new instance of Cell
func NewCell(x, y int) Cell {
	return Cell{
		X: x,
		Y: y,
	}
}

// DistanceTo returns euclidean distance to other cell in grid units
func (c Cell) DistanceTo(other Cell) float64 {
	return math.Hypot(float64(c.X-other.X), float64(c.Y-other.Y))
}

func (c Cell) clamp(gridSize int) Cell {
	return Cell{
		X: clampInt(c.X, 0, gridSize-1),
		Y: clampInt(c.Y, 0, gridSize-1),
	}
}

// Project maps a pixel bounding box (x1, y1, x2, y2) onto a grid cell.
// The box center is normalized by the frame size, clipped to [margin, 1-margin] on both axes
// and scaled to [0, gridSize-1]. Malformed or out-of-frame boxes are clamped, never rejected.
func Project(bbox [4]int, frameWidth, frameHeight, gridSize int, margin float64) Cell {
	cx := normalizeAxis(float64(bbox[0]+bbox[2])/2.0, frameWidth, margin)
	cy := normalizeAxis(float64(bbox[1]+bbox[3])/2.0, frameHeight, margin)
	scale := float64(gridSize - 1)
	return Cell{
		X: int(cx * scale),
		Y: int(cy * scale),
	}.clamp(gridSize)
}

func normalizeAxis(center float64, extent int, margin float64) float64 {
	if extent <= 0 {
		return 0.5
	}
	v := center / float64(extent)
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(margin, math.Min(1-margin, v))
}

// DefaultPositions spreads numDancers over the grid row-major in a ceil(sqrt(n)) wide layout.
// Element k-1 is the seed cell of slot k.
func DefaultPositions(numDancers, gridSize int) []Cell {
	if numDancers < 1 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(numDancers))))
	rows := int(math.Ceil(float64(numDancers) / float64(cols)))
	xSpacing := float64(gridSize) / float64(cols+1)
	ySpacing := float64(gridSize) / float64(rows+1)
	positions := make([]Cell, numDancers)
	for k := 0; k < numDancers; k++ {
		row := k / cols
		col := k % cols
		positions[k] = Cell{
			X: int(math.Round(xSpacing * float64(col+1))),
			Y: int(math.Round(ySpacing * float64(row+1))),
		}.clamp(gridSize)
	}
	return positions
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
