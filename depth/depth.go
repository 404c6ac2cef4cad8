// Package depth holds per-pixel depth maps produced by a monocular depth model
// and the statistics the formation engine needs from them.
package depth

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrShape is returned when map values do not match declared dimensions
var ErrShape = errors.New("depth map shape mismatch")

// Map is a row-major Width x Height grid of depth values.
type Map struct {
	Width  int
	Height int
	Values []float64
}

// NewMap creates zero-filled map
func NewMap(width, height int) Map {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Map{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// FromRows builds a map from [row][column] values. All rows must have the same length.
func FromRows(rows [][]float64) (Map, error) {
	if len(rows) == 0 {
		return Map{}, nil
	}
	width := len(rows[0])
	m := NewMap(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return Map{}, errors.Wrapf(ErrShape, "row %d has %d values, expected %d", y, len(row), width)
		}
		copy(m.Values[y*width:(y+1)*width], row)
	}
	return m, nil
}

// Empty reports whether map holds no values
func (m Map) Empty() bool {
	return m.Width == 0 || m.Height == 0
}

// At returns value at pixel (x, y). Coordinates are clamped to the map.
func (m Map) At(x, y int) float64 {
	if m.Empty() {
		return math.NaN()
	}
	x = clamp(x, 0, m.Width-1)
	y = clamp(y, 0, m.Height-1)
	return m.Values[y*m.Width+x]
}

// Normalize rescales raw model output to [0, 1] with min-max scaling.
// A constant map becomes all zeros.
func Normalize(raw Map) Map {
	out := NewMap(raw.Width, raw.Height)
	if raw.Empty() || len(raw.Values) != raw.Width*raw.Height {
		return out
	}
	lo := floats.Min(raw.Values)
	hi := floats.Max(raw.Values)
	if !(hi > lo) {
		return out
	}
	copy(out.Values, raw.Values)
	floats.AddConst(-lo, out.Values)
	floats.Scale(1/(hi-lo), out.Values)
	return out
}

// Resize scales the map to width x height with nearest neighbour sampling
func (m Map) Resize(width, height int) Map {
	out := NewMap(width, height)
	if m.Empty() || out.Empty() {
		return out
	}
	for y := 0; y < height; y++ {
		srcY := y * m.Height / height
		for x := 0; x < width; x++ {
			srcX := x * m.Width / width
			out.Values[y*width+x] = m.Values[srcY*m.Width+srcX]
		}
	}
	return out
}

// MeanInBox returns the average depth inside the pixel box (x1, y1, x2, y2), half-open on x2 and y2.
// The box is clipped to the map first. When nothing is left the value at the clamped box center is used.
// An empty map yields NaN.
func (m Map) MeanInBox(bbox [4]int) float64 {
	if m.Empty() {
		return math.NaN()
	}
	x1, y1, x2, y2 := bbox[0], bbox[1], bbox[2], bbox[3]
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	cx1, cx2 := clamp(x1, 0, m.Width), clamp(x2, 0, m.Width)
	cy1, cy2 := clamp(y1, 0, m.Height), clamp(y2, 0, m.Height)
	if cx1 >= cx2 || cy1 >= cy2 {
		return m.At((x1+x2)/2, (y1+y2)/2)
	}
	values := make([]float64, 0, (cx2-cx1)*(cy2-cy1))
	for y := cy1; y < cy2; y++ {
		values = append(values, m.Values[y*m.Width+cx1:y*m.Width+cx2]...)
	}
	return stat.Mean(values, nil)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
