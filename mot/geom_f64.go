package mot

import (
	"math"
)

type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectXYXY creates rectangle from corner coordinates (x1, y1, x2, y2)
func NewRectXYXY(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X:      math.Min(x1, x2),
		Y:      math.Min(y1, y2),
		Width:  math.Abs(x2 - x1),
		Height: math.Abs(y2 - y1),
	}
}

// Center returns center point of the rectangle
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// XYXY returns integer pixel corners (x1, y1, x2, y2)
func (r Rectangle) XYXY() [4]int {
	return [4]int{
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X + r.Width)),
		int(math.Round(r.Y + r.Height)),
	}
}

type Point struct {
	X float64
	Y float64
}
