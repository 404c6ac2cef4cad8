package depth

import (
	"errors"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 3 || m.Height != 2 {
		t.Errorf("Expected 3x2 map, got %dx%d", m.Width, m.Height)
	}
	if m.At(2, 1) != 6 {
		t.Errorf("Expected 6 at (2,1), got %v", m.At(2, 1))
	}
	// Clamped access
	if m.At(10, -4) != 3 {
		t.Errorf("Expected clamped value 3, got %v", m.At(10, -4))
	}
	if _, err := FromRows([][]float64{{1, 2}, {3}}); !errors.Is(err, ErrShape) {
		t.Errorf("Expected ErrShape for ragged rows, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	raw, _ := FromRows([][]float64{{10, 20}, {30, 50}})
	m := Normalize(raw)
	correct := []float64{0, 0.25, 0.5, 1}
	for i := range correct {
		if math.Abs(m.Values[i]-correct[i]) > eps {
			t.Errorf("Value %d: expected %v, got %v", i, correct[i], m.Values[i])
		}
	}
	if raw.Values[0] != 10 {
		t.Errorf("Normalize must not modify its input")
	}

	flat, _ := FromRows([][]float64{{7, 7}, {7, 7}})
	for i, v := range Normalize(flat).Values {
		if v != 0 {
			t.Errorf("Constant map must normalize to zeros, value %d is %v", i, v)
		}
	}
}

func TestMeanInBox(t *testing.T) {
	m, _ := FromRows([][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.5, 0.6, 0.7, 0.8},
		{0.9, 1.0, 0.0, 0.0},
	})
	cases := []struct {
		name string
		bbox [4]int
		want float64
	}{
		{"inner box", [4]int{1, 0, 3, 2}, (0.2 + 0.3 + 0.6 + 0.7) / 4},
		{"whole map", [4]int{0, 0, 4, 3}, 5.5 / 12},
		{"partially outside", [4]int{-5, 2, 2, 10}, 0.95},
		{"inverted", [4]int{3, 2, 1, 0}, (0.2 + 0.3 + 0.6 + 0.7) / 4},
		{"fully outside uses clamped center", [4]int{10, 10, 20, 20}, 0.0},
		{"degenerate box", [4]int{1, 1, 1, 1}, 0.6},
	}
	for _, tc := range cases {
		got := m.MeanInBox(tc.bbox)
		if math.Abs(got-tc.want) > eps {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if !math.IsNaN(Map{}.MeanInBox([4]int{0, 0, 1, 1})) {
		t.Errorf("Empty map must yield NaN")
	}
}

func TestResize(t *testing.T) {
	coarse, _ := FromRows([][]float64{{0, 1}, {2, 3}})
	m := coarse.Resize(4, 4)
	if m.Width != 4 || m.Height != 4 {
		t.Fatalf("Expected 4x4, got %dx%d", m.Width, m.Height)
	}
	if m.At(0, 0) != 0 || m.At(3, 0) != 1 || m.At(0, 3) != 2 || m.At(3, 3) != 3 || m.At(1, 1) != 0 || m.At(2, 2) != 3 {
		t.Errorf("Unexpected nearest neighbour upsampling: %v", m.Values)
	}
}
