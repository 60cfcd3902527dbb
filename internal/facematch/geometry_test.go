package facematch

import (
	"image"
	"math"
	"testing"
)

func TestArea(t *testing.T) {
	tests := []struct {
		name     string
		rect     image.Rectangle
		expected int
	}{
		{"square", image.Rect(0, 0, 40, 40), 1600},
		{"offset", image.Rect(10, 20, 30, 25), 100},
		{"empty", image.Rectangle{}, 0},
		{"inverted", image.Rectangle{Min: image.Pt(10, 10), Max: image.Pt(5, 5)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Area(tt.rect); got != tt.expected {
				t.Errorf("Area() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestLargestFace(t *testing.T) {
	tests := []struct {
		name    string
		boxes   []image.Rectangle
		wantIdx int
		wantOK  bool
	}{
		{
			name:   "no boxes",
			boxes:  nil,
			wantOK: false,
		},
		{
			name:    "single box",
			boxes:   []image.Rectangle{image.Rect(0, 0, 10, 10)},
			wantIdx: 0,
			wantOK:  true,
		},
		{
			name: "overlapping 40x40 beats 20x20",
			boxes: []image.Rectangle{
				image.Rect(10, 10, 30, 30),
				image.Rect(0, 0, 40, 40),
			},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name: "tie keeps detector order",
			boxes: []image.Rectangle{
				image.Rect(0, 0, 20, 20),
				image.Rect(50, 50, 70, 70),
				image.Rect(100, 0, 110, 10),
			},
			wantIdx: 0,
			wantOK:  true,
		},
		{
			name: "area not width",
			boxes: []image.Rectangle{
				image.Rect(0, 0, 50, 5),
				image.Rect(0, 0, 20, 20),
			},
			wantIdx: 1,
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := LargestFace(tt.boxes)
			if ok != tt.wantOK {
				t.Fatalf("LargestFace() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && idx != tt.wantIdx {
				t.Errorf("LargestFace() = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

func TestComputeIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     image.Rectangle
		expected float64
	}{
		{"identical boxes", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1.0},
		{"no overlap", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0.0},
		{"partial overlap", image.Rect(0, 0, 10, 10), image.Rect(5, 5, 15, 15), 25.0 / 175.0},
		{"one inside other", image.Rect(0, 0, 20, 20), image.Rect(5, 5, 15, 15), 100.0 / 400.0},
		{"touching edges", image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeIoU(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("ComputeIoU() = %v, want %v", got, tt.expected)
			}
		})
	}
}
