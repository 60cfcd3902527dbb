// Package facematch holds face box geometry and person name normalization
// shared by the adjudicator, the coordinator and the CLI.
package facematch

import "image"

// Area returns the pixel area (width × height) of a face box.
func Area(r image.Rectangle) int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// LargestFace returns the index of the box with the largest area. Ties keep
// the first box in detector order. ok is false for an empty slice.
func LargestFace(boxes []image.Rectangle) (idx int, ok bool) {
	if len(boxes) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(boxes); i++ {
		if Area(boxes[i]) > Area(boxes[best]) {
			best = i
		}
	}
	return best, true
}

// ComputeIoU calculates Intersection over Union between two face boxes.
func ComputeIoU(a, b image.Rectangle) float64 {
	inter := Area(a.Intersect(b))
	if inter == 0 {
		return 0
	}
	union := Area(a) + Area(b) - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
