// Package fingerprint computes difference hashes of face crops so that
// near-identical captures of the same user can be spotted.
package fingerprint

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"golang.org/x/image/draw"
)

// DuplicateThreshold is the Hamming distance at or below which two face
// crops are treated as the same shot.
const DuplicateThreshold = 4

// DHash computes a 64-bit difference hash of img.
func DHash(img image.Image) uint64 {
	// 9 columns give 8 horizontal differences per row.
	small := image.NewGray(image.Rect(0, 0, 9, 8))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if small.GrayAt(x, y).Y > small.GrayAt(x+1, y).Y {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// HammingDistance computes the Hamming distance between two 64-bit hashes.
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// Similar returns true if two hashes are within the given threshold.
func Similar(hash1, hash2 uint64, threshold int) bool {
	return HammingDistance(hash1, hash2) <= threshold
}

// Format renders a hash as 16 hex digits.
func Format(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}

// Parse is the inverse of Format.
func Parse(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return v, nil
}
