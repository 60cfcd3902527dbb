// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// MaxConfidence is the confidence reported for a zero recognizer distance.
	// Confidence is MaxConfidence minus the distance, floored at zero.
	MaxConfidence = 100.0

	// ConfidenceDecimals is the number of decimals confidence is rounded to at the API boundary
	ConfidenceDecimals = 2
)

// Dataset constants
const (
	// ManifestFile is the per-user index mapping stored crops to their user and sequence
	ManifestFile = "manifest.json"

	// SampleExt is the file extension of stored face crops (lossless grayscale)
	SampleExt = ".png"

	// FirstSequence is the sequence index that opens a capture session.
	// Profile metadata is only synced on this capture.
	FirstSequence = 1
)
