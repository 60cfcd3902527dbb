// Package vision defines the face detection and recognition capabilities the
// coordinator depends on, plus the image plumbing shared by every backend.
//
// Backends live in subpackages (opencv) or in this package (pigo). Every
// capability is passed in explicitly; nothing here is a process-wide singleton.
package vision

import (
	"errors"
	"image"
)

// ErrNoFaceDetected is returned when a detector finds zero faces where at
// least one is required.
var ErrNoFaceDetected = errors.New("no face detected")

// DetectParams tunes a single detection call. Backends ignore fields they do
// not understand (Haar uses ScaleFactor and MinNeighbors, pigo uses
// ShiftFactor and MinQuality).
type DetectParams struct {
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinSize      int     `yaml:"min_size"` // 0 = backend default
	MaxSize      int     `yaml:"max_size"` // 0 = image size
	ShiftFactor  float64 `yaml:"shift_factor"`
	MinQuality   float32 `yaml:"min_quality"`
}

// Detector finds axis-aligned face boxes in a grayscale raster. Boxes are in
// the coordinate space of img and are returned in detector order.
type Detector interface {
	Detect(img *image.Gray, params DetectParams) ([]image.Rectangle, error)
}

// Recognizer builds models from labeled faces and loads persisted models.
type Recognizer interface {
	Train(faces []*image.Gray, labels []int) (Model, error)
	Load(path string) (Model, error)
}

// Model is a trained recognizer. Predict returns the best label and a
// distance-like score where lower means a closer match.
type Model interface {
	Predict(face *image.Gray) (label int, distance float64, err error)
	Save(path string) error
	Close() error
}
