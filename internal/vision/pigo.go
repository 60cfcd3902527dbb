package vision

import (
	"fmt"
	"image"
	"math"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	pigoDefaultMinSize = 20
	pigoIoUThreshold   = 0.2
)

// PigoDetector is a pure Go cascade detector. The unpacked classifier is
// read-only, so Detect is safe for concurrent use.
type PigoDetector struct {
	classifier *pigo.Pigo
}

// NewPigoDetector unpacks a pigo cascade (e.g. "facefinder").
func NewPigoDetector(cascade []byte) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier}, nil
}

// LoadPigoDetector reads and unpacks a cascade file.
func LoadPigoDetector(path string) (*PigoDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	return NewPigoDetector(data)
}

// Detect implements Detector.
func (d *PigoDetector) Detect(img *image.Gray, params DetectParams) ([]image.Rectangle, error) {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	scaleFactor := params.ScaleFactor
	if scaleFactor <= 1 {
		scaleFactor = 1.1
	}
	// The cascade grows the window by int(size*scaleFactor); below this size
	// the window would stop growing.
	minSize := max(params.MinSize, pigoDefaultMinSize, int(math.Ceil(1/(scaleFactor-1))))
	maxSize := params.MaxSize
	if maxSize <= 0 {
		maxSize = min(cols, rows)
	}
	if minSize > maxSize {
		return nil, nil
	}
	shift := params.ShiftFactor
	if shift <= 0 {
		shift = 0.1
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: shift,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: Pixels(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < params.MinQuality {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Add(b.Min)
		if r = r.Intersect(b); !r.Empty() {
			faces = append(faces, r)
		}
	}
	return faces, nil
}
