// Package opencv adapts gocv's Haar cascade classifier and the contrib LBPH
// face recognizer to the vision capability interfaces.
package opencv

import (
	"fmt"
	"image"
	"sync"

	"github.com/kozaktomas/facegate/internal/vision"
	"gocv.io/x/gocv"
)

// CascadeDetector runs a Haar cascade. The underlying classifier is not
// safe for concurrent use, so calls are serialized.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads a cascade XML file such as
// haarcascade_frontalface_default.xml.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade file %s", path)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect implements vision.Detector.
func (d *CascadeDetector) Detect(img *image.Gray, params vision.DetectParams) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	scale := params.ScaleFactor
	if scale <= 1 {
		scale = 1.1
	}
	neighbors := params.MinNeighbors
	if neighbors <= 0 {
		neighbors = 3
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	faces := d.classifier.DetectMultiScaleWithParams(mat, scale, neighbors, 0,
		image.Pt(params.MinSize, params.MinSize), image.Pt(params.MaxSize, params.MaxSize))

	// Mat coordinates start at the origin.
	offset := img.Bounds().Min
	for i := range faces {
		faces[i] = faces[i].Add(offset)
	}
	return faces, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
