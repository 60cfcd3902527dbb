// Package visiontest provides deterministic detector and recognizer fakes.
package visiontest

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/kozaktomas/facegate/internal/vision"
)

// Detector is a fake vision.Detector. With neither Boxes nor Func set, it
// reports the bounding box of all non-black pixels, so an all-black raster
// has no face.
type Detector struct {
	Boxes []image.Rectangle
	Func  func(img *image.Gray, params vision.DetectParams) []image.Rectangle
	Err   error

	mu    sync.Mutex
	calls int
}

func (d *Detector) Detect(img *image.Gray, params vision.DetectParams) ([]image.Rectangle, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	if d.Func != nil {
		return d.Func(img, params), nil
	}
	if d.Boxes != nil {
		out := make([]image.Rectangle, len(d.Boxes))
		copy(out, d.Boxes)
		return out, nil
	}
	if r := ContentBounds(img); !r.Empty() {
		return []image.Rectangle{r}, nil
	}
	return nil, nil
}

// Calls returns how many times Detect ran.
func (d *Detector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// ContentBounds returns the smallest rectangle holding every non-zero pixel.
func ContentBounds(img *image.Gray) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y == 0 {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

// Recognizer is a fake vision.Recognizer. A model stores the mean intensity of
// every label; prediction picks the nearest mean and reports the absolute
// difference as the distance.
type Recognizer struct {
	TrainErr error
	// Distance, when set, overrides the reported distance.
	Distance *float64

	mu      sync.Mutex
	trained int
}

// Trained returns how many models were trained.
func (r *Recognizer) Trained() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trained
}

func (r *Recognizer) Train(faces []*image.Gray, labels []int) (vision.Model, error) {
	if r.TrainErr != nil {
		return nil, r.TrainErr
	}
	if len(faces) == 0 || len(faces) != len(labels) {
		return nil, fmt.Errorf("need matching faces and labels, got %d and %d", len(faces), len(labels))
	}

	sums := map[int]float64{}
	counts := map[int]int{}
	for i, f := range faces {
		sums[labels[i]] += Mean(f)
		counts[labels[i]]++
	}
	m := &Model{Means: map[int]float64{}, distance: r.Distance}
	for label, sum := range sums {
		m.Means[label] = sum / float64(counts[label])
	}

	r.mu.Lock()
	r.trained++
	r.mu.Unlock()
	return m, nil
}

func (r *Recognizer) Load(path string) (vision.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Model{distance: r.Distance}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("corrupt model %s: %w", path, err)
	}
	return m, nil
}

// Model is the fake trained artifact.
type Model struct {
	Means map[int]float64 `json:"means"`

	distance *float64
}

func (m *Model) Predict(face *image.Gray) (int, float64, error) {
	if len(m.Means) == 0 {
		return 0, 0, errors.New("empty model")
	}
	mean := Mean(face)
	best, bestDist := 0, math.Inf(1)
	for label, v := range m.Means {
		d := math.Abs(mean - v)
		if d < bestDist || (d == bestDist && label < best) {
			best, bestDist = label, d
		}
	}
	if m.distance != nil {
		bestDist = *m.distance
	}
	return best, bestDist, nil
}

func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Model) Close() error { return nil }

// Mean returns the average pixel intensity.
func Mean(img *image.Gray) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(img.GrayAt(x, y).Y)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

// Fill returns a w×h raster with the rectangle r painted at intensity v over
// a black background.
func Fill(w, h int, r image.Rectangle, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[img.PixOffset(x, y)] = v
		}
	}
	return img
}
