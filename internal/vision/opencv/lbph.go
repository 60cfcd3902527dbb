package opencv

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/kozaktomas/facegate/internal/vision"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// LBPHRecognizer builds local binary pattern histogram models.
type LBPHRecognizer struct {
	Radius int // 0 keeps the OpenCV default
}

// Train implements vision.Recognizer.
func (r LBPHRecognizer) Train(faces []*image.Gray, labels []int) (vision.Model, error) {
	if len(faces) == 0 || len(faces) != len(labels) {
		return nil, fmt.Errorf("need matching faces and labels, got %d and %d", len(faces), len(labels))
	}

	mats := make([]gocv.Mat, 0, len(faces))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	for _, f := range faces {
		m, err := gocv.ImageGrayToMatGray(f)
		if err != nil {
			return nil, fmt.Errorf("failed to convert face to mat: %w", err)
		}
		mats = append(mats, m)
	}

	rec := r.newRecognizer()
	rec.Train(mats, labels)
	return &lbphModel{rec: rec}, nil
}

// Load implements vision.Recognizer.
func (r LBPHRecognizer) Load(path string) (vision.Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	rec := r.newRecognizer()
	rec.LoadFile(path)
	return &lbphModel{rec: rec}, nil
}

func (r LBPHRecognizer) newRecognizer() *contrib.LBPHFaceRecognizer {
	rec := contrib.NewLBPHFaceRecognizer()
	if r.Radius > 0 {
		rec.SetRadius(r.Radius)
	}
	return rec
}

type lbphModel struct {
	mu  sync.Mutex
	rec *contrib.LBPHFaceRecognizer
}

func (m *lbphModel) Predict(face *image.Gray) (int, float64, error) {
	mat, err := gocv.ImageGrayToMatGray(face)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to convert face to mat: %w", err)
	}
	defer mat.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return 0, 0, errors.New("model is closed")
	}
	resp := m.rec.PredictExtendedResponse(mat)
	return int(resp.Label), float64(resp.Confidence), nil
}

func (m *lbphModel) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return errors.New("model is closed")
	}
	m.rec.SaveFile(path)
	// SaveFile reports nothing, check the artifact landed.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("model was not written: %w", err)
	}
	return nil
}

func (m *lbphModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec != nil {
		m.rec.Close()
		m.rec = nil
	}
	return nil
}
