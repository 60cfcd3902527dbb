// Package training rebuilds the shared recognition model from the sample
// store. Every run is a full retrain that replaces the model wholesale, also
// when it is scoped to one user.
package training

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/dataset"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/observability"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/sirupsen/logrus"
)

var (
	ErrBusy            = errors.New("training already in progress")
	ErrNoUserDirectory = errors.New("no dataset directory for user")
	ErrNoSamples       = errors.New("no face samples found")
	ErrNoTrainingData  = errors.New("no face data to train on")
)

// SampleSource is the read side of the sample store.
type SampleSource interface {
	HasUser(userID int) bool
	ListUser(userID int) ([]dataset.Sample, error)
	ListAll() ([]dataset.Sample, error)
	Load(sample dataset.Sample) (*image.Gray, error)
}

// Progress is called after each sample with the number processed so far.
type Progress func(done, total int)

// Result summarizes a successful run.
type Result struct {
	SampleCount int // face crops the model was trained on
	Skipped     int // samples that could not be loaded or re-detected
	Model       modelstore.Info
}

// Message is the human readable outcome.
func (r Result) Message() string {
	return fmt.Sprintf("Training succeeded with %d images", r.SampleCount)
}

// Trainer runs at most one training pass at a time. A second concurrent call
// fails with ErrBusy.
type Trainer struct {
	samples    SampleSource
	detector   vision.Detector
	recognizer vision.Recognizer
	models     *modelstore.Store
	params     vision.DetectParams
	log        *logrus.Entry

	mu sync.Mutex
}

func New(samples SampleSource, detector vision.Detector, recognizer vision.Recognizer, models *modelstore.Store, params vision.DetectParams) *Trainer {
	return &Trainer{
		samples:    samples,
		detector:   detector,
		recognizer: recognizer,
		models:     models,
		params:     params,
		log:        logging.Component("training"),
	}
}

// Train gathers samples (one user's when userID is set, otherwise the whole
// store), re-detects the face in every stored crop and trains a new model on
// the sub-crops. On any failure the published model is left as it was.
func (t *Trainer) Train(ctx context.Context, userID *int, onProgress Progress) (Result, error) {
	if !t.mu.TryLock() {
		observability.TrainingRuns.WithLabelValues("busy").Inc()
		return Result{}, ErrBusy
	}
	defer t.mu.Unlock()

	start := time.Now()
	res, err := t.train(ctx, userID, onProgress)
	observability.StageDuration.WithLabelValues("train").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.TrainingRuns.WithLabelValues("failed").Inc()
		return res, err
	}
	observability.TrainingRuns.WithLabelValues("succeeded").Inc()
	observability.ModelSamples.Set(float64(res.SampleCount))
	return res, nil
}

func (t *Trainer) train(ctx context.Context, userID *int, onProgress Progress) (Result, error) {
	samples, err := t.gather(userID)
	if err != nil {
		return Result{}, err
	}

	var (
		faces   []*image.Gray
		labels  []int
		skipped int
	)
	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		crops, err := t.extract(sample)
		if err != nil {
			skipped++
			t.log.WithError(err).WithFields(logrus.Fields{
				"user_id": sample.UserID,
				"file":    sample.Path,
			}).Warn("Skipping sample")
		}
		for _, c := range crops {
			faces = append(faces, c)
			labels = append(labels, sample.UserID)
		}
		if onProgress != nil {
			onProgress(i+1, len(samples))
		}
	}

	if len(faces) == 0 {
		return Result{Skipped: skipped}, ErrNoTrainingData
	}

	model, err := t.recognizer.Train(faces, labels)
	if err != nil {
		return Result{}, fmt.Errorf("recognizer training failed: %w", err)
	}
	defer model.Close()

	distinct := slices.Clone(labels)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)

	info, err := t.models.Publish(model.Save, modelstore.Info{
		SampleCount: len(faces),
		Labels:      distinct,
		UserID:      userID,
	})
	if err != nil {
		return Result{}, err
	}

	t.log.WithFields(logrus.Fields{
		"samples":    len(faces),
		"skipped":    skipped,
		"labels":     len(distinct),
		"generation": info.Generation,
	}).Info("Model trained")

	return Result{SampleCount: len(faces), Skipped: skipped, Model: info}, nil
}

func (t *Trainer) gather(userID *int) ([]dataset.Sample, error) {
	if userID == nil {
		samples, err := t.samples.ListAll()
		if err != nil {
			return nil, fmt.Errorf("failed to list samples: %w", err)
		}
		return samples, nil
	}

	if !t.samples.HasUser(*userID) {
		return nil, fmt.Errorf("%w %d", ErrNoUserDirectory, *userID)
	}
	samples, err := t.samples.ListUser(*userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples for user %d: %w", *userID, err)
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return samples, nil
}

// extract loads a stored crop and returns the faces found in it.
func (t *Trainer) extract(sample dataset.Sample) ([]*image.Gray, error) {
	img, err := t.samples.Load(sample)
	if err != nil {
		return nil, err
	}
	boxes, err := t.detector.Detect(img, t.params)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	var crops []*image.Gray
	for _, box := range boxes {
		if c := vision.Crop(img, box); c != nil {
			crops = append(crops, c)
		}
	}
	return crops, nil
}
