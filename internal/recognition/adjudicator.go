// Package recognition matches a probe image against the current model.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/observability"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/sirupsen/logrus"
)

var ErrModelNotTrained = errors.New("model not trained")

// ModelSource locates the published model artifact.
type ModelSource interface {
	Exists() bool
	Path() string
}

// Result is a successful match. The label is returned as is, whether or not
// the user still has metadata.
type Result struct {
	UserID     int
	Distance   float64
	Confidence float64         // 0..100, two decimals
	Face       image.Rectangle // the face that was matched
	Faces      int             // faces detected in the probe
}

// Confidence converts a recognizer distance into a 0..100 score. Distances of
// 100 and more score 0.
func Confidence(distance float64) float64 {
	return max(0, constants.MaxConfidence-distance)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

type Adjudicator struct {
	detector   vision.Detector
	recognizer vision.Recognizer
	models     ModelSource
	params     vision.DetectParams
	log        *logrus.Entry
}

func New(detector vision.Detector, recognizer vision.Recognizer, models ModelSource, params vision.DetectParams) *Adjudicator {
	return &Adjudicator{
		detector:   detector,
		recognizer: recognizer,
		models:     models,
		params:     params,
		log:        logging.Component("recognition"),
	}
}

// Recognize identifies the largest face in img. The model is loaded on every
// call so a freshly published generation is picked up without a restart.
func (a *Adjudicator) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if !a.models.Exists() {
		observability.Recognitions.WithLabelValues("not_trained").Inc()
		return Result{}, ErrModelNotTrained
	}

	start := time.Now()
	defer func() {
		observability.StageDuration.WithLabelValues("recognize").Observe(time.Since(start).Seconds())
	}()

	model, err := a.recognizer.Load(a.models.Path())
	if err != nil {
		observability.Recognitions.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to load model: %w", err)
	}
	defer model.Close()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	gray := vision.ToGray(img)
	boxes, err := a.detector.Detect(gray, a.params)
	if err != nil {
		observability.Recognitions.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("face detection failed: %w", err)
	}
	idx, ok := facematch.LargestFace(boxes)
	if !ok {
		observability.Recognitions.WithLabelValues("no_face").Inc()
		return Result{}, vision.ErrNoFaceDetected
	}
	face := vision.Crop(gray, boxes[idx])
	if face == nil {
		observability.Recognitions.WithLabelValues("no_face").Inc()
		return Result{}, vision.ErrNoFaceDetected
	}

	label, distance, err := model.Predict(face)
	if err != nil {
		observability.Recognitions.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("prediction failed: %w", err)
	}

	res := Result{
		UserID:     label,
		Distance:   distance,
		Confidence: Round(Confidence(distance), constants.ConfidenceDecimals),
		Face:       boxes[idx],
		Faces:      len(boxes),
	}
	observability.Recognitions.WithLabelValues("matched").Inc()
	observability.RecognitionConfidence.Observe(res.Confidence)
	a.log.WithFields(logrus.Fields{
		"user_id":    res.UserID,
		"distance":   distance,
		"confidence": res.Confidence,
		"faces":      res.Faces,
	}).Debug("Face recognized")
	return res, nil
}
