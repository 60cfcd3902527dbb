// Package observability defines the Prometheus metrics exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "samples_captured_total",
		Help:      "Total number of face samples written to the dataset",
	})

	CaptureNoFace = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "capture_no_face_total",
		Help:      "Capture requests where no face was detected",
	})

	CaptureFacesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "capture_faces_skipped_total",
		Help:      "Detected faces dropped because the box did not overlap the frame",
	})

	NearDuplicateSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "near_duplicate_samples_total",
		Help:      "Captured samples nearly identical to an earlier sample of the same user",
	})

	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "training_runs_total",
		Help:      "Training runs by outcome",
	}, []string{"outcome"})

	ModelSamples = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facegate",
		Name:      "model_samples",
		Help:      "Number of samples the current model was trained on",
	})

	Recognitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "recognitions_total",
		Help:      "Recognition requests by outcome",
	}, []string{"outcome"})

	RecognitionConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facegate",
		Name:      "recognition_confidence",
		Help:      "Confidence of matched recognitions (0-100)",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facegate",
		Name:      "stage_duration_seconds",
		Help:      "Duration of vision pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facegate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
