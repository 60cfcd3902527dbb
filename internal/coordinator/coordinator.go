// Package coordinator composes the sample store, trainer, adjudicator and
// metadata store into the operations exposed over HTTP and the CLI.
//
// Metadata is display data only. Its failures are logged and never fail a
// capture, recognition or delete.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/dataset"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/observability"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrMetadataUnavailable is returned by operations that need the metadata
	// store when none is configured.
	ErrMetadataUnavailable = errors.New("metadata store not configured")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SampleStore is the write side of the sample store.
type SampleStore interface {
	Append(userID int, img image.Image, seq int) ([]dataset.Sample, error)
	Purge(userID int) error
}

type ModelTrainer interface {
	Train(ctx context.Context, userID *int, onProgress training.Progress) (training.Result, error)
}

type Adjudicator interface {
	Recognize(ctx context.Context, img image.Image) (recognition.Result, error)
}

type ModelInspector interface {
	Info() (modelstore.Info, error)
}

// Service is safe for concurrent use.
type Service struct {
	samples     SampleStore
	trainer     ModelTrainer
	adjudicator Adjudicator
	models      ModelInspector
	metadata    database.FaceWriter // nil disables metadata sync
	log         *logrus.Entry
}

// New creates the service. metadata may be nil.
func New(samples SampleStore, trainer ModelTrainer, adjudicator Adjudicator, models ModelInspector, metadata database.FaceWriter) *Service {
	return &Service{
		samples:     samples,
		trainer:     trainer,
		adjudicator: adjudicator,
		models:      models,
		metadata:    metadata,
		log:         logging.Component("coordinator"),
	}
}

// MetadataEnabled reports whether a metadata store is configured.
func (s *Service) MetadataEnabled() bool {
	return s.metadata != nil
}

// Ping checks the metadata store when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.metadata.(database.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

type CaptureRequest struct {
	UserID   int
	Image    image.Image
	Sequence int               // capture session counter, starts at 1
	Profile  *database.Profile // stored on the first capture of a session
}

type CaptureResult struct {
	Samples []dataset.Sample
}

// FacesSaved is the number of stored samples.
func (r CaptureResult) FacesSaved() int {
	return len(r.Samples)
}

// NearDuplicates counts stored samples that closely match an earlier capture.
func (r CaptureResult) NearDuplicates() int {
	n := 0
	for _, smp := range r.Samples {
		if smp.NearDuplicate {
			n++
		}
	}
	return n
}

func (r CaptureResult) Message() string {
	return fmt.Sprintf("Saved %d face images", len(r.Samples))
}

// Capture stores a sample per detected face. On the first capture of a
// session (sequence 1) a supplied profile is upserted into the metadata store.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if req.UserID <= 0 {
		return CaptureResult{}, invalid("user_id is required")
	}
	if req.Image == nil {
		return CaptureResult{}, invalid("image is required")
	}
	if req.Sequence < constants.FirstSequence {
		return CaptureResult{}, invalid("image_count must be >= %d", constants.FirstSequence)
	}

	saved, err := s.samples.Append(req.UserID, req.Image, req.Sequence)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to store samples: %w", err)
	}
	if len(saved) == 0 {
		observability.CaptureNoFace.Inc()
		return CaptureResult{}, vision.ErrNoFaceDetected
	}
	observability.SamplesCaptured.Add(float64(len(saved)))
	res := CaptureResult{Samples: saved}
	observability.NearDuplicateSamples.Add(float64(res.NearDuplicates()))

	if req.Sequence == constants.FirstSequence && req.Profile != nil && !req.Profile.IsZero() && s.metadata != nil {
		if err := s.metadata.UpsertFace(ctx, req.UserID, *req.Profile); err != nil {
			s.log.WithError(err).WithField("user_id", req.UserID).Error("Failed to save face metadata")
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"sequence": req.Sequence,
		"faces":    len(saved),
	}).Info("Captured face samples")
	return res, nil
}

// Train rebuilds the model from one user's samples or from all of them. A
// zero user id means no user was given and trains on everyone.
func (s *Service) Train(ctx context.Context, userID *int, onProgress training.Progress) (training.Result, error) {
	if userID != nil && *userID == 0 {
		userID = nil
	}
	if userID != nil && *userID < 0 {
		return training.Result{}, invalid("user_id must be positive")
	}
	return s.trainer.Train(ctx, userID, onProgress)
}

type RecognizeResult struct {
	recognition.Result
	Record *database.UserFaceRecord // nil when the user has no metadata
}

func (r RecognizeResult) Message() string {
	return "Recognition succeeded"
}

// Recognize identifies the largest face in img and joins the match with its
// metadata record.
func (s *Service) Recognize(ctx context.Context, img image.Image) (RecognizeResult, error) {
	if img == nil {
		return RecognizeResult{}, invalid("image is required")
	}

	res, err := s.adjudicator.Recognize(ctx, img)
	if err != nil {
		return RecognizeResult{}, err
	}

	out := RecognizeResult{Result: res}
	if s.metadata != nil {
		rec, err := s.metadata.GetFace(ctx, res.UserID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", res.UserID).Error("Failed to load face metadata")
		}
		out.Record = rec
	}
	return out, nil
}

// ListUsers returns metadata records, newest first. A non-empty query keeps
// records whose name, email or user id contains it, ignoring case and
// diacritics.
func (s *Service) ListUsers(ctx context.Context, query string) ([]database.UserFaceRecord, error) {
	if s.metadata == nil {
		return nil, ErrMetadataUnavailable
	}
	records, err := s.metadata.ListFaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if query == "" {
		return records, nil
	}

	filtered := make([]database.UserFaceRecord, 0, len(records))
	for _, r := range records {
		if facematch.MatchesQuery(query, deref(r.FullName), deref(r.Email), deref(r.UserName), deref(r.UserEmail), strconv.Itoa(r.UserID)) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// DeleteUser purges the user's samples and deletes the metadata record. Both
// are attempted. Only a purge failure fails the call. The model keeps the
// user's signal until the next training run.
func (s *Service) DeleteUser(ctx context.Context, userID int) error {
	if userID <= 0 {
		return invalid("user_id must be positive")
	}

	purgeErr := s.samples.Purge(userID)
	if purgeErr != nil {
		s.log.WithError(purgeErr).WithField("user_id", userID).Error("Failed to purge samples")
	}

	if s.metadata != nil {
		if err := s.metadata.DeleteFace(ctx, userID); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Error("Failed to delete face metadata")
		}
	}

	if purgeErr != nil {
		return fmt.Errorf("failed to delete face data: %w", purgeErr)
	}
	s.log.WithField("user_id", userID).Info("Deleted face data")
	return nil
}

// ModelStatus describes the published model.
func (s *Service) ModelStatus() (modelstore.Info, error) {
	return s.models.Info()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
