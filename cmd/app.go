package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/mariadb"
	"github.com/kozaktomas/facegate/internal/database/postgres"
	"github.com/kozaktomas/facegate/internal/dataset"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/kozaktomas/facegate/internal/vision/opencv"
	"github.com/spf13/cobra"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	store   *dataset.Store
	models  *modelstore.Store
	service *coordinator.Service
	closers []func() error
}

// newApp loads configuration, sets up logging and wires the service.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if flag := mustGetString(cmd, "log-level"); flag != "" {
		level = flag
	}
	if err := logging.Init(level, cfg.Logging.Format, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	a := &app{cfg: cfg}

	detector, err := a.newDetector()
	if err != nil {
		a.close()
		return nil, err
	}
	recognizer := opencv.LBPHRecognizer{Radius: cfg.Vision.RecognizerRadius}

	a.store = dataset.New(cfg.Dataset.Dir, detector, cfg.Detection.Capture)
	a.models = modelstore.New(cfg.Dataset.ModelPath)

	metadata, err := a.openMetadata(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.service = coordinator.New(
		a.store,
		training.New(a.store, detector, recognizer, a.models, cfg.Detection.Train),
		recognition.New(detector, recognizer, a.models, cfg.Detection.Recognize),
		a.models,
		metadata,
	)
	return a, nil
}

func (a *app) newDetector() (vision.Detector, error) {
	switch a.cfg.Vision.Detector {
	case "haar":
		d, err := opencv.NewCascadeDetector(a.cfg.Vision.HaarCascadePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load haar cascade: %w", err)
		}
		a.closers = append(a.closers, d.Close)
		return d, nil
	case "pigo":
		d, err := vision.LoadPigoDetector(a.cfg.Vision.PigoCascadePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pigo cascade: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown VISION_DETECTOR %q (want haar or pigo)", a.cfg.Vision.Detector)
	}
}

// openMetadata connects the metadata store selected by DATABASE_DRIVER. It
// returns nil without error when DATABASE_URL is unset.
func (a *app) openMetadata(ctx context.Context) (database.FaceWriter, error) {
	cfg := &a.cfg.Database
	if !cfg.Enabled() {
		logging.Component("app").Warn("DATABASE_URL not set, metadata sync disabled")
		return nil, nil
	}

	switch cfg.Driver {
	case "mysql", "mariadb":
		pool, err := mariadb.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL metadata store: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return mariadb.NewFaceRepository(pool), nil
	case "postgres":
		pool, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL metadata store: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return postgres.NewFaceRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q (want mysql or postgres)", cfg.Driver)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
