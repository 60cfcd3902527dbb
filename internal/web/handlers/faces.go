// Package handlers provides HTTP handlers for the web API.
// This file contains the FacesHandler struct and constructor.
// Handler methods are organized in separate files:
//   - face_capture.go: sample capture (Capture)
//   - face_train.go: model training and status (Train, ModelStatus)
//   - face_recognize.go: recognition (Recognize)
//   - face_users.go: metadata listing and deletion (ListUsers, DeleteUser)
//   - face_helpers.go: error mapping and image decoding
package handlers

import (
	"context"
	"image"

	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/sirupsen/logrus"
)

// FaceService is the coordinator API the handlers depend on.
type FaceService interface {
	Capture(ctx context.Context, req coordinator.CaptureRequest) (coordinator.CaptureResult, error)
	Train(ctx context.Context, userID *int, onProgress training.Progress) (training.Result, error)
	Recognize(ctx context.Context, img image.Image) (coordinator.RecognizeResult, error)
	ListUsers(ctx context.Context, query string) ([]database.UserFaceRecord, error)
	DeleteUser(ctx context.Context, userID int) error
	ModelStatus() (modelstore.Info, error)
}

// FacesHandler handles the /api/face endpoints
type FacesHandler struct {
	service FaceService
	log     *logrus.Entry
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(service FaceService) *FacesHandler {
	return &FacesHandler{
		service: service,
		log:     logging.Component("handlers"),
	}
}
