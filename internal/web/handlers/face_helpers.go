package handlers

import (
	"errors"
	"image"
	"net/http"

	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/kozaktomas/facegate/internal/vision"
)

const (
	msgNoFace          = "No face detected in the image"
	msgModelNotTrained = "Model has not been trained yet"
	msgInternal        = "Internal server error"
)

// statusFor maps a service error to an HTTP status and a client message.
// Unknown errors become a generic 500 so storage details do not leak.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, coordinator.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, vision.ErrNoFaceDetected):
		return http.StatusUnprocessableEntity, msgNoFace
	case errors.Is(err, recognition.ErrModelNotTrained), errors.Is(err, modelstore.ErrNotTrained):
		return http.StatusConflict, msgModelNotTrained
	case errors.Is(err, training.ErrBusy):
		return http.StatusConflict, "Training is already in progress"
	case errors.Is(err, training.ErrNoUserDirectory):
		return http.StatusNotFound, "No dataset found for this user"
	case errors.Is(err, training.ErrNoSamples):
		return http.StatusUnprocessableEntity, "No face images found"
	case errors.Is(err, training.ErrNoTrainingData):
		return http.StatusUnprocessableEntity, "No face data to train on"
	case errors.Is(err, coordinator.ErrMetadataUnavailable):
		return http.StatusServiceUnavailable, "Metadata database is not configured"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondServiceError logs server side failures and writes the envelope.
func (h *FacesHandler) respondServiceError(w http.ResponseWriter, op string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("op", op).Error("Request failed")
	}
	respondError(w, status, message)
}

// decodeImage turns a base64 payload, with or without a data URI prefix,
// into a raster.
func decodeImage(payload string) (image.Image, error) {
	data, err := vision.DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return vision.Decode(data)
}
