package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/facegate/internal/modelstore"
)

// TrainRequest is the body of POST /api/face/train. An empty body or a zero
// user_id trains on every user.
type TrainRequest struct {
	UserID flexInt `json:"user_id"`
}

// TrainResponse is returned on success
type TrainResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SampleCount int    `json:"sample_count"`
	Skipped     int    `json:"skipped"`
	Generation  int    `json:"generation"`
}

// Train rebuilds the model.
func (h *FacesHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var userID *int
	if req.UserID.Set {
		userID = &req.UserID.Value
	}

	res, err := h.service.Train(r.Context(), userID, nil)
	if err != nil {
		h.respondServiceError(w, "train", err)
		return
	}

	respondJSON(w, http.StatusOK, TrainResponse{
		Success:     true,
		Message:     res.Message(),
		SampleCount: res.SampleCount,
		Skipped:     res.Skipped,
		Generation:  res.Model.Generation,
	})
}

// ModelResponse describes the published model
type ModelResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Generation  int       `json:"generation"`
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`
	Labels      []int     `json:"labels"`
	UserID      *int      `json:"user_id,omitempty"`
}

// ModelStatus reports the current model.
func (h *FacesHandler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.ModelStatus()
	if err != nil {
		h.respondServiceError(w, "model", err)
		return
	}
	respondJSON(w, http.StatusOK, modelResponse(info))
}

func modelResponse(info modelstore.Info) ModelResponse {
	labels := info.Labels
	if labels == nil {
		labels = []int{}
	}
	return ModelResponse{
		Success:     true,
		Message:     "Model is trained",
		Generation:  info.Generation,
		TrainedAt:   info.TrainedAt,
		SampleCount: info.SampleCount,
		Labels:      labels,
		UserID:      info.UserID,
	}
}
