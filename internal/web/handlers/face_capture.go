package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database"
)

// CaptureRequest is the body of POST /api/face/capture
type CaptureRequest struct {
	UserID     flexInt      `json:"user_id"`
	Image      string       `json:"image"`
	ImageCount *flexInt     `json:"image_count"`
	UserInfo   *UserInfoDTO `json:"user_info"`
}

// UserInfoDTO is the optional profile sent with the first capture
type UserInfoDTO struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// CaptureResponse is returned on success
type CaptureResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	FacesSaved     int    `json:"faces_saved"`
	NearDuplicates int    `json:"near_duplicates"` // saved faces that look like an earlier capture
}

// Capture stores the faces found in the posted image.
func (h *FacesHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.UserID.Set || req.UserID.Value <= 0 || req.Image == "" {
		respondError(w, http.StatusBadRequest, "user_id and image are required")
		return
	}

	img, err := decodeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not process the image")
		return
	}

	seq := constants.FirstSequence
	if req.ImageCount != nil && req.ImageCount.Set {
		seq = req.ImageCount.Value
	}

	var profile *database.Profile
	if req.UserInfo != nil {
		profile = &database.Profile{
			Email:    req.UserInfo.Email,
			FullName: req.UserInfo.FullName,
			Role:     req.UserInfo.Role,
		}
	}

	res, err := h.service.Capture(r.Context(), coordinator.CaptureRequest{
		UserID:   req.UserID.Value,
		Image:    img,
		Sequence: seq,
		Profile:  profile,
	})
	if err != nil {
		h.respondServiceError(w, "capture", err)
		return
	}

	respondJSON(w, http.StatusOK, CaptureResponse{
		Success:        true,
		Message:        res.Message(),
		FacesSaved:     res.FacesSaved(),
		NearDuplicates: res.NearDuplicates(),
	})
}
