package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/database"
)

// RecognizeRequest is the body of POST /api/face/recognize
type RecognizeRequest struct {
	Image string `json:"image"`
}

// RecognizeResponse carries the match. Accuracy duplicates confidence for
// older kiosk clients.
type RecognizeResponse struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	UserID     *int                     `json:"user_id,omitempty"`
	Confidence float64                  `json:"confidence"`
	Accuracy   float64                  `json:"accuracy"`
	UserInfo   *database.UserFaceRecord `json:"user_info"`
}

func recognizeFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, RecognizeResponse{Message: message})
}

// Recognize identifies the largest face in the posted image.
func (h *FacesHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		recognizeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Image == "" {
		recognizeFailure(w, http.StatusBadRequest, "image is required")
		return
	}

	img, err := decodeImage(req.Image)
	if err != nil {
		recognizeFailure(w, http.StatusBadRequest, "Could not process the image")
		return
	}

	res, err := h.service.Recognize(r.Context(), img)
	if err != nil {
		status, message := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).WithField("op", "recognize").Error("Request failed")
		}
		recognizeFailure(w, status, message)
		return
	}

	userID := res.UserID
	respondJSON(w, http.StatusOK, RecognizeResponse{
		Success:    true,
		Message:    res.Message(),
		UserID:     &userID,
		Confidence: res.Confidence,
		Accuracy:   res.Confidence,
		UserInfo:   res.Record,
	})
}
