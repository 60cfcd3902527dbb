package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/database"
)

// UsersResponse lists metadata records, newest first
type UsersResponse struct {
	Success bool                      `json:"success"`
	Data    []database.UserFaceRecord `json:"data"`
}

// ListUsers returns registered users, optionally filtered by ?q=.
func (h *FacesHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondServiceError(w, "list users", err)
		return
	}
	if records == nil {
		records = []database.UserFaceRecord{}
	}
	respondJSON(w, http.StatusOK, UsersResponse{Success: true, Data: records})
}

// DeleteUser removes a user's samples and metadata.
func (h *FacesHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "user_id")
	userID, err := strconv.Atoi(raw)
	if err != nil || userID <= 0 {
		h.log.WithField("user_id", sanitizeForLog(raw)).Debug("Rejected delete with invalid user id")
		respondError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respondServiceError(w, "delete user", err)
		return
	}
	respondJSON(w, http.StatusOK, ok("Face data deleted"))
}
