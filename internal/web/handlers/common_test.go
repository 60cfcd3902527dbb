package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/constants"
)

func TestRespondJSON_SetsContentTypeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"BadRequest", http.StatusBadRequest},
		{"Conflict", http.StatusConflict},
		{"InternalServerError", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, map[string]string{"status": "ok"})

			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	// Body should be empty for nil data
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_Envelope(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["success"] != false {
		t.Errorf("expected success false, got %v", result["success"])
	}
	if result["message"] != "something went wrong" {
		t.Errorf("unexpected message %v", result["message"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("7\r\nfake entry"); got != "7fake entry" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		set     bool
		wantErr bool
	}{
		{`{"v": 7}`, 7, true, false},
		{`{"v": "12"}`, 12, true, false},
		{`{"v": null}`, 0, false, false},
		{`{}`, 0, false, false},
		{`{"v": "abc"}`, 0, false, true},
		{`{"v": 1.5}`, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var body struct {
				V flexInt `json:"v"`
			}
			err := json.Unmarshal([]byte(tt.input), &body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.wantErr {
				return
			}
			if body.V.Value != tt.want || body.V.Set != tt.set {
				t.Errorf("got %+v, want value %d set %v", body.V, tt.want, tt.set)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var dst TrainRequest
		if err := decodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
			t.Errorf("expected empty body to be accepted, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		var dst TrainRequest
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		if err == nil || err.Error() != errInvalidRequestBody {
			t.Errorf("expected %q, got %v", errInvalidRequestBody, err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		payload := `{"image":"` + strings.Repeat("A", constants.MaxUploadSize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		var dst RecognizeRequest
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		if err == nil || !strings.Contains(err.Error(), "exceeds") {
			t.Errorf("expected size error, got %v", err)
		}
	})
}
