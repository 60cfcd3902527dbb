package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database/mock"
	"github.com/kozaktomas/facegate/internal/dataset"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/kozaktomas/facegate/internal/vision/visiontest"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *mock.MockFaceWriter) {
	t.Helper()
	dir := t.TempDir()
	det := &visiontest.Detector{}
	rec := &visiontest.Recognizer{}
	store := dataset.New(filepath.Join(dir, "dataset"), det, vision.DetectParams{})
	models := modelstore.New(filepath.Join(dir, "trainer.yml"))
	metadata := mock.NewMockFaceWriter()

	svc := coordinator.New(store,
		training.New(store, det, rec, models, vision.DetectParams{}),
		recognition.New(det, rec, models, vision.DetectParams{}),
		models, metadata)

	cfg := &config.Config{Web: config.WebConfig{Host: "127.0.0.1", Port: 0, APIKey: apiKey}}
	return NewServer(cfg, svc), metadata
}

func facePayload(t *testing.T, v uint8) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, visiontest.Fill(80, 80, image.Rect(20, 20, 60, 60), v)); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func do(t *testing.T, s *Server, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestServer_FullFlow(t *testing.T) {
	s, _ := newTestServer(t, "")

	steps := []struct {
		method   string
		path     string
		body     any
		expected int
	}{
		{http.MethodPost, "/api/face/capture", map[string]any{"user_id": 7, "image": facePayload(t, 150), "user_info": map[string]string{"email": "a@x.com"}}, http.StatusOK},
		{http.MethodPost, "/api/face/capture", map[string]any{"user_id": 7, "image": facePayload(t, 152), "image_count": 2}, http.StatusOK},
		{http.MethodPost, "/api/face/train", nil, http.StatusOK},
		{http.MethodGet, "/api/face/model", nil, http.StatusOK},
		{http.MethodPost, "/api/face/recognize", map[string]any{"image": facePayload(t, 151)}, http.StatusOK},
		{http.MethodGet, "/api/face/users", nil, http.StatusOK},
		{http.MethodDelete, "/api/face/delete/7", nil, http.StatusOK},
		{http.MethodGet, "/api/face/users", nil, http.StatusOK},
	}

	for _, step := range steps {
		recorder := do(t, s, step.method, step.path, step.body, nil)
		if recorder.Code != step.expected {
			t.Fatalf("%s %s: expected %d, got %d: %s", step.method, step.path, step.expected, recorder.Code, recorder.Body.String())
		}
	}

	recorder := do(t, s, http.MethodGet, "/api/face/users", nil, nil)
	if !strings.Contains(recorder.Body.String(), `"data":[]`) {
		t.Errorf("expected no users after delete, got %s", recorder.Body.String())
	}
}

func TestServer_APIKey(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	if rec := do(t, s, http.MethodGet, "/api/face/users", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/face/users", nil, map[string]string{"X-API-Key": "secret"}); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("expected health to bypass auth, got %d", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t, "")
	do(t, s, http.MethodGet, "/api/v1/health", nil, nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "facegate_http_request_duration_seconds") {
		t.Error("expected request duration metric to be exported")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, "")
	if rec := do(t, s, http.MethodGet, "/api/face/nope", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
