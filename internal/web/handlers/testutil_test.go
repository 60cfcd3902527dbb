package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/mock"
	"github.com/kozaktomas/facegate/internal/dataset"
	"github.com/kozaktomas/facegate/internal/modelstore"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/training"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/kozaktomas/facegate/internal/vision/visiontest"
)

// newTestService wires a coordinator on a temp dir with fake vision
// components and an in-memory metadata store.
func newTestService(t *testing.T) (*coordinator.Service, *mock.MockFaceWriter) {
	t.Helper()
	dir := t.TempDir()
	det := &visiontest.Detector{}
	rec := &visiontest.Recognizer{}

	store := dataset.New(filepath.Join(dir, "dataset"), det, vision.DetectParams{})
	models := modelstore.New(filepath.Join(dir, "trainer", "trainer.yml"))
	metadata := mock.NewMockFaceWriter()

	svc := coordinator.New(
		store,
		training.New(store, det, rec, models, vision.DetectParams{}),
		recognition.New(det, rec, models, vision.DetectParams{}),
		models,
		metadata,
	)
	return svc, metadata
}

// faceBase64 encodes a synthetic face of intensity v as a data URI.
func faceBase64(t *testing.T, v uint8) string {
	t.Helper()
	img := visiontest.Fill(100, 100, image.Rect(25, 25, 75, 75), v)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func blankBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 50, 50))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals the recorder body into a generic map.
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func assertStatus(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// stubService returns canned errors for status mapping tests.
type stubService struct {
	err     error
	info    modelstore.Info
	records []database.UserFaceRecord
	deleted []int
}

func (s *stubService) Capture(context.Context, coordinator.CaptureRequest) (coordinator.CaptureResult, error) {
	return coordinator.CaptureResult{}, s.err
}

func (s *stubService) Train(context.Context, *int, training.Progress) (training.Result, error) {
	return training.Result{}, s.err
}

func (s *stubService) Recognize(context.Context, image.Image) (coordinator.RecognizeResult, error) {
	return coordinator.RecognizeResult{}, s.err
}

func (s *stubService) ListUsers(context.Context, string) ([]database.UserFaceRecord, error) {
	return s.records, s.err
}

func (s *stubService) DeleteUser(_ context.Context, userID int) error {
	s.deleted = append(s.deleted, userID)
	return s.err
}

func (s *stubService) ModelStatus() (modelstore.Info, error) {
	return s.info, s.err
}
