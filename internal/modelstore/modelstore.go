// Package modelstore owns the single shared model artifact. Readers only ever
// see a complete file: new models are written beside the artifact and renamed
// over it.
package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
)

// ErrNotTrained is returned when no model artifact exists.
var ErrNotTrained = errors.New("model not trained")

// Info describes the published model. It is stored in a JSON sidecar next to
// the artifact.
type Info struct {
	Generation  int       `json:"generation"`
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`
	Labels      []int     `json:"labels"`
	UserID      *int      `json:"user_id,omitempty"` // set for scoped training
}

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) infoPath() string {
	return s.path + ".meta.json"
}

// Exists reports whether a model artifact has been published.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Info returns the sidecar of the current model. A model published without a
// readable sidecar yields a zero Info.
func (s *Store) Info() (Info, error) {
	if !s.Exists() {
		return Info{}, ErrNotTrained
	}
	data, err := os.ReadFile(s.infoPath())
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to read model info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse model info: %w", err)
	}
	return info, nil
}

// Publish lets write produce the new model at a temporary path in the
// artifact directory, then renames it over the artifact. The temporary path
// keeps the artifact extension because recognizers pick their on-disk format
// from it. If write fails the current artifact is untouched.
//
// The returned Info carries the next generation number.
func (s *Store) Publish(write func(tmpPath string) error, info Info) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Info{}, fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString()+filepath.Ext(s.path))
	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("failed to write model: %w", err)
	}
	if st, err := os.Stat(tmp); err != nil || st.Size() == 0 {
		os.Remove(tmp)
		return Info{}, errors.New("failed to write model: empty artifact")
	}

	prev, _ := s.Info() // zero on a first or unreadable sidecar
	info.Generation = prev.Generation + 1
	if info.TrainedAt.IsZero() {
		info.TrainedAt = time.Now().UTC()
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("failed to publish model: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return info, fmt.Errorf("failed to marshal model info: %w", err)
	}
	if err := renameio.WriteFile(s.infoPath(), data, 0644); err != nil {
		return info, fmt.Errorf("failed to write model info: %w", err)
	}
	return info, nil
}
