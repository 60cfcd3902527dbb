// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/database"
)

// MockFaceWriter is an in-memory implementation of database.FaceWriter
type MockFaceWriter struct {
	mu       sync.RWMutex
	faces    map[int]*database.UserFaceRecord
	profiles map[int][2]string // user id -> name, email
	nextID   int64
	now      func() time.Time

	// Error injection
	GetError    error
	ListError   error
	UpsertError error
	DeleteError error
	PingError   error

	// Call counters
	UpsertCalls int
	DeleteCalls int
}

// NewMockFaceWriter creates a new mock face metadata store
func NewMockFaceWriter() *MockFaceWriter {
	return &MockFaceWriter{
		faces:    make(map[int]*database.UserFaceRecord),
		profiles: make(map[int][2]string),
		now:      time.Now,
	}
}

var _ database.FaceWriter = (*MockFaceWriter)(nil)

// SetClock replaces the timestamp source
func (m *MockFaceWriter) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddProfile adds a row to the simulated users table
func (m *MockFaceWriter) AddProfile(userID int, name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = [2]string{name, email}
}

// UpsertFace inserts or updates a record
func (m *MockFaceWriter) UpsertFace(ctx context.Context, userID int, profile database.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}

	now := m.now().UTC()
	rec, ok := m.faces[userID]
	if !ok {
		m.nextID++
		rec = &database.UserFaceRecord{ID: m.nextID, UserID: userID, CreatedAt: now}
		m.faces[userID] = rec
	}
	rec.Email = optional(profile.Email)
	rec.FullName = optional(profile.FullName)
	rec.RoleName = optional(profile.Role)
	rec.UpdatedAt = now
	return nil
}

// GetFace returns a copy of the record joined with the simulated profile
func (m *MockFaceWriter) GetFace(ctx context.Context, userID int) (*database.UserFaceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.faces[userID]
	if !ok {
		return nil, nil
	}
	out := m.joined(rec)
	return &out, nil
}

// ListFaces returns all records, newest first
func (m *MockFaceWriter) ListFaces(ctx context.Context) ([]database.UserFaceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]database.UserFaceRecord, 0, len(m.faces))
	for _, rec := range m.faces {
		out = append(out, m.joined(rec))
	}
	slices.SortFunc(out, func(a, b database.UserFaceRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

// DeleteFace removes a record
func (m *MockFaceWriter) DeleteFace(ctx context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.faces, userID)
	return nil
}

// Ping returns PingError
func (m *MockFaceWriter) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockFaceWriter) joined(rec *database.UserFaceRecord) database.UserFaceRecord {
	out := *rec
	if p, ok := m.profiles[rec.UserID]; ok {
		out.UserName = &p[0]
		out.UserEmail = &p[1]
	}
	return out
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
