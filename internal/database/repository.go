package database

import (
	"context"
)

// FaceReader provides read-only access to face metadata
type FaceReader interface {
	// GetFace returns the record of a user joined with the profile table, nil if not found
	GetFace(ctx context.Context, userID int) (*UserFaceRecord, error)
	// ListFaces returns all records, newest created first
	ListFaces(ctx context.Context) ([]UserFaceRecord, error)
}

// FaceWriter provides write access to face metadata
type FaceWriter interface {
	FaceReader

	// UpsertFace inserts the record or updates email, name, role and updated_at of an existing one
	UpsertFace(ctx context.Context, userID int, profile Profile) error

	// DeleteFace removes the record of a user, deleting a missing record is not an error
	DeleteFace(ctx context.Context, userID int) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
