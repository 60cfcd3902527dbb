package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facegate/internal/database"
)

// FaceRepository provides PostgreSQL-backed face metadata storage
type FaceRepository struct {
	pool *Pool
}

// NewFaceRepository creates a new PostgreSQL face metadata repository
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// UpsertFace inserts a record or refreshes the profile fields of an existing one
func (r *FaceRepository) UpsertFace(ctx context.Context, userID int, profile database.Profile) error {
	query := `
		INSERT INTO admin_faces (user_id, email, full_name, role_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role_name = EXCLUDED.role_name,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	_, err := r.pool.db.ExecContext(ctx, query, userID,
		database.NullString(profile.Email),
		database.NullString(profile.FullName),
		database.NullString(profile.Role),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert face %d: %w", userID, err)
	}
	return nil
}

// GetFace retrieves a record by user ID, returns nil if not found
func (r *FaceRepository) GetFace(ctx context.Context, userID int) (*database.UserFaceRecord, error) {
	row := r.pool.db.QueryRowContext(ctx, database.SelectFaces+" WHERE af.user_id = $1", userID)
	rec, err := database.ScanFace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get face %d: %w", userID, err)
	}
	return rec, nil
}

// ListFaces returns all records, newest first
func (r *FaceRepository) ListFaces(ctx context.Context) ([]database.UserFaceRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx, database.SelectFaces+" ORDER BY af.created_at DESC, af.id DESC")
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var records []database.UserFaceRecord
	for rows.Next() {
		rec, err := database.ScanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return records, nil
}

// DeleteFace removes the record of a user
func (r *FaceRepository) DeleteFace(ctx context.Context, userID int) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM admin_faces WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete face %d: %w", userID, err)
	}
	return nil
}

// Ping verifies the connection.
func (r *FaceRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ database.FaceWriter = (*FaceRepository)(nil)
