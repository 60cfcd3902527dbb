package database

import "database/sql"

// SelectFaces selects face records joined with the profile table. Backends
// append their own WHERE / ORDER BY clause.
const SelectFaces = `
	SELECT af.id, af.user_id, af.email, af.full_name, af.role_name, af.created_at, af.updated_at,
		u.name, u.email
	FROM admin_faces af
	LEFT JOIN users u ON af.user_id = u.id`

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFace scans one row selected with SelectFaces.
func ScanFace(s Scanner) (*UserFaceRecord, error) {
	var (
		rec                                    UserFaceRecord
		email, fullName, role, name, userEmail sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.UserID, &email, &fullName, &role, &rec.CreatedAt, &rec.UpdatedAt, &name, &userEmail)
	if err != nil {
		return nil, err
	}
	rec.Email = nullable(email)
	rec.FullName = nullable(fullName)
	rec.RoleName = nullable(role)
	rec.UserName = nullable(name)
	rec.UserEmail = nullable(userEmail)
	return &rec, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
