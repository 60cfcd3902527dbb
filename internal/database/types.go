package database

import (
	"strings"
	"time"
)

// UserFaceRecord is the face metadata row of a user joined with the user
// profile table. Profile columns are nil when the user has no profile row.
type UserFaceRecord struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	Email     *string   `json:"email"`
	FullName  *string   `json:"full_name"`
	RoleName  *string   `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// From the users table (left join)
	UserName  *string `json:"user_name"`
	UserEmail *string `json:"user_email"`
}

// DisplayName returns the best available name for the record.
func (r *UserFaceRecord) DisplayName() string {
	for _, s := range []*string{r.FullName, r.UserName} {
		if s != nil && *s != "" {
			return *s
		}
	}
	return ""
}

// Profile is the identity supplied with a capture.
type Profile struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// IsZero reports whether no profile field was supplied.
func (p Profile) IsZero() bool {
	return strings.TrimSpace(p.Email) == "" &&
		strings.TrimSpace(p.FullName) == "" &&
		strings.TrimSpace(p.Role) == ""
}

// NullString maps an empty string to a SQL NULL parameter.
func NullString(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
