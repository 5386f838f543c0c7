package models

import "time"

// UserRole represents the available authorization roles.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
)

// IsAdmin reports whether the role carries full write access.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	AvatarPath   string     `db:"avatar_path" json:"-"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserPublic is the projection embedded as *_detail objects and returned by
// the read-only users endpoints.
type UserPublic struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	Role      UserRole `json:"role"`
	AvatarURL *string  `json:"avatar_url"`
}

// Public converts a user into its public projection. avatarBase is the
// public path avatars are served from; an empty AvatarPath yields a nil URL.
func (u *User) Public(avatarBase string) UserPublic {
	pub := UserPublic{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
	if u.AvatarPath != "" {
		url := avatarBase + "/" + u.AvatarPath
		pub.AvatarURL = &url
	}
	return pub
}

// Actor identifies the authenticated caller inside service operations.
type Actor struct {
	ID   string
	Role UserRole
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
