package profile

import "time"

// Profile is the super-admin profile row. Its ID equals the user ID.
type Profile struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Snapshot returns the audit-log value snapshot of the profile.
func (p Profile) Snapshot() map[string]any {
	return map[string]any{
		"name":  p.Name,
		"email": p.Email,
		"role":  p.Role,
		"phone": p.Phone,
	}
}
