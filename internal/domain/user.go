package domain

import "encoding/json"

// User roles, lowest to highest privilege
const (
	RoleProspectiveTenant = "prospective_tenant" // Applicant without an active lease
	RoleTenant            = "tenant"             // Holder of an active lease
	RoleManager           = "manager"            // Property manager / landlord
	RoleAdmin             = "admin"              // Operator
)

// User Model
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                            // Primary key
	Username  string `gorm:"unique;not null" json:"username"`                 // Unique username
	Password  string `gorm:"not null" json:"-"`                               // Hashed password
	Role      string `gorm:"not null;default:prospective_tenant" json:"role"` // Single writable access level
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`          // Timestamp of creation in milliseconds
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`          // Monotonic, used for optimistic concurrency
}

// MarshalJSON exposes the legacy user_type name as a read-only projection of
// Role. There is no second column behind it, so the two can never disagree.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User // Drop methods to avoid recursive marshaling
	return json.Marshal(struct {
		alias
		LegacyUserType string `json:"user_type"`
	}{alias(u), u.Role})
}
