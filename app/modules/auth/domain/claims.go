package authdomain

import "time"

// Claims represents the domain model for authentication claims.
type Claims struct {
	TokenID   string
	Subject   string // operator name, recorded as the actor of privileged reads
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsAdmin reports whether the claims grant privileged exports.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
