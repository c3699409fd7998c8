package authjwt

import (
	"time"

	authdomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/domain"
)

// Provider defines the interface for JWT token operations.
type Provider interface {
	// GenerateToken signs a token for subject with role. A zero ttl uses the
	// provider default.
	GenerateToken(subject string, role authdomain.Role, ttl time.Duration) (string, error)

	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(tokenString string) (*authdomain.Claims, error)
}
