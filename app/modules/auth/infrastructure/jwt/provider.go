package authjwt

import (
	"errors"
	"fmt"
	"time"

	authdomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL applies when neither the caller nor the config sets a ttl.
const DefaultTTL = time.Hour

const issuer = "elections"

type adminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type provider struct {
	secret     []byte
	defaultTTL time.Duration
}

// NewProvider creates an HS256 provider.
func NewProvider(secret string, defaultTTL time.Duration) Provider {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &provider{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
	}
}

// GenerateToken creates a signed JWT token for subject.
func (p *provider) GenerateToken(subject string, role authdomain.Role, ttl time.Duration) (string, error) {
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	if ttl == 0 {
		ttl = p.defaultTTL
	}

	now := time.Now()
	claims := &adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the domain claims if valid.
func (p *provider) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := authdomain.Role(claims.Role)
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	domainClaims := &authdomain.Claims{
		TokenID: claims.ID,
		Subject: claims.Subject,
		Role:    role,
	}
	if claims.ExpiresAt != nil {
		domainClaims.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		domainClaims.IssuedAt = claims.IssuedAt.Time
	}

	return domainClaims, nil
}
