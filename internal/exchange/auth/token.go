package auth

import (
	"fmt"
	"time"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	issuer          = "tradehub-auth"
)

// Claims is the JWT payload issued on login.
type Claims struct {
	Role      models.Role `json:"role"`
	CompanyID string      `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the user. Every token gets its own
// jti so it can be revoked on logout.
func GenerateToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if user.CompanyID != nil {
		claims.CompanyID = user.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken checks the signature and expiry and returns the claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", e.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", e.ErrUnauthorized)
	}
	return claims, nil
}

// Actor converts the claims into the caller identity used by services.
func (c *Claims) Actor() (models.Actor, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: malformed subject", e.ErrUnauthorized)
	}
	actor := models.Actor{UserID: userID, Role: c.Role}
	if c.CompanyID != "" {
		companyID, err := uuid.Parse(c.CompanyID)
		if err != nil {
			return models.Actor{}, fmt.Errorf("%w: malformed company claim", e.ErrUnauthorized)
		}
		actor.CompanyID = companyID
	}
	return actor, nil
}

// Remaining is how long the token stays valid, used as the blacklist TTL.
func (c *Claims) Remaining() time.Duration {
	if c.ExpiresAt == nil {
		return DefaultTokenTTL
	}
	if d := time.Until(c.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}
