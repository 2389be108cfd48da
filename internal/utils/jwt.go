package utils

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the "typ" claim.
const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

// Identity is the caller attached to authenticated requests.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"userName"`
	Email    string    `json:"email"`
	RoleType string    `json:"roleType"`
}

type jwtCustomClaims struct {
	Identity
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT of the given kind for the identity.
func GenerateToken(secret string, ident Identity, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtCustomClaims{
		Identity: ident,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and its kind and returns the identity.
func ParseToken(secret, tokenString, kind string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, errors.Wrap(err, "parse token")
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid || claims.Identity.ID == uuid.Nil {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != kind {
		return Identity{}, errors.Errorf("unexpected token kind %q", claims.Kind)
	}

	return claims.Identity, nil
}
