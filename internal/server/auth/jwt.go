// Package auth issues and verifies the HS256 access tokens carried in gRPC
// metadata.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every access token and required on the way back in.
const Issuer = "timecapsule"

// Claims carries the authenticated user id alongside the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

func GenerateToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

// GetUserIDFromToken validates tokenString. An expired token yields
// common.ErrTokenExpired so clients can refresh; anything else that fails
// yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", common.ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	case claims.UserID == "":
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
