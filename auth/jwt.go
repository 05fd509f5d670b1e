package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// GitHub App JWT timing. GitHub rejects tokens valid for more than ten
// minutes and recommends backdating iat to absorb clock drift.
const (
	AppJWTTTL      = 10 * time.Minute
	AppJWTBackdate = 60 * time.Second
)

// AppClaims are the claims of a GitHub App JWT.
type AppClaims struct {
	jwt.RegisteredClaims
}

// ParsePrivateKey parses a PEM-encoded RSA private key (PKCS#1 or PKCS#8).
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// GenerateAppJWT signs a GitHub App JWT for appID issued at now.
func GenerateAppJWT(key *rsa.PrivateKey, appID int64, now time.Time) (string, error) {
	if key == nil {
		return "", ErrInvalidPrivateKey
	}
	if appID <= 0 {
		return "", fmt.Errorf("%w: app ID is required", ErrAppNotConfigured)
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    strconv.FormatInt(appID, 10),
			IssuedAt:  jwt.NewNumericDate(now.Add(-AppJWTBackdate)),
			ExpiresAt: jwt.NewNumericDate(now.Add(AppJWTTTL - AppJWTBackdate)),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}

// ValidateAppJWT verifies a GitHub App JWT against the app's public key
// and returns its claims.
func ValidateAppJWT(pub *rsa.PublicKey, tokenString string) (*AppClaims, error) {
	claims := &AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
