/*
Package jwt signs and verifies the small claim sets the web client keeps in browser cookies.

Only references live in the browser: the session id and, between sign-up and email
verification, the pending address. Everything else stays server side.
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenIssuer identifies tokens minted by this service.
const TokenIssuer = "arzweb"

// ErrWrongPurpose is returned when a valid token is presented for another purpose.
var ErrWrongPurpose = errors.New("token issued for a different purpose")

// GenerateToken signs payload with HS256. A non-positive duration yields a token without expiry,
// which is used for browser-session cookies whose lifetime the browser controls.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		IssuedAt: now.Unix(),
		Issuer:   TokenIssuer,
	}
	if duration > 0 {
		payload.ExpiresAt = now.Add(duration).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken verifies tokenString and checks that it was issued for purpose.
func ParseToken(tokenString, secretKey, purpose string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}
