package jwt

import "github.com/golang-jwt/jwt"

// Token purposes. A token is only accepted for the purpose it was issued for,
// so a pending-verification cookie can never be replayed as a session cookie.
const (
	PurposeSession = "session"
	PurposePending = "pending"
)

// Payload is the claim set carried by the web client's signed cookies.
type Payload struct {
	// StandardClaims holds expiry, issue time and issuer.
	jwt.StandardClaims

	// Purpose is PurposeSession or PurposePending.
	Purpose string `json:"purpose"`

	// SessionID identifies the server-side session of a browser.
	SessionID string `json:"sid,omitempty"`

	// PendingEmail is the address awaiting verification after sign-up.
	PendingEmail string `json:"pending_email,omitempty"`
}
