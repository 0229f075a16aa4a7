// OAuth state tokens.
//
// The state parameter rides from our redirect, through the provider, back to
// our callback. Signing it (HS256) means the callback can check, without any
// server-side storage, that the state originated here and hasn't been
// tampered with; the short expiry bounds replay. The handler additionally
// mirrors the state into a cookie and compares on callback, which ties the
// flow to one browser.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"ret":"/jobs","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	stateIssuer   = "job-pilot"
	stateLifetime = 10 * time.Minute
)

// StateService issues and verifies signed OAuth state tokens.
//
// It holds the HMAC secret key used to sign and verify. The same secret must
// be used for both operations — keep it safe, rotate it periodically in
// production.
type StateService struct {
	secret []byte
}

// NewStateService creates a StateService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: STATE_SECRET=$(openssl rand -hex 32)
func NewStateService(secret string) (*StateService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateService{secret: []byte(secret)}, nil
}

// stateClaims is the token payload. The random jti (ID) makes every state
// value unique even for identical return-to hints; ret carries an optional
// post-login path on our own origin.
type stateClaims struct {
	ReturnTo string `json:"ret,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed state token carrying an optional return-to path.
func (s *StateService) Issue(returnTo string) (string, error) {
	return s.issueWithLifetime(returnTo, stateLifetime)
}

func (s *StateService) issueWithLifetime(returnTo string, d time.Duration) (string, error) {
	now := time.Now()

	c := stateClaims{
		ReturnTo: returnTo,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    stateIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing state token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a state token and returns its return-to hint.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (the flow completed within the lifetime)
//   - Issuer matches (prevents tokens minted by other apps with our library)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
func (s *StateService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&stateClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: state token expired")
		}
		return "", fmt.Errorf("auth: invalid state token: %w", err)
	}

	c, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid state token claims")
	}

	return c.ReturnTo, nil
}
