package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oxbryte/openly-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// SessionClaims is the typed shape of an identity-provider session token.
// The subject is the provider-side account id bridged to the local User row.
type SessionClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Verifier resolves raw session tokens into external account identifiers.
type Verifier interface {
	Verify(token string) (string, error)
}

// TokenVerifier validates provider session JWTs with a shared secret.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier builds a verifier from the identity config.
func NewTokenVerifier(cfg config.IdentityConfig) (*TokenVerifier, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, fmt.Errorf("identity session secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("identity issuer is required")
	}
	return &TokenVerifier{
		secret: []byte(cfg.SessionSecret),
		issuer: cfg.Issuer,
	}, nil
}

// Verify parses and validates the session token, returning the external
// account id carried in the subject claim.
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return "", err
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return subject, nil
}

// MintSessionToken signs a session token for the given external account id.
// Production tokens come from the identity provider; this is the test and
// local-development path.
func MintSessionToken(cfg config.IdentityConfig, subject string, claims SessionClaims) (string, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return "", fmt.Errorf("identity session secret is required")
	}
	claims.Subject = subject
	claims.Issuer = cfg.Issuer
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}
