package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cytogate/internal/platform/config"
)

const issuer = "cytogate"

var (
	// ErrMissingSecret means the signing key is not configured. Fatal
	// misconfiguration, not a user-facing failure.
	ErrMissingSecret = errors.New("jwt secret is not configured")

	ErrSessionInvalid = errors.New("invalid session credential")
	ErrSessionExpired = errors.New("session credential expired")
)

// SessionService issues and validates stateless session credentials. Validity
// is purely signature plus expiry; there is no revocation list.
type SessionService struct {
	config config.JWTConfig
}

func NewSessionService(cfg config.JWTConfig) *SessionService {
	return &SessionService{config: cfg}
}

func (s *SessionService) Issue(userID string) (string, error) {
	if s.config.Secret == "" {
		return "", ErrMissingSecret
	}

	ttl := s.config.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// Validate verifies the signature and expiry and returns the subject user id.
// Expiry is reported distinctly so the audit trail can name it.
func (s *SessionService) Validate(tokenString string) (string, error) {
	if s.config.Secret == "" {
		return "", ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrSessionInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrSessionInvalid
	}
	return claims.Subject, nil
}
