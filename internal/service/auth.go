package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrAdminDisabled = errors.New("admin api disabled")
	ErrInvalidToken  = errors.New("invalid token")
)

// AdminScope is the only scope admin tokens carry.
const AdminScope = "admin"

// AuthService mints and verifies the HS256 bearer tokens of the admin API.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
	clock     Clock
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration, clock Clock) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		clock:     clock,
	}
}

func (s *AuthService) Enabled() bool {
	return s != nil && s.jwtSecret != ""
}

// GenerateJWT mints an admin token for subject. A zero ttl uses the
// configured expiry.
func (s *AuthService) GenerateJWT(subject string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrAdminDisabled
	}
	if ttl <= 0 {
		ttl = s.jwtExpiry
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": AdminScope,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyJWT returns the subject of a valid admin token.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	if !s.Enabled() {
		return "", ErrAdminDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if scope, _ := claims["scope"].(string); scope != AdminScope {
		return "", fmt.Errorf("%w: missing admin scope", ErrInvalidToken)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return subject, nil
}
