package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"susmanga/internal/middleware/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginDisabled      = errors.New("admin login is not configured")
)

// LoginService exchanges the dashboard admin credentials for a bearer token.
type LoginService interface {
	Login(username, password string) (token string, ttl time.Duration, err error)
}

type loginService struct {
	auth         AuthService
	username     string
	passwordHash string
	ttl          time.Duration
}

// NewLoginService checks logins against a single admin account. An empty
// passwordHash disables login.
func NewLoginService(authService AuthService, username, passwordHash string, ttl time.Duration) LoginService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &loginService{auth: authService, username: username, passwordHash: passwordHash, ttl: ttl}
}

func (s *loginService) Login(username, password string) (string, time.Duration, error) {
	if s.passwordHash == "" {
		return "", 0, ErrLoginDisabled
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if err := auth.VerifyPassword(s.passwordHash, password); err != nil || !userOK {
		if err != nil && !errors.Is(err, auth.ErrPasswordMismatch) {
			return "", 0, err
		}
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(s.username, RoleAdmin, s.ttl)
	if err != nil {
		return "", 0, err
	}
	return token, s.ttl, nil
}
