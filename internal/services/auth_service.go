package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"marktplatz/internal/domain"
	applog "marktplatz/internal/log"
	"marktplatz/internal/repos"
)

// DefaultSessionDays is how long an anonymous session survives without activity.
const DefaultSessionDays = 30

var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds dashboard accounts to browser sessions.
type AuthService struct {
	Users *repos.UserRepo
	// SessionDays overrides DefaultSessionDays when positive.
	SessionDays int
}

// Login checks the password and binds sid to the account. Unknown emails and
// wrong passwords both yield ErrBadCreds.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)); err != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// ExpireSessions removes stale anonymous sessions and reports how many went.
func (s *AuthService) ExpireSessions() (int64, error) {
	days := s.SessionDays
	if days <= 0 {
		days = DefaultSessionDays
	}
	n, err := s.Users.DeleteExpiredSessions(days)
	if err != nil {
		applog.Error(nil, "auth.sessions.expire.fail", err, nil)
		return 0, err
	}
	if n > 0 {
		applog.Info(nil, "auth.sessions.expired", map[string]any{"removed": n, "days": days})
	}
	return n, nil
}
