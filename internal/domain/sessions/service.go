package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/auth"
)

const (
	msgCredentialsRequired = "username and password are required"
	msgInvalidCredentials  = "invalid username or password"
	msgInvalidRefresh      = "invalid or expired refresh token"
	msgInactive            = "user is inactive"
)

// Accounts es lo que sessions necesita de users (lo implementa *users.Service).
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (users.User, error)
	IsActive(ctx context.Context, username string) (bool, error)
	Get(ctx context.Context, username string) (users.User, error)
	IsAdmin(username string) bool
}

type Service struct {
	accounts Accounts
	tokens   auth.TokenIssuer
	revoker  auth.TokenRevoker
	log      logger.Logger
	now      func() time.Time
}

// NewService: revoker puede ser nil (logout solo limpia cookies).
func NewService(accounts Accounts, tokens auth.TokenIssuer, revoker auth.TokenRevoker, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		revoker:  revoker,
		log:      log.With(map[string]any{"component": "sessions"}),
		now:      time.Now,
	}
}

// Session es el resultado de un login exitoso.
type Session struct {
	User    users.User
	Access  auth.IssuedToken
	Refresh auth.IssuedToken
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, apperr.BadRequest(msgCredentialsRequired)
	}

	u, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			s.log.Warn("login failed", map[string]any{"username": username})
			return Session{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return Session{}, apperr.Internal(err)
	}

	access, err := s.tokens.Issue(u.Username, auth.AccessToken)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	refresh, err := s.tokens.Issue(u.Username, auth.RefreshToken)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}

	s.log.Info("login", map[string]any{"username": u.Username})
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh emite un access token nuevo a partir de un refresh token vigente.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.IssuedToken, error) {
	claims, err := s.tokens.Parse(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenRevoked) {
			return auth.IssuedToken{}, apperr.Unauthorized(msgInvalidRefresh)
		}
		return auth.IssuedToken{}, apperr.Internal(err)
	}

	active, err := s.accounts.IsActive(ctx, claims.Username)
	if err != nil {
		return auth.IssuedToken{}, apperr.Internal(err)
	}
	if !active {
		return auth.IssuedToken{}, apperr.Unauthorized(msgInactive)
	}

	access, err := s.tokens.Issue(claims.Username, auth.AccessToken)
	if err != nil {
		return auth.IssuedToken{}, apperr.Internal(err)
	}
	return access, nil
}

// Logout revoca el access token actual y, si vino, el refresh token.
// Un refresh token inválido no es error: ya no sirve para nada.
func (s *Service) Logout(ctx context.Context, current auth.Claims, refreshToken string) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoke(ctx, current); err != nil {
		return apperr.Internal(err)
	}

	if strings.TrimSpace(refreshToken) != "" {
		if rc, err := s.tokens.Parse(ctx, refreshToken, auth.RefreshToken); err == nil && rc.Username == current.Username {
			if err := s.revoke(ctx, rc); err != nil {
				return apperr.Internal(err)
			}
		}
	}

	s.log.Info("logout", map[string]any{"username": current.Username})
	return nil
}

func (s *Service) revoke(ctx context.Context, c auth.Claims) error {
	if c.TokenID == "" || c.ExpiresAt.IsZero() {
		return nil
	}
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, c.TokenID, ttl)
}

// Me devuelve el usuario actual y si es admin.
func (s *Service) Me(ctx context.Context, username string) (users.User, bool, error) {
	u, err := s.accounts.Get(ctx, username)
	if err != nil {
		return users.User{}, false, err
	}
	return u, s.accounts.IsAdmin(u.Username), nil
}
