package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-tracker/internal/ports/auth"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const leeway = 5 * time.Second

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type tokenClaims struct {
	Type auth.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Manager firma y verifica JWT HS256. Implementa auth.AuthVerifier y auth.TokenIssuer.
// revoker puede ser nil (sin logout server-side).
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoker    auth.TokenRevoker
	now        func() time.Time
}

func NewManager(cfg Config, revoker auth.TokenRevoker) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwtauth: secret is empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwtauth: ttl must be positive")
	}
	return &Manager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		revoker:    revoker,
		now:        time.Now,
	}, nil
}

func (m *Manager) TTL(typ auth.TokenType) time.Duration {
	if typ == auth.RefreshToken {
		return m.refreshTTL
	}
	return m.accessTTL
}

func (m *Manager) Issue(username string, typ auth.TokenType) (auth.IssuedToken, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return auth.IssuedToken{}, errors.New("jwtauth: username is empty")
	}
	if typ != auth.AccessToken && typ != auth.RefreshToken {
		return auth.IssuedToken{}, fmt.Errorf("jwtauth: unknown token type %q", typ)
	}

	now := m.now().UTC()
	exp := now.Add(m.TTL(typ))
	jti := uuid.NewString()

	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return auth.IssuedToken{}, fmt.Errorf("jwtauth: sign: %w", err)
	}
	return auth.IssuedToken{Token: signed, TokenID: jti, ExpiresAt: exp}, nil
}

// Parse valida firma, expiración, tipo y revocación.
func (m *Manager) Parse(ctx context.Context, token string, typ auth.TokenType) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if tc.Type != typ {
		return auth.Claims{}, fmt.Errorf("%w: expected %s token", auth.ErrInvalidToken, typ)
	}
	if strings.TrimSpace(tc.Subject) == "" || tc.ID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub or jti", auth.ErrInvalidToken)
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, tc.ID)
		if err != nil {
			return auth.Claims{}, fmt.Errorf("jwtauth: revocation check: %w", err)
		}
		if revoked {
			return auth.Claims{}, auth.ErrTokenRevoked
		}
	}

	out := auth.Claims{Username: tc.Subject, TokenID: tc.ID, Type: tc.Type}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out, nil
}

// Verify implementa auth.AuthVerifier: solo acepta access tokens.
func (m *Manager) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return m.Parse(ctx, token, auth.AccessToken)
}
