package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// AuthVerifier verifica un token de acceso y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma y valida tokens propios (login/refresh).
type TokenIssuer interface {
	Issue(username string, typ TokenType) (IssuedToken, error)
	Parse(ctx context.Context, token string, typ TokenType) (Claims, error)
}

// TokenRevoker guarda los jti revocados (logout) hasta que el token expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
