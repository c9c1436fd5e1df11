package auth

import "time"

// TokenType distingue access de refresh (claim "typ").
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims representa la información extraída del token.
type Claims struct {
	Username  string
	TokenID   string    // jti; vacío en modo dev o si el verifier remoto no lo informa
	Type      TokenType // vacío si el verifier no lo informa
	ExpiresAt time.Time // zero si no aplica
}

// IssuedToken es un token recién firmado.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}
