package introspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-health-tracker/internal/ports/auth"
)

// Verifier implementa auth.AuthVerifier delegando en un servicio de identidad externo.
// Se usa en lugar del JWT local cuando AUTH_INTROSPECT_URL está configurado.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	claims, err := v.client.Introspect(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("introspect verify failed: %w", err)
	}
	if strings.TrimSpace(claims.Username) == "" {
		return auth.Claims{}, errors.New("introspection response missing username")
	}
	return claims, nil
}
