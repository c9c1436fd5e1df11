package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/httpclient"
	"pet-health-tracker/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("introspection client not configured")
	ErrUnauthorized  = errors.New("introspection: token rejected")
	ErrUpstream      = errors.New("introspection upstream error")
)

// Config del cliente de introspección (AUTH_INTROSPECT_URL / AUTH_INTROSPECT_API_KEY).
type Config struct {
	URL    string
	APIKey string

	// Si está vacío se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	url          string
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
}

func NewClient(cfg Config) *Client {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Client{
		url:          strings.TrimSpace(cfg.URL),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         httpclient.New(cfg.Timeout),
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.url != ""
}

type introspectResponse struct {
	Active   bool   `json:"active"`
	Username string `json:"username"`
	Sub      string `json:"sub"`
	JTI      string `json:"jti"`
	Exp      int64  `json:"exp"`
}

// Introspect manda {"token": ...} y espera una respuesta estilo RFC 7662.
func (c *Client) Introspect(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	var out introspectResponse
	err := c.http.DoJSON(ctx, http.MethodPost, c.url, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !out.Active {
		return auth.Claims{}, ErrUnauthorized
	}

	username := strings.TrimSpace(out.Username)
	if username == "" {
		username = strings.TrimSpace(out.Sub)
	}
	claims := auth.Claims{Username: username, TokenID: out.JTI, Type: auth.AccessToken}
	if out.Exp > 0 {
		claims.ExpiresAt = time.Unix(out.Exp, 0).UTC()
	}
	return claims, nil
}
