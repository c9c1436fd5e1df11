package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "v", r.Header.Get("X-Extra"))
			b, _ := io.ReadAll(r.Body)
			_, _ = w.Write(b)
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(" nope "))
		}
	}))
	defer srv.Close()

	c := New(0)
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, c.DoJSON(ctx, http.MethodPost, srv.URL+"/echo", map[string]string{"X-Extra": "v"}, map[string]string{"a": "b"}, &out))
	assert.Equal(t, map[string]string{"a": "b"}, out)

	require.NoError(t, c.DoJSON(ctx, http.MethodGet, srv.URL+"/empty", nil, nil, &out))

	err := c.DoJSON(ctx, http.MethodGet, srv.URL+"/other", nil, nil, nil)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTeapot, he.StatusCode)
	assert.Equal(t, "nope", he.Body)

	assert.Error(t, c.DoJSON(ctx, http.MethodGet, " ", nil, nil, nil))
	var nilClient *Client
	assert.Error(t, nilClient.DoJSON(ctx, http.MethodGet, srv.URL, nil, nil, nil))
}
