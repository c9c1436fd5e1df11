package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"pet-health-tracker/internal/adapters/auth/jwtauth"
	mem "pet-health-tracker/internal/adapters/storage/memory"
	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Helpers
// -------------------------

type client struct {
	t    *testing.T
	base string
	// headers extra por request (X-Debug-User o Authorization)
	auth func(*http.Request)
}

func asUser(t *testing.T, base, username string) client {
	return client{t: t, base: base, auth: func(r *http.Request) {
		if username != "" {
			r.Header.Set("X-Debug-User", username)
		}
	}}
}

func (c client) do(method, path string, body any) (int, http.Header, []byte) {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, resp.Header, out
}

func (c client) json(method, path string, body any, wantStatus int) map[string]any {
	c.t.Helper()
	st, _, raw := c.do(method, path, body)
	require.Equal(c.t, wantStatus, st, "%s %s: %s", method, path, string(raw))

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out
}

func yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
}

// -------------------------
// Modo dev (X-Debug-User)
// -------------------------

func TestHTTP_EndToEnd_SharingRecordsAndExport(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	admin := asUser(t, ts.URL, "admin")
	alice := asUser(t, ts.URL, "alice")
	bob := asUser(t, ts.URL, "bob")
	carol := asUser(t, ts.URL, "carol")

	// 1) Admin crea la cuenta de bob (necesaria para compartir)
	admin.json("POST", "/api/users", map[string]any{"username": "bob", "password": "pw"}, http.StatusCreated)

	// 2) Alice crea mascota
	created := alice.json("POST", "/api/pets", map[string]any{"name": "Milo", "breed": "siamese"}, http.StatusCreated)
	pet, _ := created["pet"].(map[string]any)
	petID, _ := pet["_id"].(string)
	require.NotEmpty(t, petID)
	assert.Equal(t, true, pet["current_user_is_owner"])

	// 3) Bob no la ve todavía
	st, _, _ := bob.do("GET", "/api/pets/"+petID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	// 4) Compartir con usuario inexistente => 404; con bob => 200
	st, _, _ = alice.do("POST", "/api/pets/"+petID+"/share", map[string]any{"username": "ghost"})
	assert.Equal(t, http.StatusNotFound, st)
	alice.json("POST", "/api/pets/"+petID+"/share", map[string]any{"username": "bob"}, http.StatusOK)

	got := bob.json("GET", "/api/pets/"+petID, nil, http.StatusOK)
	assert.Equal(t, false, got["current_user_is_owner"])
	list := bob.json("GET", "/api/pets", nil, http.StatusOK)
	assert.Len(t, list["pets"], 1)

	// 5) Bob no puede borrar (solo owner)
	st, _, _ = bob.do("DELETE", "/api/pets/"+petID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	// 6) Bob registra ataques de asma
	for i, comment := range []string{"Attack 1", "Attack 2", "Attack 3"} {
		bob.json("POST", "/api/asthma", map[string]any{
			"pet_id":     petID,
			"date":       yesterday(),
			"time":       fmt.Sprintf("%02d:30", 10+i),
			"duration":   "5 minutes",
			"inhalation": true,
			"comment":    comment,
		}, http.StatusCreated)
	}

	// 7) Paginación: más reciente primero
	page := alice.json("GET", "/api/asthma?pet_id="+petID+"&page=1&page_size=2", nil, http.StatusOK)
	attacks, _ := page["attacks"].([]any)
	require.Len(t, attacks, 2)
	assert.EqualValues(t, 3, page["total"])
	first, _ := attacks[0].(map[string]any)
	assert.Equal(t, "Attack 3", first["comment"])

	page = alice.json("GET", "/api/asthma?pet_id="+petID+"&page=2&page_size=2", nil, http.StatusOK)
	attacks, _ = page["attacks"].([]any)
	assert.Len(t, attacks, 1)

	st, _, _ = alice.do("GET", "/api/asthma?pet_id="+petID+"&page=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, st)

	// page*page_size desborda int: sigue siendo página vacía
	page = alice.json("GET", "/api/asthma?pet_id="+petID+"&page=4611686018427387904&page_size=4", nil, http.StatusOK)
	attacks, _ = page["attacks"].([]any)
	assert.Len(t, attacks, 0)
	assert.EqualValues(t, 3, page["total"])

	// 8) Carol no tiene acceso a los registros
	st, _, _ = carol.do("GET", "/api/asthma?pet_id="+petID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	// 9) Export CSV
	st, hdr, body := alice.do("GET", "/api/export/asthma/csv?pet_id="+petID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	assert.Equal(t, "text/csv", hdr.Get("Content-Type"))
	assert.Contains(t, hdr.Get("Content-Disposition"), "attachment;")
	assert.True(t, bytes.HasPrefix(body, []byte("\ufeff")))
	assert.Contains(t, string(body), "Attack 2")

	st, _, _ = carol.do("GET", "/api/export/asthma/csv?pet_id="+petID, nil)
	assert.Equal(t, http.StatusForbidden, st)
	st, _, _ = alice.do("GET", "/api/export/weight/csv?pet_id="+petID, nil)
	assert.Equal(t, http.StatusNotFound, st)
	st, _, _ = alice.do("GET", "/api/export/asthma/pdf?pet_id="+petID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, st)

	// 10) Dejar de compartir: bob pierde el acceso
	alice.json("DELETE", "/api/pets/"+petID+"/share/bob", nil, http.StatusOK)
	st, _, _ = bob.do("GET", "/api/pets/"+petID, nil)
	assert.Equal(t, http.StatusForbidden, st)

	// 11) Owner borra
	alice.json("DELETE", "/api/pets/"+petID, nil, http.StatusOK)
	st, _, _ = alice.do("GET", "/api/pets/"+petID, nil)
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_ExportContentTypes(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	alice := asUser(t, ts.URL, "alice")
	created := alice.json("POST", "/api/pets", map[string]any{"name": "Milo"}, http.StatusCreated)
	pet, _ := created["pet"].(map[string]any)
	petID, _ := pet["_id"].(string)
	require.NotEmpty(t, petID)

	alice.json("POST", "/api/weight", map[string]any{
		"pet_id": petID,
		"date":   yesterday(),
		"time":   "08:00",
		"weight": 4.2,
	}, http.StatusCreated)

	tests := []struct {
		format string
		want   string
	}{
		{"csv", "text/csv"},
		{"tsv", "text/tab-separated-values"},
		{"html", "text/html"},
		{"md", "text/markdown"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c := asUser(t, ts.URL, "alice")
			st, hdr, body := c.do("GET", "/api/export/weight/"+tt.format+"?pet_id="+petID, nil)
			require.Equal(t, http.StatusOK, st, string(body))
			assert.Equal(t, tt.want, hdr.Get("Content-Type"))
			assert.True(t, strings.HasSuffix(hdr.Get("Content-Disposition"), "."+tt.format),
				hdr.Get("Content-Disposition"))
		})
	}
}

func multipartPet(t *testing.T, name, filename string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo_file"; filename="%s"`, filename))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(photo)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHTTP_PetPhotoUpload(t *testing.T) {
	h := router.NewRouter(router.Options{})

	t.Run("non-ascii filename", func(t *testing.T) {
		body, ct := multipartPet(t, "Michón", "michón.png", []byte("\x89PNG fake"))
		req := httptest.NewRequest(http.MethodPost, "/api/pets", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("X-Debug-User", "alice")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		pet, _ := created["pet"].(map[string]any)
		petID, _ := pet["_id"].(string)
		require.NotEmpty(t, petID)

		req = httptest.NewRequest(http.MethodGet, "/api/pets/"+petID+"/photo", nil)
		req.Header.Set("X-Debug-User", "alice")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, `inline; filename="mich_n.png"; filename*=UTF-8''mich%C3%B3n.png`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("body over the limit", func(t *testing.T) {
		body, ct := multipartPet(t, "Milo", "big.png", bytes.Repeat([]byte{0}, 12<<20))
		req := httptest.NewRequest(http.MethodPost, "/api/pets", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("X-Debug-User", "alice")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "request body too large")

		req = httptest.NewRequest(http.MethodGet, "/api/pets", nil)
		req.Header.Set("X-Debug-User", "alice")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var list map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list["pets"], 1)
	})
}

func TestHTTP_AuthAndAdminGuards(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	anon := asUser(t, ts.URL, "")
	st, _, _ := anon.do("GET", "/api/pets", nil)
	assert.Equal(t, http.StatusUnauthorized, st)

	st, _, _ = asUser(t, ts.URL, "alice").do("GET", "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, st)

	admin := asUser(t, ts.URL, "admin")
	admin.json("POST", "/api/users", map[string]any{"username": "bob", "password": "pw"}, http.StatusCreated)
	st, _, _ = admin.do("POST", "/api/users", map[string]any{"username": "bob", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, st)

	listed := admin.json("GET", "/api/users", nil, http.StatusOK)
	assert.Len(t, listed["users"], 1)

	// /auth no se monta sin emisor de tokens
	st, _, _ = anon.do("POST", "/api/auth/login", map[string]any{"username": "bob", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_HealthMetricsAndDocs(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	anon := asUser(t, ts.URL, "")
	st, _, body := anon.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, "ok", string(body))

	st, _, body = anon.do("GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/health",status="200"} 1`)

	st, _, body = anon.do("GET", "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "/api/export/{kind}/{format}")
}

// -------------------------
// JWT real (login, cookies, rate limit)
// -------------------------

func TestHTTP_LoginFlowWithJWT(t *testing.T) {
	userRepo := mem.NewUserRepo()
	require.NoError(t, users.NewService(userRepo, "admin", nil).EnsureAdmin(context.Background(), "root"))

	revoker := mem.NewRevoker()
	mgr, err := jwtauth.NewManager(jwtauth.Config{Secret: "test-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour}, revoker)
	require.NoError(t, err)

	ts := httptest.NewServer(router.NewRouter(router.Options{
		Verifier:       mgr,
		Tokens:         mgr,
		Revoker:        revoker,
		Stores:         router.Stores{Users: userRepo},
		LoginRateLimit: 3,
	}))
	defer ts.Close()

	anon := client{t: t, base: ts.URL}

	// El header de debug no vale con verifier configurado
	st, _, _ := asUser(t, ts.URL, "admin").do("GET", "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, st)

	login := anon.json("POST", "/api/auth/login", map[string]any{"username": "admin", "password": "root"}, http.StatusOK)
	token, _ := login["access_token"].(string)
	require.NotEmpty(t, token)

	admin := client{t: t, base: ts.URL, auth: func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}}
	admin.json("POST", "/api/users", map[string]any{"username": "bob", "password": "pw"}, http.StatusCreated)
	admin.json("DELETE", "/api/users/bob", nil, http.StatusOK)

	// bob desactivado no puede loguearse
	st, _, _ = anon.do("POST", "/api/auth/login", map[string]any{"username": "bob", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, st)

	// cuarto intento en el mismo minuto => 429 JSON
	st, _, body := anon.do("POST", "/api/auth/login", map[string]any{"username": "admin", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, st)
	st, _, body = anon.do("POST", "/api/auth/login", map[string]any{"username": "admin", "password": "root"})
	assert.Equal(t, http.StatusTooManyRequests, st)
	assert.Contains(t, string(body), `"error"`)

	// logout revoca el access token
	admin.json("POST", "/api/auth/logout", nil, http.StatusOK)
	st, _, _ = admin.do("GET", "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, st)
}
