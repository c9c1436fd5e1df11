package pets

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test doubles (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Pet{}} }

func (r *testRepo) Create(_ context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListAccessible(_ context.Context, username string) ([]Pet, error) {
	out := []Pet{}
	for _, p := range r.byID {
		if p.IsOwner(username) || p.IsSharedWith(username) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) Update(_ context.Context, id string, patch Patch) error {
	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.byID[id] = patch.Apply(p)
	return nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) AddShare(_ context.Context, id, username string) error {
	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !p.IsSharedWith(username) {
		p.SharedWith = append(p.SharedWith, username)
	}
	r.byID[id] = p
	return nil
}

func (r *testRepo) RemoveShare(_ context.Context, id, username string) error {
	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	kept := []string{}
	for _, u := range p.SharedWith {
		if u != username {
			kept = append(kept, u)
		}
	}
	p.SharedWith = kept
	r.byID[id] = p
	return nil
}

type testPhotos struct {
	blobs map[string]Photo
}

func (s *testPhotos) Save(_ context.Context, filename, ct string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := storage.NewID()
	s.blobs[id] = Photo{ID: id, Filename: filename, ContentType: ct, Data: b}
	return id, nil
}

func (s *testPhotos) Open(_ context.Context, id string) (Photo, error) {
	p, ok := s.blobs[id]
	if !ok {
		return Photo{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *testPhotos) Delete(_ context.Context, id string) error {
	delete(s.blobs, id)
	return nil
}

type testUsers map[string]bool

func (u testUsers) IsActive(_ context.Context, username string) (bool, error) {
	return u[username], nil
}

func newTestService() (*Service, *testRepo, *testPhotos) {
	repo := newTestRepo()
	photos := &testPhotos{blobs: map[string]Photo{}}
	svc := NewService(repo, photos, testUsers{"alice": true, "bob": true, "carol": false}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo, photos
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	return ae.Status
}

func image(data string) *PhotoUpload {
	return &PhotoUpload{Filename: "milo.png", ContentType: "image/png", Body: bytes.NewBufferString(data)}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateInput{Name: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	_, err = svc.Create(ctx, "alice", CreateInput{Name: "Milo", BirthDate: "2030-01-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	_, err = svc.Create(ctx, "alice", CreateInput{Name: "Milo", BirthDate: "10/05/2020"})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	_, err = svc.Create(ctx, "alice", CreateInput{Name: "Milo", Photo: &PhotoUpload{ContentType: "text/plain", Body: strings.NewReader("x")}})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	p, err := svc.Create(ctx, "alice", CreateInput{Name: " Milo ", BirthDate: "2020-02-29", Photo: image("png")})
	require.NoError(t, err)
	assert.True(t, storage.ValidID(p.ID))
	assert.Equal(t, "Milo", p.Name)
	assert.Equal(t, "alice", p.Owner)
	assert.Equal(t, "alice", p.CreatedBy)
	assert.NotEmpty(t, p.PhotoFileID)
	assert.Empty(t, p.SharedWith)
}

func TestGetForUser_StatusTaxonomy(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo"})
	require.NoError(t, err)
	require.NoError(t, svc.Share(ctx, p, "bob"))

	_, err = svc.GetForUser(ctx, "bad-id", "alice", false)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.GetForUser(ctx, storage.NewID(), "alice", false)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = svc.GetForUser(ctx, p.ID, "mallory", false)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	got, err := svc.GetForUser(ctx, p.ID, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetForUser(ctx, p.ID, "bob", true)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestShare_Rules(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, svc.Share(ctx, p, " ")))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Share(ctx, p, "ghost")))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Share(ctx, p, "carol")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, svc.Share(ctx, p, "alice")))

	require.NoError(t, svc.Share(ctx, p, "bob"))
	p = repo.byID[p.ID]
	assert.Equal(t, []string{"bob"}, p.SharedWith)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, svc.Share(ctx, p, "bob")))

	require.NoError(t, svc.Unshare(ctx, p, "bob"))
	assert.Empty(t, repo.byID[p.ID].SharedWith)
}

func TestUpdate_ReplacesAndRemovesPhoto(t *testing.T) {
	svc, repo, photos := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo", Photo: image("v1")})
	require.NoError(t, err)
	oldPhoto := p.PhotoFileID

	_, err = svc.Update(ctx, p, UpdateInput{})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	updated, err := svc.Update(ctx, p, UpdateInput{Photo: image("v2")})
	require.NoError(t, err)
	assert.NotEqual(t, oldPhoto, updated.PhotoFileID)
	assert.NotContains(t, photos.blobs, oldPhoto)
	assert.Equal(t, []byte("v2"), photos.blobs[updated.PhotoFileID].Data)

	newPhoto := updated.PhotoFileID
	updated, err = svc.Update(ctx, updated, UpdateInput{RemovePhoto: true})
	require.NoError(t, err)
	assert.Empty(t, updated.PhotoFileID)
	assert.Empty(t, repo.byID[p.ID].PhotoFileID)
	assert.NotContains(t, photos.blobs, newPhoto)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo", Breed: "mixed", BirthDate: "2020-01-01"})
	require.NoError(t, err)

	breed := "siamese"
	none := ""
	_, err = svc.Update(ctx, p, UpdateInput{Breed: &breed, BirthDate: &none})
	require.NoError(t, err)

	stored := repo.byID[p.ID]
	assert.Equal(t, "Milo", stored.Name)
	assert.Equal(t, "siamese", stored.Breed)
	assert.Nil(t, stored.BirthDate)
	assert.Equal(t, "alice", stored.Owner)
}

func TestPhoto_Errors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	noPhoto, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo"})
	require.NoError(t, err)
	withPhoto, err := svc.Create(ctx, "alice", CreateInput{Name: "Luna", Photo: image("png")})
	require.NoError(t, err)

	_, err = svc.Photo(ctx, "nope", "alice")
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	_, err = svc.Photo(ctx, storage.NewID(), "alice")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	_, err = svc.Photo(ctx, withPhoto.ID, "bob")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	_, err = svc.Photo(ctx, noPhoto.ID, "alice")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	ph, err := svc.Photo(ctx, withPhoto.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ph.ContentType)
	assert.Equal(t, []byte("png"), ph.Data)
}

func TestDelete_RemovesPetAndPhoto(t *testing.T) {
	svc, repo, photos := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Name: "Milo", Photo: image("png")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p))
	assert.NotContains(t, repo.byID, p.ID)
	assert.Empty(t, photos.blobs)

	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Delete(ctx, p)))
}
