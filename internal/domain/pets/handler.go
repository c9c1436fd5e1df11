package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/messages"

	"github.com/go-chi/chi/v5"
)

const (
	maxUploadBytes  = 10 << 20
	maxRequestBytes = maxUploadBytes + 1<<20
)

// RegisterRoutes monta /pets bajo r. Se asume RequireAuth en el router padre.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(svc))
		pr.Post("/", createPetHandler(svc))

		pr.Get("/{id}", getPetHandler(svc))
		pr.Put("/{id}", updatePetHandler(svc))
		pr.Delete("/{id}", deletePetHandler(svc))

		// Compartir (solo owner)
		pr.Post("/{id}/share", sharePetHandler(svc))
		pr.Delete("/{id}/share/{username}", unsharePetHandler(svc))

		pr.Get("/{id}/photo", petPhotoHandler(svc))
	})
}

type createPetRequest struct {
	Name      string `json:"name"`
	Breed     string `json:"breed"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Gender    string `json:"gender"`
	PhotoURL  string `json:"photo_url"`
}

type shareRequest struct {
	Username string `json:"username"`
}

type petResponse struct {
	ID                 string   `json:"_id"`
	Name               string   `json:"name"`
	Breed              string   `json:"breed"`
	BirthDate          *string  `json:"birth_date"`
	Gender             string   `json:"gender"`
	PhotoFileID        string   `json:"photo_file_id,omitempty"`
	PhotoURL           string   `json:"photo_url,omitempty"`
	Owner              string   `json:"owner"`
	SharedWith         []string `json:"shared_with"`
	CreatedAt          string   `json:"created_at"`
	CreatedBy          string   `json:"created_by"`
	CurrentUserIsOwner bool     `json:"current_user_is_owner"`
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Description Devuelve las mascotas propias y las compartidas con el usuario, más recientes primero.
// @Tags pets
// @Produce json
// @Success 200 {object} map[string][]petResponse
// @Failure 401 {object} map[string]string
// @Router /api/pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		items, err := svc.ListAccessible(r.Context(), username)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p, username))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"pets": out})
	}
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Acepta JSON (con photo_url opcional) o multipart/form-data (con photo_file).
// @Tags pets
// @Accept json,mpfd
// @Produce json
// @Param payload body createPetRequest false "Datos de la mascota"
// @Success 201 {object} map[string]any
// @Failure 422 {object} map[string]string
// @Router /api/pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		var in CreateInput
		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				httpx.WriteError(w, err)
				return
			}
			in = CreateInput{
				Name:      r.FormValue("name"),
				Breed:     r.FormValue("breed"),
				BirthDate: r.FormValue("birth_date"),
				Gender:    r.FormValue("gender"),
				PhotoURL:  r.FormValue("photo_url"),
			}
			up, cleanup, err := formPhoto(r)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			defer cleanup()
			in.Photo = up
		} else {
			var req createPetRequest
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, err)
				return
			}
			in = CreateInput{
				Name:      req.Name,
				Breed:     req.Breed,
				BirthDate: req.BirthDate,
				Gender:    req.Gender,
				PhotoURL:  req.PhotoURL,
			}
		}

		p, err := svc.Create(r.Context(), username, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		httpx.WriteSuccess(w, http.StatusCreated, messages.Get("pet_created", nil), map[string]any{
			"pet": toPetResponse(p, username),
		})
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		p, err := svc.GetForUser(r.Context(), chi.URLParam(r, "id"), username, false)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(p, username))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description Solo el dueño. JSON parcial, o multipart para reemplazar la foto (photo_file) o quitarla (remove_photo=true).
// @Tags pets
// @Accept json,mpfd
// @Produce json
// @Param id path string true "ID de la mascota"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/pets/{id} [put]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		current, err := svc.GetForUser(r.Context(), chi.URLParam(r, "id"), username, true)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		var in UpdateInput
		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				httpx.WriteError(w, err)
				return
			}
			in = UpdateInput{
				Name:        formField(r.MultipartForm, "name"),
				Breed:       formField(r.MultipartForm, "breed"),
				Gender:      formField(r.MultipartForm, "gender"),
				BirthDate:   formField(r.MultipartForm, "birth_date"),
				PhotoURL:    formField(r.MultipartForm, "photo_url"),
				RemovePhoto: isTrue(r.FormValue("remove_photo")),
			}
			up, cleanup, err := formPhoto(r)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			defer cleanup()
			in.Photo = up
		} else {
			in, err = decodeUpdateJSON(r)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
		}

		updated, err := svc.Update(r.Context(), current, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, messages.Get("pet_updated", nil), map[string]any{
			"pet": toPetResponse(updated, username),
		})
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		p, err := svc.GetForUser(r.Context(), chi.URLParam(r, "id"), username, true)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := svc.Delete(r.Context(), p); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("pet_deleted", nil), nil)
	}
}

// sharePetHandler godoc
// @Summary Compartir mascota
// @Description Solo el dueño. Agrega un usuario activo a shared_with.
// @Tags pets
// @Accept json
// @Produce json
// @Param id path string true "ID de la mascota"
// @Param payload body shareRequest true "Usuario destino"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string "usuario o mascota inexistente"
// @Failure 422 {object} map[string]string "username vacío, propio o ya compartido"
// @Router /api/pets/{id}/share [post]
func sharePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		p, err := svc.GetForUser(r.Context(), chi.URLParam(r, "id"), username, true)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		var req shareRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		target := strings.TrimSpace(req.Username)
		if err := svc.Share(r.Context(), p, target); err != nil {
			httpx.WriteError(w, err)
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, messages.Get("pet_shared", map[string]string{"username": target}), map[string]any{
			"username": target,
		})
	}
}

func unsharePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		p, err := svc.GetForUser(r.Context(), chi.URLParam(r, "id"), username, true)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		target := strings.TrimSpace(chi.URLParam(r, "username"))
		if err := svc.Unshare(r.Context(), p, target); err != nil {
			httpx.WriteError(w, err)
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, messages.Get("pet_unshared", map[string]string{"username": target}), map[string]any{
			"username": target,
		})
	}
}

// petPhotoHandler godoc
// @Summary Foto de la mascota
// @Tags pets
// @Produce image/jpeg,image/png
// @Param id path string true "ID de la mascota"
// @Success 200 {file} binary
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/pets/{id}/photo [get]
func petPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.CurrentUsername(r.Context())

		ph, err := svc.Photo(r.Context(), chi.URLParam(r, "id"), username)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		etag := `"` + ph.ID + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		filename := ph.Filename
		if filename == "" {
			filename = "photo"
		}
		w.Header().Set("Content-Type", ph.ContentType)
		w.Header().Set("Content-Disposition", httpx.ContentDisposition("inline", filename, ""))
		w.Header().Set("Content-Length", strconv.Itoa(len(ph.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(ph.Data)
	}
}

// decodeUpdateJSON distingue "no enviado" de null: birth_date null limpia la fecha.
func decodeUpdateJSON(r *http.Request) (UpdateInput, error) {
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		return UpdateInput{}, err
	}

	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			empty := ""
			return &empty, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, apperr.Unprocessable(key + " must be a string")
		}
		return &s, nil
	}

	var (
		in  UpdateInput
		err error
	)
	if in.Name, err = str("name"); err != nil {
		return UpdateInput{}, err
	}
	if in.Breed, err = str("breed"); err != nil {
		return UpdateInput{}, err
	}
	if in.Gender, err = str("gender"); err != nil {
		return UpdateInput{}, err
	}
	if in.BirthDate, err = str("birth_date"); err != nil {
		return UpdateInput{}, err
	}
	if in.PhotoURL, err = str("photo_url"); err != nil {
		return UpdateInput{}, err
	}
	if v, ok := raw["remove_photo"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return UpdateInput{}, apperr.Unprocessable("remove_photo must be a boolean")
		}
		in.RemovePhoto = b
	}
	return in, nil
}

func toPetResponse(p Pet, currentUser string) petResponse {
	out := petResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Breed:              p.Breed,
		Gender:             string(p.Gender),
		PhotoFileID:        p.PhotoFileID,
		PhotoURL:           p.PhotoURL,
		Owner:              p.Owner,
		SharedWith:         p.SharedWith,
		CreatedAt:          p.CreatedAt.UTC().Format(dates.DateTimeLayout),
		CreatedBy:          p.CreatedBy,
		CurrentUserIsOwner: p.IsOwner(currentUser),
	}
	if out.SharedWith == nil {
		out.SharedWith = []string{}
	}
	if p.BirthDate != nil {
		bd := p.BirthDate.Format(dates.DateLayout)
		out.BirthDate = &bd
	}
	if p.PhotoFileID != "" {
		out.PhotoURL = "/api/pets/" + p.ID + "/photo"
	}
	return out
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// formField devuelve nil si el campo no vino en el form.
func formField(f *multipart.Form, key string) *string {
	if f == nil {
		return nil
	}
	vs, ok := f.Value[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

// formPhoto devuelve nil si no se subió photo_file.
// parseMultipart acota el body completo; ParseMultipartForm solo acota lo que queda en memoria.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.PayloadTooLarge(msgBodyTooLarge)
		}
		return apperr.Unprocessable(msgInvalidInput)
	}
	return nil
}

func formPhoto(r *http.Request) (*PhotoUpload, func(), error) {
	noop := func() {}
	file, hdr, err := r.FormFile("photo_file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, noop, nil
		}
		return nil, noop, apperr.Unprocessable(msgInvalidInput)
	}
	if hdr.Size == 0 {
		_ = file.Close()
		return nil, noop, nil
	}
	ct := hdr.Header.Get("Content-Type")
	return &PhotoUpload{Filename: hdr.Filename, ContentType: ct, Body: file}, func() { _ = file.Close() }, nil
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
