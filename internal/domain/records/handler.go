package records

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/messages"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /{kind} para cada tipo de registro. Se asume RequireAuth en el router padre.
// Un tipo sin mensajes de éxito en el catálogo es error de programación: panic al arrancar.
func RegisterRoutes(r chi.Router, svc *Service, v *access.Validator) {
	for _, spec := range Kinds() {
		mustHaveMessages(spec.Kind)
		resolve := recordResolver(svc, v, spec)

		r.Route("/"+string(spec.Kind), func(kr chi.Router) {
			kr.With(bindListQuery, middleware.RequirePetAccess(v)).Get("/", listRecordsHandler(svc, spec))
			kr.With(bindCreate(spec), middleware.RequirePetAccess(v)).Post("/", createRecordHandler(svc, spec))

			kr.With(middleware.RequireRecordAccess(resolve)).Put("/{id}", updateRecordHandler(svc, spec))
			kr.With(middleware.RequireRecordAccess(resolve)).Delete("/{id}", deleteRecordHandler(svc, spec))
		})
	}
}

var recordOps = []string{"created", "updated", "deleted"}

func mustHaveMessages(kind Kind) {
	for _, op := range recordOps {
		if key := string(kind) + "_" + op; !messages.Has(key) {
			panic("records: missing message " + key)
		}
	}
}

func recordResolver(svc *Service, v *access.Validator, spec KindSpec) middleware.RecordResolver[Record] {
	return func(ctx context.Context, recordID, username string) (Record, string, error) {
		return access.GetRecordAndValidateAccess[Record](ctx, v, svc, spec.Collection, recordID, username)
	}
}

// -------------------------
// Binding (422 si la forma del request es inválida)
// -------------------------

type createRequest struct {
	PetID   string
	Date    string
	Time    string
	Comment string
	Fields  map[string]any
}

func (c createRequest) ScopedPetID() string { return c.PetID }

type listQuery struct {
	PetID string
	Page  Page
}

func (q listQuery) ScopedPetID() string { return q.PetID }

func bindCreate(spec KindSpec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := decodeObject(r.Body)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}

			var in createRequest
			for key, dst := range map[string]*string{"pet_id": &in.PetID, "date": &in.Date, "time": &in.Time, "comment": &in.Comment} {
				s, err := optionalString(raw, key)
				if err != nil {
					httpx.WriteError(w, err)
					return
				}
				*dst = s
			}
			if strings.TrimSpace(in.PetID) == "" {
				httpx.WriteError(w, apperr.Unprocessable("pet_id is required"))
				return
			}

			in.Fields, _, err = spec.NormalizeFields(raw, false)
			if err != nil {
				httpx.WriteError(w, apperr.Unprocessable(err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(middleware.WithInput(r.Context(), in)))
		})
	}
}

func bindListQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		petID := strings.TrimSpace(q.Get("pet_id"))
		if petID == "" {
			httpx.WriteError(w, apperr.Unprocessable("pet_id is required"))
			return
		}

		page, err := positiveInt(q.Get("page"), DefaultPage, "page")
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		size, err := positiveInt(q.Get("page_size"), DefaultPageSize, "page_size")
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		in := listQuery{PetID: petID, Page: Page{Page: page, PageSize: size}}
		next.ServeHTTP(w, r.WithContext(middleware.WithInput(r.Context(), in)))
	})
}

// -------------------------
// Handlers
// -------------------------

// listRecordsHandler godoc
// @Summary Listar registros de salud
// @Description Registros de un tipo para una mascota, paginados y ordenados por fecha descendente. La key del array depende del tipo (attacks, weights, ...).
// @Tags records
// @Produce json
// @Param kind path string true "Tipo de registro" Enums(asthma,defecation,litter,weight,feeding,eye_drops,tooth_brushing,ear_cleaning)
// @Param pet_id query string true "ID de la mascota"
// @Param page query int false "Página (>= 1). Por defecto 1"
// @Param page_size query int false "Tamaño de página (>= 1). Por defecto 100"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string "pet_id mal formado"
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string "pet_id ausente o paginación inválida"
// @Router /api/{kind} [get]
func listRecordsHandler(svc *Service, spec KindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, _ := middleware.Input[listQuery](r.Context())
		scope, _ := middleware.GetScope(r.Context())

		items, total, err := svc.List(r.Context(), spec, scope.PetID, q.Page)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		out := make([]map[string]any, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(spec, rec))
		}

		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			spec.ListKey: out,
			"page":       q.Page.Page,
			"page_size":  q.Page.PageSize,
			"total":      total,
		})
	}
}

// createRecordHandler godoc
// @Summary Crear registro de salud
// @Description date (YYYY-MM-DD) y time (HH:MM) van juntos; si faltan ambos se usa la hora actual. Los demás campos dependen del tipo.
// @Tags records
// @Accept json
// @Produce json
// @Param kind path string true "Tipo de registro"
// @Param payload body map[string]any true "pet_id, date, time, comment y campos del tipo"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string "fecha/hora inválida"
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/{kind} [post]
func createRecordHandler(svc *Service, spec KindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, _ := middleware.Input[createRequest](r.Context())
		scope, _ := middleware.GetScope(r.Context())

		rec, err := svc.Create(r.Context(), spec, scope.Username, CreateInput{
			PetID:   scope.PetID,
			Date:    in.Date,
			Time:    in.Time,
			Comment: in.Comment,
			Fields:  in.Fields,
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		httpx.WriteSuccess(w, http.StatusCreated, messages.Get(string(spec.Kind)+"_created", nil), map[string]any{
			"id": rec.ID,
		})
	}
}

func updateRecordHandler(svc *Service, spec KindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.ScopedRecord[Record](r.Context())

		raw, err := decodeObject(r.Body)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		var in UpdateInput
		for key, dst := range map[string]**string{"date": &in.Date, "time": &in.Time, "comment": &in.Comment} {
			p, err := presentString(raw, key)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			*dst = p
		}

		in.Set, in.Unset, err = spec.NormalizeFields(raw, true)
		if err != nil {
			httpx.WriteError(w, apperr.Unprocessable(err.Error()))
			return
		}

		if _, err := svc.Update(r.Context(), spec, current, in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get(string(spec.Kind)+"_updated", nil), nil)
	}
}

func deleteRecordHandler(svc *Service, spec KindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.ScopedRecord[Record](r.Context())

		if err := svc.Delete(r.Context(), spec, current); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get(string(spec.Kind)+"_deleted", nil), nil)
	}
}

func toRecordResponse(spec KindSpec, rec Record) map[string]any {
	out := map[string]any{
		"_id":       rec.ID,
		"pet_id":    rec.PetID,
		"date_time": rec.DateTime.UTC().Format(dates.DateTimeLayout),
		"date":      rec.DateTime.UTC().Format(dates.DateLayout),
		"time":      rec.DateTime.UTC().Format(dates.TimeLayout),
		"comment":   rec.Comment,
		"username":  rec.Username,
	}
	for _, f := range spec.Fields {
		out[f.Name] = rec.Value(f.Name)
	}
	return out
}

// -------------------------
// Helpers de decode
// -------------------------

func decodeObject(body io.Reader) (map[string]any, error) {
	if body == nil {
		return nil, apperr.Unprocessable("request body is required")
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.Unprocessable("request body is required")
		}
		return nil, apperr.Unprocessable("Invalid input data")
	}
	if raw == nil {
		return nil, apperr.Unprocessable("Invalid input data")
	}
	return raw, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", apperr.Unprocessable(key + " must be a string")
	}
	return s, nil
}

// presentString: ausente => nil; null => "" (limpia).
func presentString(raw map[string]any, key string) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	if v == nil {
		empty := ""
		return &empty, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, apperr.Unprocessable(key + " must be a string")
	}
	return &s, nil
}

func positiveInt(s string, def int, name string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, apperr.Unprocessable(name + " must be an integer >= 1")
	}
	return n, nil
}
