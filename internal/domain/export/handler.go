package export

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta GET /export/{kind}/{format}. Se asume RequireAuth en el router padre.
func RegisterRoutes(r chi.Router, svc *records.Service, v *access.Validator, m *metrics.Metrics) {
	r.With(bindExportQuery, middleware.RequirePetAccess(v)).
		Get("/export/{kind}/{format}", exportHandler(svc, m, time.Now))
}

type exportQuery struct {
	PetID  string
	Spec   records.KindSpec
	Format Format
}

func (q exportQuery) ScopedPetID() string { return q.PetID }

func bindExportQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec, ok := records.Lookup(chi.URLParam(r, "kind"))
		if !ok {
			httpx.WriteError(w, apperr.Unprocessable("unknown export type"))
			return
		}
		format, err := ParseFormat(chi.URLParam(r, "format"))
		if err != nil {
			httpx.WriteError(w, apperr.Unprocessable(err.Error()))
			return
		}
		petID := strings.TrimSpace(r.URL.Query().Get("pet_id"))
		if petID == "" {
			httpx.WriteError(w, apperr.Unprocessable("pet_id is required"))
			return
		}

		in := exportQuery{PetID: petID, Spec: spec, Format: format}
		next.ServeHTTP(w, r.WithContext(middleware.WithInput(r.Context(), in)))
	})
}

// exportHandler godoc
// @Summary Exportar registros
// @Description Descarga todos los registros de un tipo para una mascota (date_time desc).
// @Tags export
// @Produce text/csv,text/tab-separated-values,text/html,text/markdown
// @Param kind path string true "Tipo de registro"
// @Param format path string true "Formato" Enums(csv,tsv,html,md)
// @Param pet_id query string true "ID de la mascota"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "pet_id mal formado"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string "sin datos"
// @Failure 422 {object} map[string]string "tipo o formato desconocido"
// @Router /api/export/{kind}/{format} [get]
func exportHandler(svc *records.Service, m *metrics.Metrics, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, _ := middleware.Input[exportQuery](r.Context())
		scope, _ := middleware.GetScope(r.Context())

		items, err := svc.ListAll(r.Context(), q.Spec, scope.PetID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		doc, err := Render(q.Spec, q.Format, items, now())
		if err != nil {
			switch {
			case errors.Is(err, ErrNoData):
				httpx.WriteError(w, apperr.NotFound("no data to export"))
			case errors.Is(err, ErrUnknownFormat):
				httpx.WriteError(w, apperr.Unprocessable(err.Error()))
			default:
				httpx.WriteError(w, apperr.Internal(err))
			}
			return
		}
		m.ObserveExport(string(q.Spec.Kind), string(q.Format))

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", httpx.ContentDisposition("attachment", doc.Filename, doc.ASCIIName))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}
