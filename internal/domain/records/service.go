package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/ports/storage"
)

const (
	msgNothingToSave  = "no data to update"
	msgRecordNotFound = "record not found"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// CreateInput llega ya validado en forma (pet_id presente, Fields normalizados).
type CreateInput struct {
	PetID   string
	Date    string
	Time    string
	Comment string
	Fields  map[string]any
}

func (s *Service) Create(ctx context.Context, spec KindSpec, username string, in CreateInput) (Record, error) {
	dt, err := dates.EventDateTime(in.Date, in.Time, s.now())
	if err != nil {
		return Record{}, apperr.BadRequest(err.Error())
	}
	for _, f := range spec.Fields {
		if f.Required && in.Fields[f.Name] == nil {
			return Record{}, apperr.Unprocessable(f.Name + " is required")
		}
	}

	rec := Record{
		ID:       storage.NewID(),
		Kind:     spec.Kind,
		PetID:    strings.TrimSpace(in.PetID),
		DateTime: dt,
		Fields:   in.Fields,
		Comment:  strings.TrimSpace(in.Comment),
		Username: username,
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, apperr.Internal(err)
	}
	return rec, nil
}

// List pagina los registros de una mascota. Una página fuera de rango devuelve
// lista vacía (no error) y total sigue siendo el conteo completo.
func (s *Service) List(ctx context.Context, spec KindSpec, petID string, page Page) ([]Record, int, error) {
	if page.Page < 1 || page.PageSize < 1 {
		return nil, 0, apperr.Unprocessable("page and page_size must be >= 1")
	}

	total, err := s.repo.CountByPet(ctx, spec.Kind, petID)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if page.Beyond(total) {
		return []Record{}, total, nil
	}

	items, err := s.repo.ListByPet(ctx, spec.Kind, petID, page.Offset(), page.PageSize)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

// ListAll devuelve todos los registros (para export), date_time desc.
func (s *Service) ListAll(ctx context.Context, spec KindSpec, petID string) ([]Record, error) {
	items, err := s.repo.ListByPet(ctx, spec.Kind, petID, 0, 0)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

type UpdateInput struct {
	Date    *string
	Time    *string
	Comment *string
	Set     map[string]any
	Unset   []string
}

func (s *Service) Update(ctx context.Context, spec KindSpec, current Record, in UpdateInput) (Record, error) {
	patch := Patch{Set: in.Set, Unset: in.Unset}

	if in.Date != nil || in.Time != nil {
		date, clock := deref(in.Date), deref(in.Time)
		if strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
			return Record{}, apperr.BadRequest(dates.ErrIncomplete.Error())
		}
		dt, err := dates.ParseDateTime(date, clock, s.now(), dates.MaxFutureDays)
		if err != nil {
			return Record{}, apperr.BadRequest(err.Error())
		}
		patch.DateTime = &dt
	}
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		patch.Comment = &c
	}
	if patch.IsEmpty() {
		return Record{}, apperr.Unprocessable(msgNothingToSave)
	}

	if err := s.repo.Update(ctx, spec.Kind, current.ID, patch); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Record{}, apperr.NotFound(msgRecordNotFound)
		}
		return Record{}, apperr.Internal(err)
	}
	return patch.Apply(current), nil
}

func (s *Service) Delete(ctx context.Context, spec KindSpec, rec Record) error {
	if err := s.repo.Delete(ctx, spec.Kind, rec.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgRecordNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

// FindRecord implementa access.RecordSource[Record].
func (s *Service) FindRecord(ctx context.Context, collection, id string) (Record, string, error) {
	spec, ok := ByCollection(collection)
	if !ok {
		return Record{}, "", storage.ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, spec.Kind, id)
	if err != nil {
		return Record{}, "", err
	}
	return rec, rec.PetID, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
