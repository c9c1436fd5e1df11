package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/storage"
)

// recordRepo guarda un mapa por tipo (equivalente a una colección por tipo).
type recordRepo struct {
	mu     sync.RWMutex
	byKind map[records.Kind]map[string]records.Record
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		byKind: make(map[records.Kind]map[string]records.Record),
	}
}

func cloneRecord(rec records.Record) records.Record {
	rec.Fields = maps.Clone(rec.Fields)
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec
}

func (r *recordRepo) Create(ctx context.Context, rec records.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	coll := r.byKind[rec.Kind]
	if coll == nil {
		coll = make(map[string]records.Record)
		r.byKind[rec.Kind] = coll
	}
	if _, exists := coll[rec.ID]; exists {
		return storage.ErrDuplicate
	}
	coll[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, kind records.Kind, id string) (records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKind[kind][id]
	if !ok {
		return records.Record{}, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// sortedByPet: date_time desc, id desc como desempate estable.
func (r *recordRepo) sortedByPet(kind records.Kind, petID string) []records.Record {
	out := make([]records.Record, 0)
	for _, rec := range r.byKind[kind] {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

func (r *recordRepo) ListByPet(ctx context.Context, kind records.Kind, petID string, offset, limit int) ([]records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedByPet(kind, petID)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []records.Record{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	out := make([]records.Record, 0, len(all))
	for _, rec := range all {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (r *recordRepo) CountByPet(ctx context.Context, kind records.Kind, petID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.byKind[kind] {
		if rec.PetID == petID {
			n++
		}
	}
	return n, nil
}

func (r *recordRepo) Update(ctx context.Context, kind records.Kind, id string, patch records.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byKind[kind][id]
	if !ok {
		return storage.ErrNotFound
	}
	r.byKind[kind][id] = patch.Apply(rec)
	return nil
}

func (r *recordRepo) Delete(ctx context.Context, kind records.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKind[kind][id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byKind[kind], id)
	return nil
}
