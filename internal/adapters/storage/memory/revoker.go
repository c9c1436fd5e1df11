package memory

import (
	"context"
	"sync"
	"time"

	"pet-health-tracker/internal/ports/auth"
)

// Revoker guarda jti revocados con vencimiento. Se usa cuando no hay Redis
// (un solo proceso: la revocación no sobrevive a un reinicio).
type Revoker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

var _ auth.TokenRevoker = (*Revoker)(nil)

func NewRevoker() *Revoker {
	return &Revoker{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *Revoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gc()
	r.expires[tokenID] = r.now().Add(ttl)
	return nil
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.expires[tokenID]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.expires, tokenID)
		return false, nil
	}
	return true, nil
}

// gc borra entradas vencidas; se llama con el lock tomado.
func (r *Revoker) gc() {
	now := r.now()
	for id, exp := range r.expires {
		if !now.Before(exp) {
			delete(r.expires, id)
		}
	}
}
