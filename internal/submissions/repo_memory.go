package submissions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Entry)}
}

// Create stores an entry.
func (r *MemoryRepo) Create(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[e.ID] = e
	return nil
}

// ListBySubject returns a caller's entries, newest first. woundID 0 matches every wound.
func (r *MemoryRepo) ListBySubject(ctx context.Context, subject string, woundID int64, limit int) ([]Entry, error) {
	return r.filter(ctx, limit, func(e Entry) bool {
		return e.Subject == subject && (woundID == 0 || e.WoundID == woundID)
	})
}

// ListByLinkStatus returns entries in the given link state, newest first.
func (r *MemoryRepo) ListByLinkStatus(ctx context.Context, status LinkStatus, limit int) ([]Entry, error) {
	return r.filter(ctx, limit, func(e Entry) bool { return e.LinkStatus == status })
}

// UpdateLink records the outcome of a link attempt.
func (r *MemoryRepo) UpdateLink(ctx context.Context, id string, status LinkStatus, linkErr string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	e.LinkStatus = status
	e.LinkError = linkErr
	e.LinkAttempts++
	e.UpdatedAt = at
	r.items[id] = e
	return nil
}

func (r *MemoryRepo) filter(ctx context.Context, limit int, keep func(Entry) bool) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Entry, 0)
	for _, e := range r.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
