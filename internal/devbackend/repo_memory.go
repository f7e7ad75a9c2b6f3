package devbackend

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo with sequential ids.
type MemoryRepo struct {
	mu      sync.RWMutex
	nextID  int64
	wounds  map[int64]Wound
	images  map[int64]Image
	records map[int64]TrackingRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		wounds:  make(map[int64]Wound),
		images:  make(map[int64]Image),
		records: make(map[int64]TrackingRecord),
	}
}

func (r *MemoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

// CreateWound stores a wound and assigns its id.
func (r *MemoryRepo) CreateWound(ctx context.Context, w Wound) (Wound, error) {
	if err := ctx.Err(); err != nil {
		return Wound{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = r.id()
	r.wounds[w.ID] = w
	return w, nil
}

// GetWound returns a wound by id.
func (r *MemoryRepo) GetWound(ctx context.Context, id int64) (Wound, error) {
	if err := ctx.Err(); err != nil {
		return Wound{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wounds[id]
	if !ok {
		return Wound{}, ErrNotFound
	}
	return w, nil
}

// SetWoundImage points a wound at its latest image.
func (r *MemoryRepo) SetWoundImage(ctx context.Context, id, imageID int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wounds[id]
	if !ok {
		return ErrNotFound
	}
	w.ImageID = imageID
	w.UpdatedAt = at
	r.wounds[id] = w
	return nil
}

// CreateImage stores image metadata and assigns its id.
func (r *MemoryRepo) CreateImage(ctx context.Context, img Image) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	img.ID = r.id()
	r.images[img.ID] = img
	return img, nil
}

// GetImage returns image metadata by id.
func (r *MemoryRepo) GetImage(ctx context.Context, id int64) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

// CreateTrackingRecord stores a record and assigns its id.
func (r *MemoryRepo) CreateTrackingRecord(ctx context.Context, rec TrackingRecord) (TrackingRecord, error) {
	if err := ctx.Err(); err != nil {
		return TrackingRecord{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.id()
	r.records[rec.ID] = rec
	return rec, nil
}

// ListTrackingRecords returns a wound's records, most recent track date first.
func (r *MemoryRepo) ListTrackingRecords(ctx context.Context, woundID int64) ([]TrackingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]TrackingRecord, 0)
	for _, rec := range r.records {
		if rec.WoundID == woundID {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].TrackDate.After(out[j].TrackDate)
	})
	return out, nil
}
