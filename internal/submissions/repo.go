package submissions

import (
	"context"
	"time"
)

// Repo persists the submission journal.
type Repo interface {
	Create(ctx context.Context, e Entry) error
	ListBySubject(ctx context.Context, subject string, woundID int64, limit int) ([]Entry, error)
	ListByLinkStatus(ctx context.Context, status LinkStatus, limit int) ([]Entry, error)
	UpdateLink(ctx context.Context, id string, status LinkStatus, linkErr string, at time.Time) error
}
