package devbackend

import (
	"context"
	"time"
)

// Repo persists dev backend entities.
type Repo interface {
	CreateWound(ctx context.Context, w Wound) (Wound, error)
	GetWound(ctx context.Context, id int64) (Wound, error)
	SetWoundImage(ctx context.Context, id, imageID int64, at time.Time) error
	CreateImage(ctx context.Context, img Image) (Image, error)
	GetImage(ctx context.Context, id int64) (Image, error)
	CreateTrackingRecord(ctx context.Context, rec TrackingRecord) (TrackingRecord, error)
	ListTrackingRecords(ctx context.Context, woundID int64) ([]TrackingRecord, error)
}
