package submissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"woundtrack-backend/internal/shared/metrics"
	"woundtrack-backend/internal/shared/telemetry"
	"woundtrack-backend/internal/woundapi"
)

// Linker associates an uploaded image with its wound in the backend.
type Linker interface {
	PatchWound(ctx context.Context, token string, woundID int64, patch woundapi.WoundPatch) error
}

// Service records completed submissions and re-attempts failed image links on request.
type Service struct {
	Repo   Repo
	Linker Linker
	Now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, linker Linker) *Service {
	return &Service{Repo: repo, Linker: linker, Now: time.Now}
}

// RelinkReport summarizes one relink run.
type RelinkReport struct {
	Attempted int `json:"attempted"`
	Linked    int `json:"linked"`
	Failed    int `json:"failed"`
}

// Record stores a completed submission. ID and timestamps are filled when empty.
func (s *Service) Record(ctx context.Context, e Entry) (Entry, error) {
	if strings.TrimSpace(e.Subject) == "" || e.WoundID == 0 || e.TrackingRecordID == 0 {
		return Entry{}, ErrInvalidInput
	}
	now := s.now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.LinkStatus == "" {
		e.LinkStatus = LinkNone
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("record submission: %w", err)
	}
	return e, nil
}

// List returns a caller's submissions, optionally narrowed to one wound.
func (s *Service) List(ctx context.Context, subject string, woundID int64, limit int) ([]Entry, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListBySubject(ctx, subject, woundID, limit)
}

// Failed returns entries whose image link did not go through.
func (s *Service) Failed(ctx context.Context, limit int) ([]Entry, error) {
	return s.Repo.ListByLinkStatus(ctx, LinkFailed, limit)
}

// Relink re-attempts every failed wound-image association once.
func (s *Service) Relink(ctx context.Context, token string, limit int) (RelinkReport, error) {
	var report RelinkReport
	if s.Linker == nil {
		return report, fmt.Errorf("relink: no backend configured")
	}
	entries, err := s.Failed(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("relink: list failed: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		linkErr := s.Linker.PatchWound(ctx, token, e.WoundID, woundapi.WoundPatch{ImageID: e.ImageID})
		status, msg := LinkLinked, ""
		if linkErr != nil {
			status, msg = LinkFailed, linkErr.Error()
			report.Failed++
			metrics.IncImageLinkFailed()
			telemetry.Warn("submissions.relink_failed", map[string]any{
				"submission_id": e.ID,
				"wound_id":      e.WoundID,
				"image_id":      e.ImageID,
				"error":         linkErr,
			})
		} else {
			report.Linked++
		}
		if err := s.Repo.UpdateLink(ctx, e.ID, status, msg, s.now()); err != nil {
			return report, fmt.Errorf("relink: update %s: %w", e.ID, err)
		}
	}
	return report, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
