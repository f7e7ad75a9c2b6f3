// Package devbackend is a small stand-in for the wound tracking REST API. It
// serves the endpoints the wizard calls so the service can run end to end
// without the real backend.
package devbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"woundtrack-backend/internal/reference"
	"woundtrack-backend/internal/shared/storage/object"
	"woundtrack-backend/internal/shared/telemetry"
	"woundtrack-backend/internal/woundapi"
)

const dateLayout = "2006-01-02"

// Service implements the dev backend operations.
type Service struct {
	Repo          Repo
	Store         object.Store
	Catalog       *reference.Catalog
	MaxImageBytes int64
	Now           func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, store object.Store, catalog *reference.Catalog, maxImageBytes int64) *Service {
	return &Service{
		Repo:          repo,
		Store:         store,
		Catalog:       catalog,
		MaxImageBytes: maxImageBytes,
		Now:           time.Now,
	}
}

// UploadImage stores a photo and records its metadata.
func (s *Service) UploadImage(ctx context.Context, owner, fileName, contentType string, size int64, r io.Reader) (Image, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return Image{}, ErrInvalidFormat
	}
	if s.MaxImageBytes > 0 && size > s.MaxImageBytes {
		return Image{}, ErrTooLarge
	}
	if size <= 0 {
		return Image{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	stored, err := s.Store.Save(ctx, owner, fileName, r)
	if err != nil {
		return Image{}, fmt.Errorf("save image: %w", err)
	}
	if strings.HasPrefix(stored.ContentType, "image/") {
		contentType = stored.ContentType
	}

	img, err := s.Repo.CreateImage(ctx, Image{
		Owner:       owner,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   stored.SizeBytes,
		StorageKey:  stored.Key,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return Image{}, fmt.Errorf("create image: %w", err)
	}
	telemetry.Info("devbackend.image_stored", map[string]any{
		"image_id":   img.ID,
		"size_bytes": img.SizeBytes,
	})
	return img, nil
}

// OpenImage returns image metadata and its content.
func (s *Service) OpenImage(ctx context.Context, id int64) (Image, io.ReadCloser, error) {
	img, err := s.Repo.GetImage(ctx, id)
	if err != nil {
		return Image{}, nil, err
	}
	rc, err := s.Store.Open(ctx, img.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Image{}, nil, fmt.Errorf("%w: image %d content missing", ErrNotFound, id)
	}
	if err != nil {
		return Image{}, nil, fmt.Errorf("open image: %w", err)
	}
	return img, rc, nil
}

// CreateWound validates classification codes and stores a new wound.
func (s *Service) CreateWound(ctx context.Context, in woundapi.WoundInput) (Wound, error) {
	if in.PatientID <= 0 {
		return Wound{}, fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if err := s.checkCode(reference.WoundRegion, in.Region, true); err != nil {
		return Wound{}, err
	}
	if err := s.checkCode(reference.WoundSubregion, in.Subregion, true); err != nil {
		return Wound{}, err
	}
	if err := s.checkCode(reference.WoundType, in.WoundType, true); err != nil {
		return Wound{}, err
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return Wound{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidInput)
	}

	now := s.now()
	return s.Repo.CreateWound(ctx, Wound{
		PatientID: in.PatientID,
		Region:    in.Region,
		Subregion: in.Subregion,
		WoundType: in.WoundType,
		StartDate: start,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Wound returns a wound with its tracking records.
func (s *Service) Wound(ctx context.Context, id int64) (Wound, []TrackingRecord, error) {
	w, err := s.Repo.GetWound(ctx, id)
	if err != nil {
		return Wound{}, nil, err
	}
	records, err := s.Repo.ListTrackingRecords(ctx, id)
	if err != nil {
		return Wound{}, nil, fmt.Errorf("list tracking records: %w", err)
	}
	return w, records, nil
}

// PatchWound applies a partial update. Only the image link is patchable.
func (s *Service) PatchWound(ctx context.Context, id int64, patch woundapi.WoundPatch) error {
	if patch.ImageID <= 0 {
		return fmt.Errorf("%w: image_id is required", ErrInvalidInput)
	}
	if _, err := s.Repo.GetImage(ctx, patch.ImageID); err != nil {
		return imageRef(err)
	}
	return s.Repo.SetWoundImage(ctx, id, patch.ImageID, s.now())
}

// CreateTrackingRecord validates and stores one observation.
func (s *Service) CreateTrackingRecord(ctx context.Context, in woundapi.TrackingRecordInput) (TrackingRecord, error) {
	if in.WoundID <= 0 {
		return TrackingRecord{}, fmt.Errorf("%w: wound_id is required", ErrInvalidInput)
	}
	if in.Width <= 0 || in.Length <= 0 {
		return TrackingRecord{}, fmt.Errorf("%w: width and length must be positive", ErrInvalidInput)
	}
	level, err := strconv.Atoi(in.PainLevel)
	if err != nil || level < 0 || level > 10 {
		return TrackingRecord{}, fmt.Errorf("%w: pain_level must be between 0 and 10", ErrInvalidInput)
	}
	codes := []struct {
		table string
		code  string
	}{
		{reference.ExudateAmount, in.ExudateAmount},
		{reference.ExudateType, in.ExudateType},
		{reference.TissueType, in.TissueType},
		{reference.WoundEdges, in.WoundEdges},
		{reference.SkinAround, in.SkinAround},
		{reference.DressingChanges, in.DressingChangesPerDay},
	}
	for _, c := range codes {
		if err := s.checkCode(c.table, c.code, false); err != nil {
			return TrackingRecord{}, err
		}
	}

	if _, err := s.Repo.GetWound(ctx, in.WoundID); err != nil {
		return TrackingRecord{}, err
	}
	var imageID int64
	if in.ImageID != nil {
		imageID = *in.ImageID
		if _, err := s.Repo.GetImage(ctx, imageID); err != nil {
			return TrackingRecord{}, imageRef(err)
		}
	}

	now := s.now()
	trackDate := in.TrackDate
	if trackDate.IsZero() {
		trackDate = now
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return TrackingRecord{}, fmt.Errorf("encode payload: %w", err)
	}

	rec, err := s.Repo.CreateTrackingRecord(ctx, TrackingRecord{
		WoundID:   in.WoundID,
		ImageID:   imageID,
		Payload:   payload,
		TrackDate: trackDate.UTC(),
		CreatedAt: now,
	})
	if err != nil {
		return TrackingRecord{}, fmt.Errorf("create tracking record: %w", err)
	}
	telemetry.Info("devbackend.tracking_record_created", map[string]any{
		"tracking_record_id": rec.ID,
		"wound_id":           rec.WoundID,
		"has_image":          imageID != 0,
	})
	return rec, nil
}

func (s *Service) checkCode(table, code string, required bool) error {
	if code == "" {
		if required {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, table)
		}
		return nil
	}
	if s.Catalog != nil && !s.Catalog.Has(table, code) {
		return fmt.Errorf("%w: unknown %s code %q", ErrInvalidInput, table, code)
	}
	return nil
}

// imageRef turns a missing referenced image into a bad request.
func imageRef(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: unknown image_id", ErrInvalidInput)
	}
	return err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
