package devbackend

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateWound inserts a wound and returns it with its id.
func (r *PGRepo) CreateWound(ctx context.Context, w Wound) (Wound, error) {
	const query = `
INSERT INTO dev_wounds (patient_id, region, subregion, wound_type, start_date, image_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		w.PatientID,
		w.Region,
		w.Subregion,
		w.WoundType,
		w.StartDate,
		nullInt64(w.ImageID),
		w.CreatedAt,
		w.UpdatedAt,
	).Scan(&w.ID)
	if err != nil {
		return Wound{}, err
	}
	return w, nil
}

// GetWound returns a wound by id.
func (r *PGRepo) GetWound(ctx context.Context, id int64) (Wound, error) {
	const query = `
SELECT id, patient_id, region, subregion, wound_type, start_date, image_id, created_at, updated_at
FROM dev_wounds
WHERE id = $1`
	var w Wound
	var imageID sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&w.ID,
		&w.PatientID,
		&w.Region,
		&w.Subregion,
		&w.WoundType,
		&w.StartDate,
		&imageID,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wound{}, ErrNotFound
		}
		return Wound{}, err
	}
	if imageID.Valid {
		w.ImageID = imageID.Int64
	}
	return w, nil
}

// SetWoundImage points a wound at its latest image.
func (r *PGRepo) SetWoundImage(ctx context.Context, id, imageID int64, at time.Time) error {
	const query = `UPDATE dev_wounds SET image_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, imageID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateImage inserts image metadata and returns it with its id.
func (r *PGRepo) CreateImage(ctx context.Context, img Image) (Image, error) {
	const query = `
INSERT INTO dev_images (owner, file_name, content_type, size_bytes, storage_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		img.Owner,
		img.FileName,
		img.ContentType,
		img.SizeBytes,
		img.StorageKey,
		img.CreatedAt,
	).Scan(&img.ID)
	if err != nil {
		return Image{}, err
	}
	return img, nil
}

// GetImage returns image metadata by id.
func (r *PGRepo) GetImage(ctx context.Context, id int64) (Image, error) {
	const query = `
SELECT id, owner, file_name, content_type, size_bytes, storage_key, created_at
FROM dev_images
WHERE id = $1`
	var img Image
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&img.ID,
		&img.Owner,
		&img.FileName,
		&img.ContentType,
		&img.SizeBytes,
		&img.StorageKey,
		&img.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Image{}, ErrNotFound
		}
		return Image{}, err
	}
	return img, nil
}

// CreateTrackingRecord inserts a record and returns it with its id.
func (r *PGRepo) CreateTrackingRecord(ctx context.Context, rec TrackingRecord) (TrackingRecord, error) {
	const query = `
INSERT INTO dev_tracking_records (wound_id, image_id, payload, track_date, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		rec.WoundID,
		nullInt64(rec.ImageID),
		[]byte(rec.Payload),
		rec.TrackDate,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return TrackingRecord{}, err
	}
	return rec, nil
}

// ListTrackingRecords returns a wound's records, most recent track date first.
func (r *PGRepo) ListTrackingRecords(ctx context.Context, woundID int64) ([]TrackingRecord, error) {
	const query = `
SELECT id, wound_id, image_id, payload, track_date, created_at
FROM dev_tracking_records
WHERE wound_id = $1
ORDER BY track_date DESC`
	rows, err := r.DB.QueryContext(ctx, query, woundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TrackingRecord, 0)
	for rows.Next() {
		var rec TrackingRecord
		var imageID sql.NullInt64
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.WoundID, &imageID, &payload, &rec.TrackDate, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if imageID.Valid {
			rec.ImageID = imageID.Int64
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
