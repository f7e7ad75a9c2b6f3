package submissions

import (
	"context"
	"database/sql"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, wizard_id, role, subject, patient_id, wound_id, tracking_record_id, image_id, link_status, link_error, link_attempts, created_at, updated_at`

// Create inserts a journal entry.
func (r *PGRepo) Create(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO wizard_submissions (
    id,
    wizard_id,
    role,
    subject,
    patient_id,
    wound_id,
    tracking_record_id,
    image_id,
    link_status,
    link_error,
    link_attempts,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		e.ID,
		e.WizardID,
		e.Role,
		e.Subject,
		e.PatientID,
		e.WoundID,
		e.TrackingRecordID,
		nullInt64(e.ImageID),
		string(e.LinkStatus),
		nullString(e.LinkError),
		e.LinkAttempts,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

// ListBySubject returns a caller's entries, newest first. woundID 0 matches every wound.
func (r *PGRepo) ListBySubject(ctx context.Context, subject string, woundID int64, limit int) ([]Entry, error) {
	query := `
SELECT ` + selectColumns + `
FROM wizard_submissions
WHERE subject = $1 AND ($2::BIGINT = 0 OR wound_id = $2::BIGINT)
ORDER BY created_at DESC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, subject, woundID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListByLinkStatus returns entries in the given link state, newest first.
func (r *PGRepo) ListByLinkStatus(ctx context.Context, status LinkStatus, limit int) ([]Entry, error) {
	query := `
SELECT ` + selectColumns + `
FROM wizard_submissions
WHERE link_status = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, string(status), normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// UpdateLink records the outcome of a link attempt.
func (r *PGRepo) UpdateLink(ctx context.Context, id string, status LinkStatus, linkErr string, at time.Time) error {
	const query = `
UPDATE wizard_submissions
SET link_status = $2, link_error = $3, link_attempts = link_attempts + 1, updated_at = $4
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, string(status), nullString(linkErr), at)
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

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var imageID sql.NullInt64
		var linkStatus string
		var linkErr sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.WizardID,
			&e.Role,
			&e.Subject,
			&e.PatientID,
			&e.WoundID,
			&e.TrackingRecordID,
			&imageID,
			&linkStatus,
			&linkErr,
			&e.LinkAttempts,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if imageID.Valid {
			e.ImageID = imageID.Int64
		}
		if linkErr.Valid {
			e.LinkError = linkErr.String
		}
		e.LinkStatus = LinkStatus(linkStatus)
		out = append(out, e)
	}
	return out, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 200
	}
	return limit
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
