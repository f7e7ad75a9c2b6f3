package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateWritesNullImageWhenAbsent(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	e := Entry{
		ID:               "sub-1",
		WizardID:         "wiz-1",
		Role:             "patient",
		Subject:          "patient:3",
		PatientID:        3,
		WoundID:          7,
		TrackingRecordID: 55,
		LinkStatus:       LinkNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO wizard_submissions").
		WithArgs(
			e.ID,
			e.WizardID,
			e.Role,
			e.Subject,
			e.PatientID,
			e.WoundID,
			e.TrackingRecordID,
			nil, // image_id
			"none",
			nil, // link_error
			0,
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListBySubjectScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "wizard_id", "role", "subject", "patient_id", "wound_id", "tracking_record_id",
		"image_id", "link_status", "link_error", "link_attempts", "created_at", "updated_at",
	}).
		AddRow("sub-2", "wiz-2", "specialist", "specialist:1", int64(10), int64(7), int64(56), int64(42), "failed", "boom", 1, now, now).
		AddRow("sub-1", "wiz-1", "specialist", "specialist:1", int64(10), int64(7), int64(55), nil, "none", nil, 0, now, now)

	mock.ExpectQuery("SELECT (.+) FROM wizard_submissions").
		WithArgs("specialist:1", int64(7), 20).
		WillReturnRows(rows)

	entries, err := repo.ListBySubject(context.Background(), "specialist:1", 7, 20)
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ImageID != 42 || entries[0].LinkStatus != LinkFailed || entries[0].LinkError != "boom" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ImageID != 0 || entries[1].LinkError != "" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateLinkNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE wizard_submissions").
		WithArgs("missing", "linked", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLink(context.Background(), "missing", LinkLinked, "", now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
