package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"woundtrack-backend/internal/shared/metrics"
	"woundtrack-backend/internal/shared/telemetry"
	"woundtrack-backend/internal/submissions"
	"woundtrack-backend/internal/woundapi"
)

// DefaultMaxImageBytes is the photo size ceiling when none is configured.
const DefaultMaxImageBytes int64 = 10 << 20

// Backend is the subset of the REST API the wizard writes to.
type Backend interface {
	UploadImage(ctx context.Context, token, fileName, contentType string, r io.Reader) (woundapi.UploadedImage, error)
	CreateTrackingRecord(ctx context.Context, token string, in woundapi.TrackingRecordInput) (woundapi.TrackingRecord, error)
	PatchWound(ctx context.Context, token string, woundID int64, patch woundapi.WoundPatch) error
	CreateWound(ctx context.Context, token string, in woundapi.WoundInput) (woundapi.Wound, error)
}

// Journal records completed submissions.
type Journal interface {
	Record(ctx context.Context, e submissions.Entry) (submissions.Entry, error)
}

// Caller identifies who is driving a wizard.
type Caller struct {
	Subject string
	Token   string
	Role    Role
}

// StartInput is the transient route state a wizard is entered with.
type StartInput struct {
	PatientID int64 `json:"patientId"`
	WoundID   int64 `json:"woundId"`
}

// SkipResult reports whether a skip request moved the wizard forward.
type SkipResult struct {
	State     State
	Confirmed bool
	Warning   string
}

// Result is the outcome of a completed wizard.
type Result struct {
	WizardID         string
	TrackingRecordID int64
	WoundID          int64
	PatientID        int64
	ImageID          int64
	LinkStatus       submissions.LinkStatus
	Next             string
}

// Service drives wizard sessions.
type Service struct {
	Store         *MemoryStore
	Backend       Backend
	Journal       Journal
	Validator     *Validator
	MaxImageBytes int64
	Now           func() time.Time
	NewID         func() string
}

// NewService constructs a Service and hooks expiry metrics into the store.
func NewService(store *MemoryStore, backend Backend, journal Journal, validator *Validator, maxImageBytes int64) *Service {
	store.OnExpire(func(sess *Session) {
		metrics.IncWizardAbandoned(sess.Role().String(), "expired")
		telemetry.Info("wizard.expired", map[string]any{
			"wizard_id": sess.ID,
			"role":      sess.Role().String(),
		})
	})
	return &Service{
		Store:         store,
		Backend:       backend,
		Journal:       journal,
		Validator:     validator,
		MaxImageBytes: maxImageBytes,
		Now:           time.Now,
		NewID:         uuid.NewString,
	}
}

// Start mounts a new wizard with an empty draft.
func (s *Service) Start(ctx context.Context, caller Caller, in StartInput) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	var fields []FieldError
	if in.PatientID <= 0 {
		fields = append(fields, FieldError{Field: "patientId", Message: "is required"})
	}
	if in.WoundID < 0 {
		fields = append(fields, FieldError{Field: "woundId", Message: "must be positive"})
	}
	if len(fields) > 0 {
		return State{}, &ValidationError{Fields: fields}
	}
	if caller.Subject == "" {
		return State{}, ErrInvalidInput
	}

	sess := newSession(s.NewID(), caller.Subject, caller.Role, Context{WoundID: in.WoundID, PatientID: in.PatientID}, s.now())
	s.Store.Put(sess)
	metrics.IncWizardStarted(caller.Role.String())
	telemetry.Info("wizard.started", map[string]any{
		"wizard_id":  sess.ID,
		"role":       caller.Role.String(),
		"subject":    caller.Subject,
		"patient_id": in.PatientID,
		"wound_id":   in.WoundID,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// State returns the current state of a wizard.
func (s *Service) State(ctx context.Context, caller Caller, id string) (State, error) {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// SubmitMeasurements validates the measurements screen and moves to the photo screen.
func (s *Service) SubmitMeasurements(ctx context.Context, caller Caller, id string, form MeasurementsForm) (State, error) {
	return s.mutate(ctx, caller, id, func(sess *Session) error {
		sess.nav.Disarm()
		if err := sess.nav.Expect(StepMeasurements); err != nil {
			return err
		}
		m, err := s.Validator.Measurements(form, s.now())
		if err != nil {
			return err
		}
		return sess.nav.SubmitMeasurements(m)
	})
}

// SkipImage handles the two-step photo skip.
func (s *Service) SkipImage(ctx context.Context, caller Caller, id string) (SkipResult, error) {
	var advanced bool
	st, err := s.mutate(ctx, caller, id, func(sess *Session) error {
		var err error
		advanced, err = sess.nav.Skip()
		return err
	})
	if err != nil {
		return SkipResult{}, err
	}
	res := SkipResult{State: st, Confirmed: advanced}
	if !advanced {
		res.Warning = SkipWarning
	}
	return res, nil
}

// Back returns to the previous screen.
func (s *Service) Back(ctx context.Context, caller Caller, id string) (State, error) {
	return s.mutate(ctx, caller, id, func(sess *Session) error {
		return sess.nav.Back()
	})
}

// Abandon discards a wizard and its draft.
func (s *Service) Abandon(ctx context.Context, caller Caller, id string) error {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.pending == PendingSubmit {
		sess.mu.Unlock()
		return ErrBusy
	}
	if sess.closed {
		sess.mu.Unlock()
		return ErrNotFound
	}
	sess.closed = true
	deleted := s.Store.Delete(id)
	sess.mu.Unlock()
	if deleted {
		metrics.IncWizardAbandoned(sess.Role().String(), "user")
		telemetry.Info("wizard.abandoned", map[string]any{
			"wizard_id": id,
			"role":      sess.Role().String(),
		})
	}
	return nil
}

// UploadImage checks the photo locally, uploads it and moves to the conduct screen.
func (s *Service) UploadImage(ctx context.Context, caller Caller, id string, img Image) (State, error) {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return State{}, err
	}

	err = s.begin(sess, PendingUpload, func() error {
		sess.nav.Disarm()
		if err := sess.nav.Expect(StepPhoto); err != nil {
			return err
		}
		if err := checkImage(img, s.maxImageBytes()); err != nil {
			if reason := rejectReason(err); reason != "" {
				metrics.IncImageRejected(reason)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return State{}, err
	}

	uploaded, upErr := s.Backend.UploadImage(ctx, caller.Token, img.FileName, img.ContentType, img.Body)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = PendingNone
	if upErr != nil {
		re := classifyUpload(upErr)
		if re.Code == "invalid_format" || re.Code == "image_too_large" {
			metrics.IncImageRejected("backend_" + re.Code)
		}
		telemetry.Warn("wizard.upload_failed", map[string]any{
			"wizard_id": id,
			"status":    re.Status,
			"error":     upErr,
		})
		return State{}, re
	}
	if err := sess.nav.AttachImage(uploaded.ImageID); err != nil {
		return State{}, err
	}
	return sess.snapshot(), nil
}

// CreateWound registers the wound a wizard entered without one was meant to update.
func (s *Service) CreateWound(ctx context.Context, caller Caller, id string, form WoundForm) (State, error) {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return State{}, err
	}

	var input woundapi.WoundInput
	err = s.begin(sess, PendingWound, func() error {
		sess.nav.Disarm()
		if err := sess.nav.Expect(StepMeasurements); err != nil {
			return err
		}
		draft := sess.nav.Draft()
		if draft.Context.WoundID != 0 {
			return ErrWoundAlreadySet
		}
		valid, err := s.Validator.Wound(form, s.now())
		if err != nil {
			return err
		}
		input = woundapi.WoundInput{
			PatientID: draft.Context.PatientID,
			Region:    valid.Region,
			Subregion: valid.Subregion,
			WoundType: valid.WoundType,
			StartDate: valid.StartDate,
		}
		return nil
	})
	if err != nil {
		return State{}, err
	}

	wound, createErr := s.Backend.CreateWound(ctx, caller.Token, input)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = PendingNone
	if createErr != nil {
		telemetry.Warn("wizard.create_wound_failed", map[string]any{
			"wizard_id": id,
			"error":     createErr,
		})
		return State{}, classifySubmit(OpCreateWound, sess.Role(), createErr)
	}
	if err := sess.nav.SetWound(wound.ID); err != nil {
		return State{}, err
	}
	return sess.snapshot(), nil
}

// SubmitConduct validates the conduct screen and writes the tracking record.
// Once the backend has the request it runs to completion even if the caller
// goes away. Attaching the image to the wound is best-effort.
func (s *Service) SubmitConduct(ctx context.Context, caller Caller, id string, form ConductForm) (Result, error) {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return Result{}, err
	}

	var draft Draft
	err = s.begin(sess, PendingSubmit, func() error {
		c, err := s.Validator.Conduct(sess.Role(), form)
		if err != nil {
			sess.nav.Disarm()
			return err
		}
		draft, err = sess.nav.PrepareConduct(c)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMissingWound) {
			telemetry.Error("wizard.missing_wound", map[string]any{
				"wizard_id": id,
				"role":      caller.Role.String(),
			})
		}
		return Result{}, err
	}

	bg := context.WithoutCancel(ctx)
	started := s.now()
	rec, submitErr := s.Backend.CreateTrackingRecord(bg, caller.Token, draft.Payload(started))
	metrics.ObserveSubmitDurationMs(float64(s.now().Sub(started).Microseconds()) / 1000.0)
	if submitErr != nil {
		sess.mu.Lock()
		sess.pending = PendingNone
		sess.mu.Unlock()
		telemetry.Warn("wizard.submit_failed", map[string]any{
			"wizard_id": id,
			"wound_id":  draft.Context.WoundID,
			"error":     submitErr,
		})
		return Result{}, classifySubmit(OpSubmit, caller.Role, submitErr)
	}

	res := Result{
		WizardID:         id,
		TrackingRecordID: rec.TrackingRecordID,
		WoundID:          draft.Context.WoundID,
		PatientID:        draft.Context.PatientID,
		ImageID:          draft.Photo.ImageID,
		LinkStatus:       submissions.LinkNone,
		Next:             fmt.Sprintf("/%s/wound/%d", caller.Role, draft.Context.WoundID),
	}
	var linkErr error
	if draft.HasImage() {
		res.LinkStatus = submissions.LinkLinked
		linkErr = s.Backend.PatchWound(bg, caller.Token, draft.Context.WoundID, woundapi.WoundPatch{ImageID: draft.Photo.ImageID})
		if linkErr != nil {
			res.LinkStatus = submissions.LinkFailed
			metrics.IncImageLinkFailed()
			telemetry.Warn("wizard.image_link_failed", map[string]any{
				"wizard_id": id,
				"wound_id":  draft.Context.WoundID,
				"image_id":  draft.Photo.ImageID,
				"error":     linkErr,
			})
		}
	}
	s.journal(bg, caller, res, linkErr)

	sess.mu.Lock()
	sess.pending = PendingNone
	_ = sess.nav.Complete()
	sess.mu.Unlock()
	s.Store.Delete(id)

	metrics.IncWizardCompleted(caller.Role.String())
	telemetry.Info("wizard.completed", map[string]any{
		"wizard_id":          id,
		"role":               caller.Role.String(),
		"wound_id":           res.WoundID,
		"tracking_record_id": res.TrackingRecordID,
		"link_status":        string(res.LinkStatus),
	})
	return res, nil
}

func (s *Service) journal(ctx context.Context, caller Caller, res Result, linkErr error) {
	if s.Journal == nil {
		return
	}
	entry := submissions.Entry{
		WizardID:         res.WizardID,
		Role:             caller.Role.String(),
		Subject:          caller.Subject,
		PatientID:        res.PatientID,
		WoundID:          res.WoundID,
		TrackingRecordID: res.TrackingRecordID,
		ImageID:          res.ImageID,
		LinkStatus:       res.LinkStatus,
	}
	if linkErr != nil {
		entry.LinkError = linkErr.Error()
		entry.LinkAttempts = 1
	} else if res.LinkStatus == submissions.LinkLinked {
		entry.LinkAttempts = 1
	}
	if _, err := s.Journal.Record(ctx, entry); err != nil {
		telemetry.Error("wizard.journal_failed", map[string]any{
			"wizard_id": res.WizardID,
			"error":     err,
		})
	}
}

// mutate runs fn under the session lock and returns the resulting state.
func (s *Service) mutate(ctx context.Context, caller Caller, id string, fn func(*Session) error) (State, error) {
	sess, err := s.session(ctx, caller, id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return State{}, ErrNotFound
	}
	if sess.pending != PendingNone {
		return State{}, ErrBusy
	}
	if err := fn(sess); err != nil {
		return State{}, err
	}
	return sess.snapshot(), nil
}

// begin runs guard under the session lock and marks the session pending on success.
func (s *Service) begin(sess *Session, pending Pending, guard func() error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return ErrNotFound
	}
	if sess.pending != PendingNone {
		return ErrBusy
	}
	if err := guard(); err != nil {
		return err
	}
	sess.pending = pending
	return nil
}

func (s *Service) session(ctx context.Context, caller Caller, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, ok := s.Store.Get(id)
	if !ok || sess.Subject != caller.Subject || sess.Role() != caller.Role {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) maxImageBytes() int64 {
	if s.MaxImageBytes <= 0 {
		return DefaultMaxImageBytes
	}
	return s.MaxImageBytes
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAnImage):
		return "not_an_image"
	case errors.Is(err, ErrImageTooLarge):
		return "too_large"
	default:
		return ""
	}
}
