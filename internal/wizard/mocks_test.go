package wizard

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"woundtrack-backend/internal/reference"
	"woundtrack-backend/internal/submissions"
	"woundtrack-backend/internal/woundapi"
)

var _ Backend = (*mockBackend)(nil)

// mockBackend records every backend call. Unset funcs succeed with fixed ids.
type mockBackend struct {
	UploadImageFunc          func(ctx context.Context, token, fileName, contentType string, r io.Reader) (woundapi.UploadedImage, error)
	CreateTrackingRecordFunc func(ctx context.Context, token string, in woundapi.TrackingRecordInput) (woundapi.TrackingRecord, error)
	PatchWoundFunc           func(ctx context.Context, token string, woundID int64, patch woundapi.WoundPatch) error
	CreateWoundFunc          func(ctx context.Context, token string, in woundapi.WoundInput) (woundapi.Wound, error)

	UploadCalls  int32
	SubmitCalls  int32
	PatchCalls   int32
	WoundCalls   int32
	mu           sync.Mutex
	lastPayload  woundapi.TrackingRecordInput
	lastPatch    woundapi.WoundPatch
	lastToken    string
	lastWoundReq woundapi.WoundInput
}

func (m *mockBackend) UploadImage(ctx context.Context, token, fileName, contentType string, r io.Reader) (woundapi.UploadedImage, error) {
	atomic.AddInt32(&m.UploadCalls, 1)
	m.setToken(token)
	if m.UploadImageFunc != nil {
		return m.UploadImageFunc(ctx, token, fileName, contentType, r)
	}
	return woundapi.UploadedImage{ImageID: 42}, nil
}

func (m *mockBackend) CreateTrackingRecord(ctx context.Context, token string, in woundapi.TrackingRecordInput) (woundapi.TrackingRecord, error) {
	atomic.AddInt32(&m.SubmitCalls, 1)
	m.mu.Lock()
	m.lastPayload = in
	m.lastToken = token
	m.mu.Unlock()
	if m.CreateTrackingRecordFunc != nil {
		return m.CreateTrackingRecordFunc(ctx, token, in)
	}
	return woundapi.TrackingRecord{TrackingRecordID: 55, ImageID: in.ImageID}, nil
}

func (m *mockBackend) PatchWound(ctx context.Context, token string, woundID int64, patch woundapi.WoundPatch) error {
	atomic.AddInt32(&m.PatchCalls, 1)
	m.mu.Lock()
	m.lastPatch = patch
	m.mu.Unlock()
	if m.PatchWoundFunc != nil {
		return m.PatchWoundFunc(ctx, token, woundID, patch)
	}
	return nil
}

func (m *mockBackend) CreateWound(ctx context.Context, token string, in woundapi.WoundInput) (woundapi.Wound, error) {
	atomic.AddInt32(&m.WoundCalls, 1)
	m.mu.Lock()
	m.lastWoundReq = in
	m.mu.Unlock()
	if m.CreateWoundFunc != nil {
		return m.CreateWoundFunc(ctx, token, in)
	}
	return woundapi.Wound{ID: 77, PatientID: in.PatientID}, nil
}

func (m *mockBackend) calls() int32 {
	return atomic.LoadInt32(&m.UploadCalls) + atomic.LoadInt32(&m.SubmitCalls) +
		atomic.LoadInt32(&m.PatchCalls) + atomic.LoadInt32(&m.WoundCalls)
}

func (m *mockBackend) payload() woundapi.TrackingRecordInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPayload
}

func (m *mockBackend) setToken(token string) {
	m.mu.Lock()
	m.lastToken = token
	m.mu.Unlock()
}

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	svc     *Service
	backend *mockBackend
	journal *submissions.Service
	repo    *submissions.MemoryRepo
	store   *MemoryStore
}

func newTestEnv() *testEnv {
	backend := &mockBackend{}
	repo := submissions.NewMemoryRepo()
	journal := submissions.NewService(repo, backend)
	journal.Now = func() time.Time { return fixedNow }
	store := NewMemoryStore(time.Hour)
	svc := NewService(store, backend, journal, NewValidator(reference.Default()), DefaultMaxImageBytes)
	svc.Now = func() time.Time { return fixedNow }
	ids := int32(0)
	svc.NewID = func() string {
		return fmt.Sprintf("wiz-%d", atomic.AddInt32(&ids, 1))
	}
	return &testEnv{svc: svc, backend: backend, journal: journal, repo: repo, store: store}
}

func patientCaller() Caller {
	return Caller{Subject: "patient:3", Token: "patient-token", Role: RolePatient}
}

func specialistCaller() Caller {
	return Caller{Subject: "specialist:1", Token: "specialist-token", Role: RoleSpecialist}
}

func pain(v int) OptionalNumber {
	return OptionalNumber{Value: Number(v), Set: true}
}

func boolPtr(v bool) *bool {
	return &v
}

func validPatientForm() *PatientMeasurementsForm {
	return &PatientMeasurementsForm{
		Width:           5,
		Length:          3,
		PainLevel:       pain(2),
		DressingChanges: "2",
		PusColor:        "1",
		HadFever:        boolPtr(false),
	}
}

func validSpecialistForm() *SpecialistMeasurementsForm {
	return &SpecialistMeasurementsForm{
		Width:           6,
		Length:          4,
		PainLevel:       pain(7),
		ExudateAmount:   "2",
		ExudateType:     "3",
		TissueType:      "2",
		WoundEdges:      "1",
		SkinAround:      "1",
		DressingChanges: "1",
		HadFever:        boolPtr(true),
		TrackDate:       "2026-10-14",
	}
}
