package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/reference"
	"woundtrack-backend/internal/shared/auth"
	"woundtrack-backend/internal/shared/storage/object/local"
	"woundtrack-backend/internal/woundapi"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestServer(t *testing.T) (*httptest.Server, *MemoryRepo) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	svc := NewService(repo, local.New(t.TempDir()), reference.Default(), 1024)
	svc.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Role: role, Name: "Ana"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestWizardFlowAgainstDevBackend(t *testing.T) {
	srv, repo := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)
	token := signToken(t, "specialist:7", "specialist")
	ctx := context.Background()

	wound, err := client.CreateWound(ctx, token, woundapi.WoundInput{
		PatientID: 3, Region: "4", Subregion: "4.2", WoundType: "1", StartDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("CreateWound: %v", err)
	}
	if wound.ID == 0 || wound.StartDate != "2026-09-01" {
		t.Fatalf("unexpected wound %+v", wound)
	}

	img, err := client.UploadImage(ctx, token, "leg.png", "image/png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	imageID := img.ImageID
	rec, err := client.CreateTrackingRecord(ctx, token, woundapi.TrackingRecordInput{
		WoundID:   wound.ID,
		Width:     5,
		Length:    3,
		PainLevel: "2",
		ImageID:   &imageID,
		TrackDate: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateTrackingRecord: %v", err)
	}
	if rec.TrackingRecordID == 0 || rec.ImageID == nil || *rec.ImageID != imageID {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := client.PatchWound(ctx, token, wound.ID, woundapi.WoundPatch{ImageID: imageID}); err != nil {
		t.Fatalf("PatchWound: %v", err)
	}
	stored, err := repo.GetWound(ctx, wound.ID)
	if err != nil {
		t.Fatalf("GetWound: %v", err)
	}
	if stored.ImageID != imageID {
		t.Fatalf("expected wound image %d, got %d", imageID, stored.ImageID)
	}

	profile, err := client.Me(ctx, token)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if profile.ID != 7 || profile.Role != "specialist" || profile.Name != "Ana" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	opts, err := client.FetchReferenceEnumeration(ctx, token, reference.TissueType)
	if err != nil {
		t.Fatalf("FetchReferenceEnumeration: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("expected tissue types")
	}
}

func TestRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)

	_, err := client.Me(context.Background(), "not-a-token")
	if !woundapi.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)
	token := signToken(t, "patient:3", "patient")

	_, err := client.UploadImage(context.Background(), token, "notes.txt", "text/plain", bytes.NewReader([]byte("hello")))
	if woundapi.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	srv, _ := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)
	token := signToken(t, "patient:3", "patient")

	big := append(append([]byte{}, pngBytes...), make([]byte, 2048)...)
	_, err := client.UploadImage(context.Background(), token, "big.png", "image/png", bytes.NewReader(big))
	if woundapi.StatusOf(err) != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
}

func TestTrackingRecordForUnknownWound(t *testing.T) {
	srv, _ := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)
	token := signToken(t, "patient:3", "patient")

	_, err := client.CreateTrackingRecord(context.Background(), token, woundapi.TrackingRecordInput{
		WoundID: 999, Width: 1, Length: 1, PainLevel: "0",
	})
	if woundapi.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestTrackingRecordValidation(t *testing.T) {
	srv, repo := newTestServer(t)
	client := woundapi.New(srv.URL, 5*time.Second)
	token := signToken(t, "patient:3", "patient")
	ctx := context.Background()

	w, err := repo.CreateWound(ctx, Wound{PatientID: 3, Region: "4"})
	if err != nil {
		t.Fatalf("CreateWound: %v", err)
	}

	cases := []struct {
		name string
		in   woundapi.TrackingRecordInput
	}{
		{name: "zero width", in: woundapi.TrackingRecordInput{WoundID: w.ID, Length: 1, PainLevel: "1"}},
		{name: "pain out of range", in: woundapi.TrackingRecordInput{WoundID: w.ID, Width: 1, Length: 1, PainLevel: "11"}},
		{name: "unknown tissue", in: woundapi.TrackingRecordInput{WoundID: w.ID, Width: 1, Length: 1, PainLevel: "1", TissueType: "99"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.CreateTrackingRecord(ctx, token, tc.in)
			if woundapi.StatusOf(err) != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
		})
	}
}

func TestMintTokenAndFetchWound(t *testing.T) {
	srv, repo := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"sub": "patient:3", "role": "patient", "name": "Rui"})
	resp, err := http.Post(srv.URL+"/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.VerifyJWT(tok.AccessToken)
	if err != nil || claims.Role != "patient" {
		t.Fatalf("unexpected claims %+v err=%v", claims, err)
	}

	w, _ := repo.CreateWound(context.Background(), Wound{PatientID: 3, Region: "4"})
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/wounds/"+strconv.FormatInt(w.ID, 10), nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	got, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", got.StatusCode)
	}
	var detail woundDetailResponse
	if err := json.NewDecoder(got.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Wound.ID != w.ID || len(detail.TrackingRecords) != 0 {
		t.Fatalf("unexpected detail %+v", detail)
	}
}

func TestMintTokenRejectsUnknownRole(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"sub": "x:1", "role": "nurse"})
	resp, err := http.Post(srv.URL+"/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPatchWoundUnknownImage(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil, 0)
	w, _ := repo.CreateWound(context.Background(), Wound{PatientID: 3})

	err := svc.PatchWound(context.Background(), w.ID, woundapi.WoundPatch{ImageID: 5})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProfileID(t *testing.T) {
	cases := map[string]int64{"patient:12": 12, "44": 44, "token:abc": 0, "": 0}
	for sub, want := range cases {
		if got := profileID(sub); got != want {
			t.Fatalf("profileID(%q) = %d, want %d", sub, got, want)
		}
	}
}
