package submissions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSubmissionsRouter(svc *Service, subject string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("subject", subject)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestListHandlerReturnsCallerEntries(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	_, _ = svc.Record(ctx, Entry{Subject: "me", WoundID: 7, TrackingRecordID: 55, ImageID: 42, LinkStatus: LinkLinked})
	_, _ = svc.Record(ctx, Entry{Subject: "me", WoundID: 8, TrackingRecordID: 56})
	_, _ = svc.Record(ctx, Entry{Subject: "someone", WoundID: 7, TrackingRecordID: 57})

	r := newSubmissionsRouter(svc, "me")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/submissions?woundId=7", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0]["imageId"].(float64) != 42 || got[0]["linkStatus"] != "linked" {
		t.Fatalf("unexpected entry %+v", got[0])
	}
}

func TestListHandlerRejectsBadWoundID(t *testing.T) {
	r := newSubmissionsRouter(NewService(NewMemoryRepo(), nil), "me")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/submissions?woundId=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
