package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecksIsHealthy(t *testing.T) {
	ok, report := NewService().Status(context.Background())
	if !ok || len(report) != 0 {
		t.Fatalf("expected healthy empty report, got ok=%v report=%v", ok, report)
	}
}

func TestStatusReportsFailingCheck(t *testing.T) {
	svc := NewService()
	svc.Register("database", func(context.Context) error { return errors.New("connection refused") })
	svc.Register("catalog", func(context.Context) error { return nil })

	ok, report := svc.Status(context.Background())
	if ok {
		t.Fatal("expected unhealthy")
	}
	if report["database"] != "connection refused" || report["catalog"] != "ok" {
		t.Fatalf("unexpected report %v", report)
	}
}
