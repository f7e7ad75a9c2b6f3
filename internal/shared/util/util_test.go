package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	long := strings.Repeat("a", 150) + ".jpeg"
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "ferida.jpg", want: "ferida.jpg"},
		{name: "trims", in: "  ferida.jpg ", want: "ferida.jpg"},
		{name: "slashes", in: "a/b\\c.png", want: "a_b_c.png"},
		{name: "control characters", in: "leg\x00\tphoto.png", want: "legphoto.png"},
		{name: "keeps spaces", in: "wound photo.png", want: "wound photo.png"},
		{name: "long name keeps extension", in: long, want: strings.Repeat("a", 95) + ".jpeg"},
		{name: "traversal", in: "../secret.png", wantErr: true},
		{name: "empty", in: "   ", wantErr: true},
		{name: "only controls", in: "\x01\x02", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFileName) {
					t.Fatalf("expected ErrInvalidFileName for %q, got %v", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOwnerKeyIsStableAndOpaque(t *testing.T) {
	got := OwnerKey("specialist:42")
	if got != OwnerKey("specialist:42") {
		t.Fatalf("expected stable key, got %s", got)
	}
	if got == OwnerKey("patient:42") {
		t.Fatal("expected distinct subjects to map to distinct keys")
	}
	if len(got) != 32 || strings.Contains(got, "specialist") {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestTokenFingerprintLength(t *testing.T) {
	if got := TokenFingerprint("opaque-token"); len(got) != 24 {
		t.Fatalf("expected 24 hex characters, got %d", len(got))
	}
}
