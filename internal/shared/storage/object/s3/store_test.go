package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"woundtrack-backend/internal/shared/storage/object"
)

type fakeAPI struct {
	put     *s3.PutObjectInput
	putBody []byte
	objects map[string][]byte
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.put = in
	f.putBody = body
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

func TestSaveUsesKMSAndPrefix(t *testing.T) {
	api := &fakeAPI{}
	store := newStore(api, "photos", "/wounds/", "kms-key")
	store.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	stored, err := store.Save(context.Background(), "patient:3", "leg.jpg", bytes.NewReader(jpegHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stored.ContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", stored.ContentType)
	}
	if stored.SizeBytes != int64(len(jpegHeader)) {
		t.Fatalf("expected size %d, got %d", len(jpegHeader), stored.SizeBytes)
	}
	if !strings.Contains(stored.Key, "/2026-03/") || !strings.HasSuffix(stored.Key, "_leg.jpg") {
		t.Fatalf("unexpected key %q", stored.Key)
	}
	if got := aws.ToString(api.put.Key); got != "wounds/"+stored.Key {
		t.Fatalf("expected prefixed key, got %q", got)
	}
	if api.put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(api.put.SSEKMSKeyId) != "kms-key" {
		t.Fatalf("expected kms encryption, got %q", api.put.ServerSideEncryption)
	}
	if !bytes.Equal(api.putBody, jpegHeader) {
		t.Fatalf("uploaded body mismatch")
	}

	rc, err := store.Open(context.Background(), stored.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if got, _ := io.ReadAll(rc); !bytes.Equal(got, jpegHeader) {
		t.Fatalf("round trip mismatch")
	}
}

func TestSaveDefaultsToAES(t *testing.T) {
	api := &fakeAPI{}
	store := newStore(api, "photos", "", "")
	if _, err := store.Save(context.Background(), "patient:3", "leg.jpg", bytes.NewReader(jpegHeader)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if api.put.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256, got %q", api.put.ServerSideEncryption)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store := newStore(&fakeAPI{}, "photos", "", "")
	if _, err := store.Open(context.Background(), "nope"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"", "owner/photo.jpg", "owner/photo.jpg"},
		{"root/", "owner/photo.jpg", "root/owner/photo.jpg"},
		{"wounds", "", "wounds"},
		{"/root/sub/", "/owner/photo.jpg", "root/sub/owner/photo.jpg"},
	}
	for _, tt := range tests {
		if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
			t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}
