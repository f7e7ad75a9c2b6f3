package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"woundtrack-backend/internal/shared/storage/object"
)

// photoCacheControl lets the frontend cache photos; keys are never reused.
const photoCacheControl = "private, max-age=86400, immutable"

// api is the subset of the S3 client the store calls.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store keeps photos in an S3 bucket, encrypted at rest.
type Store struct {
	client   api
	bucket   string
	prefix   string
	kmsKeyID string
	now      func() time.Time
}

// New loads the default AWS config and returns an S3-backed store.
func New(ctx context.Context, region, bucket, prefix, kmsKeyID string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucket, prefix, kmsKeyID), nil
}

func newStore(client api, bucket, prefix, kmsKeyID string) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
		now:      time.Now,
	}
}

// Save streams the photo to S3. The returned key excludes the bucket prefix.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (object.Stored, error) {
	key, err := object.PhotoKey(owner, fileName, s.now())
	if err != nil {
		return object.Stored{}, err
	}
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	contentType, body, err := object.Sniff(r)
	if err != nil {
		return object.Stored{}, err
	}

	counter := &object.CountingReader{R: body}
	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(applyPrefix(s.prefix, key)),
		Body:                 counter,
		ContentType:          aws.String(contentType),
		CacheControl:         aws.String(photoCacheControl),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return object.Stored{}, fmt.Errorf("s3 put %s: %w", aws.ToString(input.Key), err)
	}
	return object.Stored{Key: key, SizeBytes: counter.N, ContentType: contentType}, nil
}

// Open fetches a stored photo. Missing keys map to object.ErrNotFound.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objectKey := applyPrefix(s.prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	var missing *s3types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", objectKey, err)
	}
	return out.Body, nil
}

func applyPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "/" + key
}

var _ object.Store = (*Store)(nil)
