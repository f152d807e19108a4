package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"noticeboard/internal/config"
	"noticeboard/internal/observability"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store writes objects to an S3-compatible endpoint such as MinIO.
type S3Store struct {
	client    *s3.S3
	uploader  *s3manager.Uploader
	publicURL string

	mu      sync.Mutex
	buckets map[string]bool
}

// NewS3Store builds a path-style S3 client from the blob settings in cfg.
// SDK retries are disabled: a failed upload fails the request.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	scheme := "http"
	if cfg.BlobUseSSL {
		scheme = "https"
	}
	endpoint := scheme + "://" + cfg.BlobEndpoint

	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(cfg.BlobRegion),
		Credentials:      credentials.NewStaticCredentials(cfg.BlobAccessKey, cfg.BlobSecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(!cfg.BlobUseSSL),
		MaxRetries:       aws.Int(0),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	base := cfg.BlobPublicURL
	if base == "" {
		base = endpoint
	}

	client := s3.New(sess)
	return &S3Store{
		client:    client,
		uploader:  s3manager.NewUploaderWithClient(client),
		publicURL: base,
		buckets:   make(map[string]bool),
	}, nil
}

func (s *S3Store) PutObject(ctx context.Context, bucket, object string, body []byte, contentType string) (string, error) {
	ctx, span := observability.StartClientSpan(ctx, "s3", "PutObject")
	defer span.End()

	if err := s.ensureBucket(ctx, bucket); err != nil {
		span.RecordError(err)
		observability.BlobUploads.WithLabelValues("error").Inc()
		return "", err
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		span.RecordError(err)
		observability.BlobUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}

	observability.BlobUploads.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "uploaded object", slog.String("bucket", bucket), slog.String("object", object), slog.Int("size", len(body)))
	return publicURL(s.publicURL, bucket, object), nil
}

func (s *S3Store) ensureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] {
		return nil
	}

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("head bucket %s: %w", bucket, err)
		}
		slog.InfoContext(ctx, "bucket does not exist, creating", slog.String("bucket", bucket))
		_, err = s.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if err != nil && !isAlreadyOwned(err) {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	s.buckets[bucket] = true
	return nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchBucket || aerr.Code() == "NotFound"
	}
	return false
}

func isAlreadyOwned(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou
}
