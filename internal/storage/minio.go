package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any S3-compatible)
// backend. Objects stay private; access goes through presigned URLs only.
type MinioStorage struct {
	client *minio.Client
	bucket string // default bucket
}

// NewMinioStorage creates a MinIO client, ensures the default bucket exists,
// and returns a ready-to-use MinioStorage.
func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	return &MinioStorage{client: client, bucket: bucket}, nil
}

// Upload writes data under bucket/path. PutObject overwrites an existing
// object at the same key, which gives the required upsert semantics.
func (s *MinioStorage) Upload(ctx context.Context, bucket, path string, data []byte) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if bucket == "" {
		bucket = s.bucket
	}
	_, err := s.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", path, err)
	}
	return path, nil
}

// SignedURL returns a presigned GET URL for bucket/path valid for ttl.
func (s *MinioStorage) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if err := validate(path, ttl); err != nil {
		return "", err
	}
	if bucket == "" {
		bucket = s.bucket
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", path, err)
	}
	return u.String(), nil
}
