package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage keeps uploads in a MinIO/S3 bucket and links them with presigned
// URLs, or with plain URLs when the bucket is publicly readable.
type MinioStorage struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioStorage(cfg *config.MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Store uploads the object and returns a link to it
func (s *MinioStorage) Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (model.StoredFile, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("failed to upload file: %w", err)
	}

	url, err := s.objectURL(ctx, objectName)
	if err != nil {
		s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
		return model.StoredFile{}, err
	}

	return model.StoredFile{
		URL:         url,
		Path:        objectName,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (s *MinioStorage) objectURL(ctx context.Context, objectName string) (string, error) {
	if s.config.PublicBucket {
		return s.PublicURL(objectName), nil
	}
	return s.PresignedURL(ctx, objectName)
}

// PresignedURL generates a presigned URL for the object with expiration
func (s *MinioStorage) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// Delete removes an uploaded object
func (s *MinioStorage) Delete(ctx context.Context, file model.StoredFile) error {
	err := s.client.RemoveObject(ctx, s.bucket, file.Path, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// PublicURL returns a public URL for the object (if bucket policy allows)
func (s *MinioStorage) PublicURL(objectName string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, objectName)
}
