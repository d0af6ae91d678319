package service

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"fogcatalog/config"
)

// MinioStorage stores product images in a MinIO (S3-compatible) bucket
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage creates a MinIO-backed storage service
func NewMinioStorage(cfg config.StorageConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("connected to minio")
	return &MinioStorage{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Ensure MinioStorage implements StorageInterface
var _ StorageInterface = (*MinioStorage)(nil)

// Upload stores the object and returns its public URL
func (s *MinioStorage) Upload(ctx context.Context, in UploadInput) (string, error) {
	objectName := path.Join(in.Path, in.FileName)

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(in.Data), int64(len(in.Data)),
		minio.PutObjectOptions{ContentType: in.ContentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
