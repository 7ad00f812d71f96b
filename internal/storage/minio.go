package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	Prefix        string
}

// MinioUploader publishes thumbnails to a MinIO (or other S3 compatible)
// bucket through the MinIO client.
type MinioUploader struct {
	cfg    MinioConfig
	client *minio.Client
}

// NewMinioUploader connects to MinIO and ensures the bucket exists.
func NewMinioUploader(ctx context.Context, cfg MinioConfig) (*MinioUploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("minio public base url is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioUploader{cfg: cfg, client: client}, nil
}

func (m *MinioUploader) UploadFile(ctx context.Context, filePath, contentType string) (Object, error) {
	if contentType == "" {
		contentType = "image/png"
	}
	key := objectKey(m.cfg.Prefix, contentType, time.Now())
	if _, err := m.client.FPutObject(ctx, m.cfg.Bucket, key, filePath, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return Object{Key: key, URL: publicURL(m.cfg.PublicBaseURL, key)}, nil
}

func (m *MinioUploader) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
