package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shenikar/ems_dispatch_system/internal/config"
)

// PhotoStore - хранилище фотографий инцидентов поверх MinIO.
// Фото адресуются непрозрачным именем объекта, выданным движком при создании.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

// NewPhotoStore подключается к MinIO и создает бакет, если его еще нет
func NewPhotoStore(ctx context.Context, cfg *config.Config) (*PhotoStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.MinioBucket, err)
		}
	}

	return &PhotoStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Save записывает объект под заданным именем
func (s *PhotoStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store photo %q: %w", name, err)
	}
	return nil
}

// Open открывает объект на чтение; закрытие - обязанность вызывающего
func (s *PhotoStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open photo %q: %w", name, err)
	}
	return obj, nil
}
