package minio

import (
	"bytes"
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo реализует репозиторий изображений товаров поверх MinIO.
type ImageRepo struct {
	mc     *minio.Client
	bucket string
}

func NewImageRepo(mc *minio.Client, bucket string) *ImageRepo {
	return &ImageRepo{
		mc:     mc,
		bucket: bucket,
	}
}

// Upload загружает изображение и возвращает ключ объекта.
// Бакет берётся из изображения, если он задан.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	bucket := image.Bucket
	if bucket == "" {
		bucket = i.bucket
	}

	info, err := i.mc.PutObject(ctx, bucket, image.ObjectKey, bytes.NewReader(image.Data), image.Size, minio.PutObjectOptions{
		ContentType: image.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект по ключу.
func (i *ImageRepo) Delete(ctx context.Context, key string) error {
	if err := i.mc.RemoveObject(ctx, i.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
