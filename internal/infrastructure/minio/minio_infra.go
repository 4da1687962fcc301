package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/infrastructure"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/google/uuid"
)

const cleanupTimeout = 30 * time.Second

var cleanupRetry = jitter.Policy{Attempts: 3, Base: time.Second, Max: 4 * time.Second}

// MinioInfrastructure управляет загрузкой и фоновой очисткой изображений товаров.
type MinioInfrastructure struct {
	minioRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	retry       jitter.Policy
	wg          sync.WaitGroup
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo:   minioRepo,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		retry:       cleanupRetry,
	}
}

// UploadImage загружает изображение товара и возвращает ключ объекта и публичный адрес.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	const op = "MinioInfrastructure.UploadImage"

	if m.cfg.MaxImageSize > 0 && int64(len(req.Image.Data)) > m.cfg.MaxImageSize {
		return nil, e.Wrap(op, e.ErrFileTooLarge)
	}

	imageID := uuid.NewString()
	objKey, err := infrastructure.ImageObjectKey(req.ProductName, imageID, req.Image.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("image %s: %w", req.Image.Name, err))
	}

	image := domain.NewImage(imageID, m.cfg.BucketName, objKey, req.Image.Data, req.Image.MimeType)

	key, err := m.minioRepo.Upload(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return usecase.NewUploadImageRes(key, m.publicURL(key)), nil
}

// CleanupImages запускает фоновую очистку указанных ключей.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		err := jitter.Retry(ctx, m.retry, func(ctx context.Context) error {
			return m.minioRepo.Delete(ctx, key)
		})
		if err != nil {
			m.logger.Warnf("%s: failed to remove key=%s: %v", op, key, err)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения фоновых очисток с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func (m *MinioInfrastructure) publicURL(key string) string {
	return strings.TrimSuffix(m.cfg.PublicBaseURL, "/") + "/" + key
}
