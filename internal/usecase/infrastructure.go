package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// CatalogEndpoint: вторичный HTTP JSON источник каталога.
type CatalogEndpoint interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

// CountNotifier получает пересчитанный счётчик корзины после каждого сохранения.
type CountNotifier interface {
	PublishCount(ctx context.Context, sessionID string, count int) error
}

// IdentityProvider: внешний сервис аутентификации.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	Lookup(ctx context.Context, token string) (*Identity, error)
}

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// TxManager выполняет fn в одной транзакции хранилища документов.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
