package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// DocumentStore: удалённое хранилище документов (коллекции записей с произвольными полями).
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]domain.Document, error)
	Get(ctx context.Context, collection, id string) (*domain.Document, error)
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// CartSlot: долговременный слот ключ-значение, в котором лежит сериализованная корзина.
type CartSlot interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}
