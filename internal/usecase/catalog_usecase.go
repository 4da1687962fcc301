package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// CatalogUseCase загружает каталог один раз за время жизни процесса.
// Порядок источников: хранилище документов, HTTP-эндпоинт, встроенный список.
type CatalogUseCase struct {
	store         DocumentStore
	endpoint      CatalogEndpoint
	collection    string
	sourceTimeout time.Duration
	logger        logger.Logger

	group singleflight.Group

	mu       sync.RWMutex
	products []domain.Product
	loaded   bool
	gen      uint64 // увеличивается при Invalidate
}

func NewCatalogUC(
	store DocumentStore,
	endpoint CatalogEndpoint,
	collection string,
	sourceTimeout time.Duration,
	logger logger.Logger,
) *CatalogUseCase {
	if collection == "" {
		collection = domain.CollectionProducts
	}

	return &CatalogUseCase{
		store:         store,
		endpoint:      endpoint,
		collection:    collection,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

// LoadCatalog возвращает каталог. Никогда не возвращает пустой результат:
// при недоступности всех источников отдаётся встроенный список.
// Конкурентные первые вызовы схлопываются в одну загрузку.
func (c *CatalogUseCase) LoadCatalog(ctx context.Context) []domain.Product {
	c.mu.RLock()
	if c.loaded {
		products := c.products
		c.mu.RUnlock()
		return products
	}
	gen := c.gen
	c.mu.RUnlock()

	// Загрузка не должна обрываться отменой запроса, который её инициировал:
	// её результат ждут и другие вызывающие.
	loadCtx := context.WithoutCancel(ctx)

	res, _, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		products := c.load(loadCtx)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.gen != gen {
			// Каталог инвалидирован во время загрузки, результат не запоминаем.
			return products, nil
		}
		if c.loaded {
			return c.products, nil
		}
		c.products = products
		c.loaded = true
		return products, nil
	})

	return res.([]domain.Product)
}

// FindProduct ищет товар по нормализованному идентификатору.
func (c *CatalogUseCase) FindProduct(ctx context.Context, id any) (domain.Product, bool) {
	want := domain.NormalizeID(id)
	if want == "" {
		return domain.Product{}, false
	}

	for _, p := range c.LoadCatalog(ctx) {
		if p.ID == want {
			return p, true
		}
	}
	return domain.Product{}, false
}

// NewArrivals возвращает первые limit новинок; при limit <= 0 возвращаются все.
func (c *CatalogUseCase) NewArrivals(ctx context.Context, limit int) []domain.Product {
	res := make([]domain.Product, 0)
	for _, p := range c.LoadCatalog(ctx) {
		if !p.IsNew {
			continue
		}
		res = append(res, p)
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res
}

// Invalidate сбрасывает запомненный каталог; следующий LoadCatalog загрузит его заново.
func (c *CatalogUseCase) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.products = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *CatalogUseCase) load(ctx context.Context) []domain.Product {
	const op = "CatalogUseCase.load"

	products, err := c.fromStore(ctx)
	if err == nil {
		c.logger.Infof("catalog loaded from document store: %d products", len(products))
		return products
	}
	c.logger.Warnf("document store unavailable, trying catalog endpoint: %v", e.Wrap(op, err))

	products, err = c.fromEndpoint(ctx)
	if err == nil {
		c.logger.Infof("catalog loaded from endpoint: %d products", len(products))
		return products
	}
	c.logger.Warnf("catalog endpoint unavailable, using built-in catalog: %v", e.Wrap(op, err))

	return fallbackProducts()
}

func (c *CatalogUseCase) fromStore(ctx context.Context) ([]domain.Product, error) {
	if c.store == nil {
		return nil, e.ErrSourceUnavailable
	}

	ctx, cancel := c.withSourceTimeout(ctx)
	defer cancel()

	docs, err := c.store.List(ctx, c.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrSourceUnavailable, err)
	}
	if len(docs) == 0 {
		return nil, e.ErrEmptySource
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		var p domain.Product
		if err := doc.Decode("id", &p); err != nil {
			return nil, fmt.Errorf("%w: document %s: %w", e.ErrInvalidPayload, doc.ID, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", e.ErrInvalidPayload, err)
		}
		products = append(products, p)
	}

	return products, nil
}

func (c *CatalogUseCase) fromEndpoint(ctx context.Context) ([]domain.Product, error) {
	if c.endpoint == nil {
		return nil, e.ErrSourceUnavailable
	}

	ctx, cancel := c.withSourceTimeout(ctx)
	defer cancel()

	products, err := c.endpoint.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, e.ErrEmptySource
	}

	for i := range products {
		if err := products[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", e.ErrInvalidPayload, err)
		}
	}

	return products, nil
}

func (c *CatalogUseCase) withSourceTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.sourceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.sourceTimeout)
}
