package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// AdminUseCase реализует операции админ-панели: сводку и управление товарами.
type AdminUseCase struct {
	store        DocumentStore
	imagesInfra  ImagesInfra
	outboxRepo   OutboxRepository
	txManager    TxManager
	catalog      CatalogUC
	maxImageSize int64
	logger       logger.Logger
	now          func() time.Time
}

func NewAdminUC(
	store DocumentStore,
	imagesInfra ImagesInfra,
	outboxRepo OutboxRepository,
	txManager TxManager,
	catalog CatalogUC,
	maxImageSize int64,
	logger logger.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		store:        store,
		imagesInfra:  imagesInfra,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		catalog:      catalog,
		maxImageSize: maxImageSize,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard собирает пользователей, товары, заказы и статистику.
// При ошибке хранилища возвращается пустая сводка.
func (a *AdminUseCase) Dashboard(ctx context.Context) *Dashboard {
	const op = "AdminUseCase.Dashboard"

	dashboard, err := a.dashboard(ctx)
	if err != nil {
		a.logger.Errorf(e.Wrap(op, err), "Error loading admin data")
		return &Dashboard{
			Stats:    Stats{Revenue: decimal.Zero},
			Users:    []domain.User{},
			Products: []domain.Product{},
			Orders:   []domain.Order{},
		}
	}

	return dashboard
}

// GetProduct возвращает товар из хранилища документов.
func (a *AdminUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "AdminUseCase.GetProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}

	doc, err := a.store.Get(ctx, domain.CollectionProducts, id)
	if err != nil {
		if errors.Is(err, e.ErrDocumentNotFound) {
			return nil, e.Wrap(op, e.ErrProductNotFound)
		}
		return nil, e.Wrap(op, err)
	}

	var product domain.Product
	if err := doc.Decode("id", &product); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &product, nil
}

// CreateProduct добавляет товар, загружая изображение в объектное хранилище.
// Документ и событие outbox пишутся в одной транзакции.
func (a *AdminUseCase) CreateProduct(ctx context.Context, req *UpsertProductReq) (*domain.Product, error) {
	const op = "AdminUseCase.CreateProduct"

	if err := a.validateProduct(req, true); err != nil {
		return nil, e.Wrap(op, err)
	}

	image, uploadedKey, err := a.resolveImage(ctx, req, "")
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	now := a.now()
	product := newProductFromReq(req, image)
	product.CreatedAt = &now
	product.UpdatedAt = &now

	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		fields := productFields(product)
		fields["createdAt"] = now

		id, err := a.store.Add(ctx, domain.CollectionProducts, fields)
		if err != nil {
			return err
		}
		product.ID = domain.ProductID(id)

		return a.writeEvent(ctx, ProductCreated, product, now)
	})
	if err != nil {
		a.cleanupImage(uploadedKey, req.Name, err)
		return nil, e.Wrap(op, err)
	}

	a.catalog.Invalidate()

	return product, nil
}

// UpdateProduct перезаписывает редактируемые поля товара.
// Без нового изображения сохраняется переданный ImageURL либо текущее изображение.
func (a *AdminUseCase) UpdateProduct(ctx context.Context, id string, req *UpsertProductReq) (*domain.Product, error) {
	const op = "AdminUseCase.UpdateProduct"

	if err := a.validateProduct(req, false); err != nil {
		return nil, e.Wrap(op, err)
	}

	existing, err := a.GetProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	image, uploadedKey, err := a.resolveImage(ctx, req, existing.Image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	now := a.now()
	product := newProductFromReq(req, image)
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = &now

	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.store.Update(ctx, domain.CollectionProducts, id, productFields(product)); err != nil {
			return err
		}

		return a.writeEvent(ctx, ProductUpdated, product, now)
	})
	if err != nil {
		a.cleanupImage(uploadedKey, req.Name, err)
		return nil, e.Wrap(op, err)
	}

	a.catalog.Invalidate()

	return product, nil
}

// DeleteProduct удаляет товар и пишет событие об удалении.
func (a *AdminUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "AdminUseCase.DeleteProduct"

	existing, err := a.GetProduct(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.store.Delete(ctx, domain.CollectionProducts, id); err != nil {
			return err
		}

		return a.writeEvent(ctx, ProductDeleted, existing, a.now())
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	a.catalog.Invalidate()

	return nil
}

func (a *AdminUseCase) dashboard(ctx context.Context) (*Dashboard, error) {
	userDocs, err := a.store.List(ctx, domain.CollectionUsers)
	if err != nil {
		return nil, err
	}

	productDocs, err := a.store.List(ctx, domain.CollectionProducts)
	if err != nil {
		return nil, err
	}

	orderDocs, err := a.store.List(ctx, domain.CollectionOrders)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(userDocs))
	for _, doc := range userDocs {
		var u domain.User
		if err := doc.Decode("uid", &u); err != nil {
			a.logger.Warnf("skipping malformed user %s: %v", doc.ID, err)
			continue
		}
		if u.Role == "" {
			u.Role = domain.RoleClient
		}
		users = append(users, u)
	}

	products := make([]domain.Product, 0, len(productDocs))
	for _, doc := range productDocs {
		var p domain.Product
		if err := doc.Decode("id", &p); err != nil {
			a.logger.Warnf("skipping malformed product %s: %v", doc.ID, err)
			continue
		}
		products = append(products, p)
	}

	revenue := decimal.Zero
	orders := make([]domain.Order, 0, len(orderDocs))
	for _, doc := range orderDocs {
		var o domain.Order
		if err := doc.Decode("id", &o); err != nil {
			a.logger.Warnf("skipping malformed order %s: %v", doc.ID, err)
			continue
		}
		if o.Status == "" {
			o.Status = "pending"
		}
		revenue = revenue.Add(o.Total)
		orders = append(orders, o)
	}

	return &Dashboard{
		Stats: Stats{
			Users:    len(users),
			Products: len(products),
			Orders:   len(orders),
			Revenue:  revenue,
		},
		Users:    users,
		Products: products,
		Orders:   orders,
	}, nil
}

// resolveImage загружает новое изображение, если оно передано.
// Возвращает адрес изображения и ключ загруженного объекта (пустой, если загрузки не было).
func (a *AdminUseCase) resolveImage(ctx context.Context, req *UpsertProductReq, current string) (string, string, error) {
	if req.Image == nil {
		if req.ImageURL != "" {
			return req.ImageURL, "", nil
		}
		return current, "", nil
	}

	res, err := a.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.Name, *req.Image))
	if err != nil {
		return "", "", err
	}

	return res.URL, res.Key, nil
}

func (a *AdminUseCase) cleanupImage(key, productName string, cause error) {
	if key == "" {
		return
	}

	a.logger.Warnf(
		"Cleaning up orphaned image after transaction failure. product_name: %s, error: %v",
		productName,
		cause,
	)
	a.imagesInfra.CleanupImages([]string{key})
}

func (a *AdminUseCase) writeEvent(ctx context.Context, eventType OutboxEventType, product *domain.Product, at time.Time) error {
	event, err := newProductEvent(eventType, product, at)
	if err != nil {
		return err
	}

	_, err = a.outboxRepo.Create(ctx, event)
	return err
}

// validateProduct проверяет поля формы товара.
func (a *AdminUseCase) validateProduct(req *UpsertProductReq, create bool) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if req.Price.IsNegative() {
		return e.ErrInvalidPrice
	}

	if !req.Price.Equal(req.Price.Truncate(domain.PricePlaces)) {
		return e.ErrPricePrecision
	}

	if req.Stock < 0 {
		return e.ErrInvalidStock
	}

	if req.Image != nil {
		if a.maxImageSize > 0 && int64(len(req.Image.Data)) > a.maxImageSize {
			return e.ErrFileTooLarge
		}
		if _, ok := allowedImageTypes[req.Image.MimeType]; !ok {
			return e.ErrUnsupportedMediaType
		}
	} else if create && req.ImageURL == "" {
		return e.ErrNoImages
	}

	return nil
}

func newProductFromReq(req *UpsertProductReq, image string) *domain.Product {
	stock := req.Stock
	return &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Price:       req.Price,
		Category:    req.Category,
		Image:       image,
		Description: strings.TrimSpace(req.Description),
		IsNew:       req.IsNew,
		Stock:       &stock,
	}
}

// productFields собирает редактируемые поля документа товара.
func productFields(p *domain.Product) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"brand":       p.Brand,
		"category":    p.Category,
		"price":       p.Price.InexactFloat64(),
		"stock":       *p.Stock,
		"image":       p.Image,
		"description": p.Description,
		"isNew":       p.IsNew,
		"updatedAt":   *p.UpdatedAt,
	}
}
