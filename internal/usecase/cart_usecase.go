package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

const (
	cartLockStripes = 64
	publishTimeout  = 2 * time.Second
)

// CartUseCase управляет корзиной сессии, которая хранится в долговременном слоте.
type CartUseCase struct {
	slot      CartSlot
	notifier  CountNotifier
	catalog   CatalogUC
	loginPath string
	retry     jitter.Policy
	logger    logger.Logger

	// Чтение-изменение-запись одной сессии внутри процесса сериализуется.
	locks [cartLockStripes]sync.Mutex
}

func NewCartUC(
	slot CartSlot,
	notifier CountNotifier,
	catalog CatalogUC,
	loginPath string,
	retry jitter.Policy,
	logger logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		slot:      slot,
		notifier:  notifier,
		catalog:   catalog,
		loginPath: loginPath,
		retry:     retry,
		logger:    logger,
	}
}

// GetCart читает корзину сессии. Отсутствующий, повреждённый или недоступный слот
// даёт пустую корзину.
func (c *CartUseCase) GetCart(ctx context.Context, sessionID string) domain.Cart {
	const op = "CartUseCase.GetCart"

	cart, err := c.readCart(ctx, sessionID)
	if err != nil {
		c.logger.Warnf("cart slot unreadable, session %s: %v", sessionID, e.Wrap(op, err))
		return domain.Cart{}
	}

	return cart
}

// readCart отличает недоступный слот (ошибка) от отсутствующего или повреждённого
// содержимого (пустая корзина).
func (c *CartUseCase) readCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	const op = "CartUseCase.readCart"

	raw, ok, err := c.slot.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.Cart{}, nil
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		c.logger.Warnf("cart slot corrupt, session %s: %v", sessionID, e.Wrap(op, err))
		return domain.Cart{}, nil
	}
	if cart == nil {
		return domain.Cart{}, nil
	}
	if !cart.Valid() {
		c.logger.Warnf("cart slot holds invalid items, session %s", sessionID)
		return domain.Cart{}, nil
	}

	return cart, nil
}

// SaveCart записывает корзину и затем всегда публикует пересчитанный счётчик.
func (c *CartUseCase) SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	mu := c.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	return c.saveCart(ctx, sessionID, cart)
}

// AddToCart добавляет товар в корзину вошедшего пользователя.
// Ошибка возвращается только при отказе инфраструктуры.
func (c *CartUseCase) AddToCart(ctx context.Context, sess *auth.Session, productID string, returnTo string) (*AddToCartRes, error) {
	const op = "CartUseCase.AddToCart"

	loggedIn, err := sess.Tracker.LoggedInAsync(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !loggedIn {
		return &AddToCartRes{
			Outcome:  OutcomeLoginRequired,
			Message:  msgLoginRequired,
			LoginURL: LoginURL(c.loginPath, returnTo),
			Count:    c.Count(ctx, sess.ID),
		}, nil
	}

	product, ok := c.catalog.FindProduct(ctx, productID)
	if !ok {
		return &AddToCartRes{
			Outcome: OutcomeUnavailable,
			Message: msgUnavailable,
			Count:   c.Count(ctx, sess.ID),
		}, nil
	}

	mu := c.lock(sess.ID)
	mu.Lock()
	defer mu.Unlock()

	// Недоступный слот не перезаписывается.
	current, err := c.readCart(ctx, sess.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	cart := current.Add(product)
	if err := c.saveCart(ctx, sess.ID, cart); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &AddToCartRes{
		Outcome: OutcomeAdded,
		Message: msgAdded,
		Count:   cart.Count(),
	}, nil
}

// Count возвращает сумму количеств позиций корзины.
func (c *CartUseCase) Count(ctx context.Context, sessionID string) int {
	return c.GetCart(ctx, sessionID).Count()
}

// ClearCart сохраняет пустую корзину.
func (c *CartUseCase) ClearCart(ctx context.Context, sessionID string) error {
	return c.SaveCart(ctx, sessionID, domain.Cart{})
}

// LoginURL строит адрес страницы входа с возвратом на returnTo.
func LoginURL(loginPath, returnTo string) string {
	if returnTo == "" {
		returnTo = "/"
	}
	return loginPath + "?redirect=" + url.QueryEscape(returnTo)
}

func (c *CartUseCase) saveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	const op = "CartUseCase.saveCart"

	if cart == nil {
		cart = domain.Cart{}
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return e.Wrap(op, err)
	}

	writeErr := jitter.Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.slot.Set(ctx, sessionID, string(data))
	})
	if writeErr != nil {
		c.logger.Errorf(writeErr, "cart slot write failed, session %s", sessionID)
		writeErr = e.Wrap(op, fmt.Errorf("%w: %w", e.ErrSlotWriteFailed, writeErr))
	}

	// Счётчик пересчитывается из слота даже после неудачной записи.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	count := c.Count(pubCtx, sessionID)
	if err := c.notifier.PublishCount(pubCtx, sessionID, count); err != nil {
		c.logger.Warnf("Failed to publish cart count, session %s: %v", sessionID, e.Wrap(op, err))
	}

	return writeErr
}

func (c *CartUseCase) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &c.locks[h.Sum32()%cartLockStripes]
}
