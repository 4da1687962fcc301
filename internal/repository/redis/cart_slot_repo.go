package redis

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CartSlotRepo хранит сериализованную корзину сессии под ключом <CartKey>:<sessionID>.
type CartSlotRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
}

func NewCartSlotRepo(client *clients.RedisClient, cfg *cfg.RedisCfg) *CartSlotRepo {
	return &CartSlotRepo{
		client: client,
		cfg:    cfg,
	}
}

// Get возвращает содержимое слота; ok == false, если слот пуст.
func (c *CartSlotRepo) Get(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := c.client.Client.Get(ctx, c.cartKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return "", false, nil
		}
		return "", false, e.Wrap(whereami.WhereAmI(), err)
	}

	return val, true, nil
}

// Set перезаписывает слот. При CartTTL == 0 срок жизни не задаётся.
func (c *CartSlotRepo) Set(ctx context.Context, sessionID, value string) error {
	if err := c.client.Client.Set(ctx, c.cartKey(sessionID), value, c.cfg.CartTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// cartKey возвращает Redis-ключ корзины сессии
func (c *CartSlotRepo) cartKey(sessionID string) string {
	return c.cfg.CartKey + ":" + sessionID
}
