package redis

import (
	"context"
	"strconv"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CountPublisher публикует счётчик корзины в канал <CountTopic>:<sessionID>.
type CountPublisher struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
}

func NewCountPublisher(client *clients.RedisClient, cfg *cfg.RedisCfg) *CountPublisher {
	return &CountPublisher{
		client: client,
		cfg:    cfg,
	}
}

func (p *CountPublisher) PublishCount(ctx context.Context, sessionID string, count int) error {
	if err := p.client.Client.Publish(ctx, p.channel(sessionID), strconv.Itoa(count)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Subscribe подписывается на счётчик корзины сессии. Вызывающий закрывает подписку.
func (p *CountPublisher) Subscribe(ctx context.Context, sessionID string) *r.PubSub {
	return p.client.Client.Subscribe(ctx, p.channel(sessionID))
}

func (p *CountPublisher) channel(sessionID string) string {
	return p.cfg.CountTopic + ":" + sessionID
}
