package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
)

const maxBodySize = 4 << 20

// Client читает каталог из вторичного HTTP JSON источника.
type Client struct {
	url    string
	http   *http.Client
	logger logger.Logger
}

func NewClient(cfg *cfg.CatalogCfg, logger logger.Logger) *Client {
	return &Client{
		url:    cfg.FallbackURL,
		http:   &http.Client{Timeout: cfg.SourceTimeout},
		logger: logger,
	}
}

// FetchProducts возвращает товары, если источник ответил 2xx и непустым JSON массивом.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrSourceUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: HTTP %d", e.ErrSourceUnavailable, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrSourceUnavailable, err))
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: not a JSON array", e.ErrInvalidPayload))
	}

	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrInvalidPayload, err))
	}
	if len(products) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmptySource)
	}

	c.logger.Debugf("catalog endpoint returned %d products in %s", len(products), time.Since(start))
	return products, nil
}
