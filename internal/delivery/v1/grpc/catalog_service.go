package grpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"google.golang.org/protobuf/types/known/structpb"
)

type CatalogService struct {
	catalogUC usecase.CatalogUC
	cartUC    usecase.CartUC
	logger    logger.Logger
}

func NewCatalogService(catalogUC usecase.CatalogUC, cartUC usecase.CartUC, logger logger.Logger) *CatalogService {
	return &CatalogService{catalogUC: catalogUC, cartUC: cartUC, logger: logger}
}

// ListProducts отдаёт каталог. Поля запроса: newOnly (bool), limit (number, только для newOnly).
func (g *CatalogService) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.ListProducts"

	fields := req.GetFields()

	var products []domain.Product
	if fields["newOnly"].GetBoolValue() {
		products = g.catalogUC.NewArrivals(ctx, int(fields["limit"].GetNumberValue()))
	} else {
		products = g.catalogUC.LoadCatalog(ctx)
	}

	items := make([]any, 0, len(products))
	for i := range products {
		items = append(items, toGRPCProduct(&products[i]))
	}

	res, err := structpb.NewStruct(map[string]any{"products": items})
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return res, nil
}

// GetCartCount возвращает количество товаров в корзине сессии. Поле запроса: sessionId.
// Метод внутренний: вызов требует общего токена (см. internalTokenInterceptor).
func (g *CatalogService) GetCartCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetCartCount"

	sessionID := strings.TrimSpace(req.GetFields()["sessionId"].GetStringValue())
	if sessionID == "" {
		return nil, GRPCErrorResponse(e.Wrap(op, fmt.Errorf("%w: sessionId is required", e.ErrStatusBadRequest)))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"sessionId": structpb.NewStringValue(sessionID),
		"count":     structpb.NewNumberValue(float64(g.cartUC.Count(ctx, sessionID))),
	}}, nil
}

func toGRPCProduct(p *domain.Product) map[string]any {
	res := map[string]any{
		"id":       p.ID.String(),
		"name":     p.Name,
		"brand":    p.Brand,
		"category": p.Category,
		"price":    p.Price.StringFixed(domain.PricePlaces),
		"image":    p.Image,
		"isNew":    p.IsNew,
	}
	if p.Description != "" {
		res["description"] = p.Description
	}
	if p.Stock != nil {
		res["stock"] = *p.Stock
	}

	return res
}
