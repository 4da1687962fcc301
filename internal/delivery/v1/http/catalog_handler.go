package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Каталог товаров
//	@Description	Возвращает каталог: хранилище документов, затем HTTP источник, затем встроенный список
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}	domain.Product
//	@Router			/products [get]
func (c *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, c.catalogUsecase.LoadCatalog(r.Context()))
}

// newArrivals
//
//	@Summary	Новинки
//	@Tags		products
//	@Produce	json
//	@Param		limit	query	int	false	"Сколько товаров вернуть (по умолчанию 4, 0 означает все)"
//	@Success	200		{array}	domain.Product
//	@Failure	400		{object}	ErrorResponse
//	@Router		/products/new [get]
func (c *CatalogHandler) newArrivals(w http.ResponseWriter, r *http.Request) {
	const defaultLimit = 4

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.logger.Warnf("%d %s: limit=%q", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), v)
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
		limit = n
	}

	WriteSuccess(w, http.StatusOK, c.catalogUsecase.NewArrivals(r.Context(), limit))
}

// getProduct
//
//	@Summary	Товар каталога
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Идентификатор товара"
//	@Success	200	{object}	domain.Product
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (c *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := c.catalogUsecase.FindProduct(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, e.ErrProductNotFound)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}
