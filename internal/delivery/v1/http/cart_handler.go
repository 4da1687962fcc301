package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

type CartResponse struct {
	Items          domain.Cart     `json:"items"`
	Count          int             `json:"count"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId"`
}

type AddToCartResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// getCart
//
//	@Summary	Корзина текущей сессии
//	@Tags		cart
//	@Produce	json
//	@Success	200	{object}	CartResponse
//	@Router		/cart [get]
func (c *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	cart := c.cartUsecase.GetCart(r.Context(), sess.ID)

	total := cart.Total()
	WriteSuccess(w, http.StatusOK, &CartResponse{
		Items:          cart,
		Count:          cart.Count(),
		Total:          total,
		TotalFormatted: domain.FormatPrice(total),
	})
}

// getCount
//
//	@Summary	Количество товаров в корзине
//	@Tags		cart
//	@Produce	json
//	@Success	200	{object}	CountResponse
//	@Router		/cart/count [get]
func (c *CartHandler) getCount(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	WriteSuccess(w, http.StatusOK, &CountResponse{Count: c.cartUsecase.Count(r.Context(), sess.ID)})
}

// addItem
//
//	@Summary		Добавить товар в корзину
//	@Description	Требует входа. Повторное добавление увеличивает количество
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			body		body		AddToCartRequest	true	"Товар"
//	@Param			returnTo	query		string				false	"Куда вернуться после входа"
//	@Success		200			{object}	AddToCartResponse
//	@Failure		401			{object}	ErrorResponse	"Нужен вход, loginUrl указывает страницу входа"
//	@Failure		404			{object}	ErrorResponse	"Товар недоступен"
//	@Router			/cart/items [post]
func (c *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		c.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err)
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		WriteError(w, e.ErrProductIDRequired)
		return
	}

	sess := sessionFromCtx(r.Context())
	res, err := c.cartUsecase.AddToCart(r.Context(), sess, req.ProductID, returnTo(r))
	if err != nil {
		c.logger.Errorf(err, "add to cart failed for session %s", sess.ID)
		WriteError(w, err)
		return
	}

	switch res.Outcome {
	case usecase.OutcomeLoginRequired:
		WriteLoginRequired(w, res.Message, res.LoginURL)
	case usecase.OutcomeUnavailable:
		WriteSuccess(w, http.StatusNotFound, NewErrorResponse(http.StatusNotFound, res.Message))
	default:
		WriteSuccess(w, http.StatusOK, &AddToCartResponse{Message: res.Message, Count: res.Count})
	}
}

// clearCart
//
//	@Summary	Очистить корзину
//	@Tags		cart
//	@Success	204
//	@Failure	500	{object}	ErrorResponse
//	@Router		/cart [delete]
func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	if err := c.cartUsecase.ClearCart(r.Context(), sess.ID); err != nil {
		c.logger.Errorf(err, "clear cart failed for session %s", sess.ID)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
