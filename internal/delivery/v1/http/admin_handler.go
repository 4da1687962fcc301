package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	adminUsecase usecase.AdminUC
	maxImageSize int64
	logger       logger.Logger
}

func NewAdminHandler(adminUsecase usecase.AdminUC, maxImageSize int64, logger logger.Logger) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase, maxImageSize: maxImageSize, logger: logger}
}

type StatsResponse struct {
	Users            int             `json:"users"`
	Products         int             `json:"products"`
	Orders           int             `json:"orders"`
	Revenue          decimal.Decimal `json:"revenue"`
	RevenueFormatted string          `json:"revenueFormatted"`
}

type DashboardResponse struct {
	Stats    StatsResponse    `json:"stats"`
	Users    []domain.User    `json:"users"`
	Products []domain.Product `json:"products"`
	Orders   []domain.Order   `json:"orders"`
}

// dashboard
//
//	@Summary		Сводка админ-панели
//	@Description	При недоступности хранилища возвращает нулевую сводку
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	DashboardResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Router			/admin/dashboard [get]
func (a *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	d := a.adminUsecase.Dashboard(r.Context())

	WriteSuccess(w, http.StatusOK, &DashboardResponse{
		Stats: StatsResponse{
			Users:            d.Stats.Users,
			Products:         d.Stats.Products,
			Orders:           d.Stats.Orders,
			Revenue:          d.Stats.Revenue,
			RevenueFormatted: domain.FormatPrice(d.Stats.Revenue),
		},
		Users:    d.Users,
		Products: d.Products,
		Orders:   d.Orders,
	})
}

// getProduct
//
//	@Summary	Товар для редактирования
//	@Tags		admin
//	@Produce	json
//	@Param		id	path		string	true	"Идентификатор документа товара"
//	@Success	200	{object}	domain.Product
//	@Failure	404	{object}	ErrorResponse
//	@Router		/admin/products/{id} [get]
func (a *AdminHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.adminUsecase.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.logWarnOrError(err, "get product")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

// createProduct
//
//	@Summary	Создание товара
//	@Tags		admin
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		name		formData	string	true	"Название"
//	@Param		brand		formData	string	false	"Бренд"
//	@Param		category	formData	string	false	"Категория"
//	@Param		price		formData	number	true	"Цена, TND, до 3 знаков"
//	@Param		stock		formData	int		false	"Остаток"
//	@Param		description	formData	string	false	"Описание"
//	@Param		isNew		formData	bool	false	"Новинка"
//	@Param		imageUrl	formData	string	false	"Уже загруженное изображение"
//	@Param		image		formData	file	false	"Изображение (jpeg, png, webp, до 2 МБ)"
//	@Success	201			{object}	domain.Product
//	@Failure	400			{object}	ErrorResponse
//	@Failure	413			{object}	ErrorResponse
//	@Failure	415			{object}	ErrorResponse
//	@Router		/admin/products [post]
func (a *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := a.parseForm(w, r)
	if !ok {
		return
	}

	product, err := a.adminUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		a.logWarnOrError(err, "create product")
		WriteError(w, err)
		return
	}

	a.logger.Infof("product %s created by %s", product.ID, adminUID(r))
	WriteSuccess(w, http.StatusCreated, product)
}

// updateProduct
//
//	@Summary	Изменение товара
//	@Tags		admin
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id			path		string	true	"Идентификатор документа товара"
//	@Param		name		formData	string	true	"Название"
//	@Param		price		formData	number	true	"Цена, TND, до 3 знаков"
//	@Param		image		formData	file	false	"Новое изображение"
//	@Success	200			{object}	domain.Product
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/admin/products/{id} [put]
func (a *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := a.parseForm(w, r)
	if !ok {
		return
	}

	product, err := a.adminUsecase.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.logWarnOrError(err, "update product")
		WriteError(w, err)
		return
	}

	a.logger.Infof("product %s updated by %s", product.ID, adminUID(r))
	WriteSuccess(w, http.StatusOK, product)
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		admin
//	@Param		id	path	string	true	"Идентификатор документа товара"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/admin/products/{id} [delete]
func (a *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.adminUsecase.DeleteProduct(r.Context(), id); err != nil {
		a.logWarnOrError(err, "delete product")
		WriteError(w, err)
		return
	}

	a.logger.Infof("product %s deleted by %s", id, adminUID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminHandler) parseForm(w http.ResponseWriter, r *http.Request) (*usecase.UpsertProductReq, bool) {
	const (
		formOverhead = 1 << 20
		maxMemory    = 8 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, a.maxImageSize+formOverhead)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		a.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return nil, false
	}

	req, err := parseProductForm(r, a.maxImageSize)
	if err != nil {
		a.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return nil, false
	}

	return req, true
}

func (a *AdminHandler) logWarnOrError(err error, action string) {
	if code, _ := ToHTTPResponse(err); code >= http.StatusInternalServerError {
		a.logger.Errorf(err, "%s failed", action)
		return
	}
	a.logger.Warnf("%s rejected: %v", action, err)
}

func adminUID(r *http.Request) string {
	if user := adminFromCtx(r.Context()); user != nil {
		return user.UID
	}
	return "unknown"
}
