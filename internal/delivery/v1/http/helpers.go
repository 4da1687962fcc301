package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	LoginURL string `json:"loginUrl,omitempty"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

var badRequestErrs = []error{
	e.ErrStatusBadRequest,
	e.ErrExpectedMultipart,
	e.ErrMissingFields,
	e.ErrProductNameRequired,
	e.ErrInvalidPrice,
	e.ErrPricePrecision,
	e.ErrInvalidStock,
	e.ErrNoImages,
	e.ErrProductIDRequired,
	e.ErrWeakPassword,
}

func ToHTTPResponse(err error) (int, string) {
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	switch {
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, e.ErrInvalidCredentials.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, e.ErrForbidden.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrEmailExists):
		return http.StatusConflict, e.ErrEmailExists.Error()
	case errors.Is(err, e.ErrIdentityProvider):
		return http.StatusBadGateway, e.ErrIdentityProvider.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

// WriteLoginRequired отвечает 401 со ссылкой на страницу входа.
func WriteLoginRequired(w http.ResponseWriter, message, loginURL string) {
	WriteSuccess(w, http.StatusUnauthorized, &ErrorResponse{
		Code:     http.StatusUnauthorized,
		Message:  message,
		LoginURL: loginURL,
	})
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	const maxBody = 1 << 20

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}
	return nil
}

// returnTo берёт относительный адрес возврата после входа из query.
func returnTo(r *http.Request) string {
	if v := r.URL.Query().Get("returnTo"); strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
		return v
	}
	return "/"
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}
	return nil
}

// parseProductForm собирает UpsertProductReq из полей формы и файла "image".
func parseProductForm(r *http.Request, maxImageSize int64) (*usecase.UpsertProductReq, error) {
	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := strings.TrimSpace(r.FormValue("price"))

	if name == "" || priceStr == "" {
		return nil, e.Wrap("name: "+name+", price: "+priceStr, e.ErrMissingFields)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, e.Wrap(priceStr, e.ErrInvalidPrice)
	}

	stock := 0
	if s := strings.TrimSpace(r.FormValue("stock")); s != "" {
		stock, err = strconv.Atoi(s)
		if err != nil {
			return nil, e.Wrap(s, e.ErrInvalidStock)
		}
	}

	req := &usecase.UpsertProductReq{
		Name:        name,
		Brand:       strings.TrimSpace(r.FormValue("brand")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Price:       price,
		Stock:       stock,
		Description: strings.TrimSpace(r.FormValue("description")),
		IsNew:       parseCheckbox(r.FormValue("isNew")),
		ImageURL:    strings.TrimSpace(r.FormValue("imageUrl")),
	}

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			image, err := readImage(files[0], maxImageSize)
			if err != nil {
				return nil, err
			}
			req.Image = image
		}
	}

	return req, nil
}

func parseCheckbox(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func readImage(fh *multipart.FileHeader, maxSize int64) (*usecase.ProductImage, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return usecase.NewProductImage(data, mimeType, fh.Filename), nil
}
