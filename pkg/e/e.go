package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Источники каталога
	ErrSourceUnavailable = fmt.Errorf("catalog source unavailable")
	ErrEmptySource       = fmt.Errorf("catalog source returned no products")
	ErrInvalidPayload    = fmt.Errorf("catalog source returned invalid payload")

	// Хранилище документов
	ErrDocumentNotFound = fmt.Errorf("document not found")

	// Корзина
	ErrSlotWriteFailed = fmt.Errorf("cart slot write failed")

	// Аутентификация
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrEmailExists        = fmt.Errorf("email already registered")
	ErrWeakPassword       = fmt.Errorf("password is too weak")
	ErrIdentityProvider   = fmt.Errorf("identity provider failure")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 3 decimal places")
	ErrInvalidStock         = fmt.Errorf("stock must be a non-negative integer")
	ErrNoImages             = fmt.Errorf("no image provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrProductIDRequired    = fmt.Errorf("product id is required")

	// 401 / 403
	ErrUnauthorized = fmt.Errorf("authentication required")
	ErrForbidden    = fmt.Errorf("admin access required")

	// 404
	ErrProductNotFound = fmt.Errorf("product not found")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
