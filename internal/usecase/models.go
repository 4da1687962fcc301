package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// CART USECASE

// AddOutcome — итог добавления товара в корзину.
type AddOutcome string

const (
	OutcomeAdded         AddOutcome = "added"
	OutcomeLoginRequired AddOutcome = "login_required"
	OutcomeUnavailable   AddOutcome = "unavailable"
)

const (
	msgLoginRequired = "Vous devez vous connecter pour ajouter des produits au panier."
	msgUnavailable   = "Produit indisponible pour le moment."
	msgAdded         = "Produit ajouté au panier !"
)

// AddToCartRes — результат AddToCart. LoginURL заполнен только для OutcomeLoginRequired.
type AddToCartRes struct {
	Outcome  AddOutcome
	Message  string
	LoginURL string
	Count    int
}

// AUTH USECASE

// Identity — учётная запись у провайдера аутентификации.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

// AuthCheckRes — результат проверки доступа к странице.
type AuthCheckRes struct {
	Allowed  bool
	LoginURL string
	User     *domain.User
}

// ADMIN USECASE

// Stats — сводные показатели админ-панели.
type Stats struct {
	Users    int
	Products int
	Orders   int
	Revenue  decimal.Decimal
}

type Dashboard struct {
	Stats    Stats
	Users    []domain.User
	Products []domain.Product
	Orders   []domain.Order
}

// UpsertProductReq — данные формы товара.
type UpsertProductReq struct {
	Name        string
	Brand       string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Description string
	IsNew       bool
	ImageURL    string        // уже загруженное изображение
	Image       *ProductImage // новое изображение из формы, имеет приоритет
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type, определённый по содержимому
	Name     string // оригинальное имя файла (для логов)
}

// INFRASTRUCTURE

type UploadImageReq struct {
	ProductName string
	Image       ProductImage
}

type UploadImageRes struct {
	Key string
	URL string
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product_created"
	ProductUpdated OutboxEventType = "product_updated"
	ProductDeleted OutboxEventType = "product_deleted"
)

// OutboxEvent — событие изменения каталога, ожидающее отправки в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewUploadImageReq(productName string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{ProductName: productName, Image: image}
}

func NewUploadImageRes(key, url string) *UploadImageRes {
	return &UploadImageRes{Key: key, URL: url}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{Key: key, Payload: payload}
}

func NewProductImage(data []byte, mimeType string, name string) *ProductImage {
	return &ProductImage{Data: data, MimeType: mimeType, Name: name}
}
