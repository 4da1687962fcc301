package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
)

type CatalogUC interface {
	LoadCatalog(ctx context.Context) []domain.Product
	FindProduct(ctx context.Context, id any) (domain.Product, bool)
	NewArrivals(ctx context.Context, limit int) []domain.Product
	Invalidate()
}

type CartUC interface {
	GetCart(ctx context.Context, sessionID string) domain.Cart
	SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error
	AddToCart(ctx context.Context, sess *auth.Session, productID string, returnTo string) (*AddToCartRes, error)
	Count(ctx context.Context, sessionID string) int
	ClearCart(ctx context.Context, sessionID string) error
}

type AuthUC interface {
	Login(ctx context.Context, sess *auth.Session, email, password string) (*domain.User, error)
	Register(ctx context.Context, sess *auth.Session, email, password, name string) (*domain.User, error)
	Logout(ctx context.Context, sess *auth.Session)
	RequireAuth(ctx context.Context, sess *auth.Session, returnTo string) (*AuthCheckRes, error)
}

type AdminUC interface {
	Dashboard(ctx context.Context) *Dashboard
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, req *UpsertProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req *UpsertProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// SessionSource перечисляет сессии, для которых фоновые задачи обновляют активность.
type SessionSource interface {
	LoggedIn() []*auth.Session
	Sweep(maxIdle time.Duration) int
}
