package http

import (
	_ "github.com/DRSN-tech/storefront/docs" // Импорт описания swagger
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Deps собирает зависимости обработчиков /api/v1.
type Deps struct {
	Catalog      usecase.CatalogUC
	Cart         usecase.CartUC
	Auth         usecase.AuthUC
	Admin        usecase.AdminUC
	Sessions     SessionOpener
	CookieName   string
	MaxImageSize int64
	SwaggerURL   string
}

func (r *Router) Init(d Deps) {
	r.router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(d.SwaggerURL), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerCatalogRoutes(v1, NewCatalogHandler(d.Catalog, r.logger))

		v1.Group(func(s chi.Router) {
			s.Use(SessionMiddleware(d.Sessions, d.CookieName))

			registerCartRoutes(s, NewCartHandler(d.Cart, r.logger))
			registerAuthRoutes(s, NewAuthHandler(d.Auth, r.logger))

			s.Route("/admin", func(adm chi.Router) {
				adm.Use(AdminOnly(d.Auth))
				registerAdminRoutes(adm, NewAdminHandler(d.Admin, d.MaxImageSize, r.logger))
			})
		})
	})
}

func registerCatalogRoutes(router chi.Router, h *CatalogHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Get("/new", h.newArrivals)
		pr.Get("/{id}", h.getProduct)
	})
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart", func(c chi.Router) {
		c.Get("/", h.getCart)
		c.Delete("/", h.clearCart)
		c.Get("/count", h.getCount)
		c.Post("/items", h.addItem)
	})
}

func registerAuthRoutes(router chi.Router, h *AuthHandler) {
	router.Route("/auth", func(a chi.Router) {
		a.Post("/login", h.login)
		a.Post("/register", h.register)
		a.Post("/logout", h.logout)
		a.Get("/me", h.me)
	})
}

func registerAdminRoutes(router chi.Router, h *AdminHandler) {
	router.Get("/dashboard", h.dashboard)
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", h.createProduct)
		pr.Get("/{id}", h.getProduct)
		pr.Put("/{id}", h.updateProduct)
		pr.Delete("/{id}", h.deleteProduct)
	})
}
