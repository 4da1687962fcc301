package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cookieName = "sid"
	sessionID  = "0b6c3d2e-8f7a-4c55-9d5e-2f1a3b4c5d6e"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000")

type stubCatalog struct {
	products []domain.Product
}

func (s *stubCatalog) LoadCatalog(context.Context) []domain.Product { return s.products }

func (s *stubCatalog) FindProduct(_ context.Context, id any) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == domain.NormalizeID(id) {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *stubCatalog) NewArrivals(_ context.Context, limit int) []domain.Product {
	if limit > 0 && limit < len(s.products) {
		return s.products[:limit]
	}
	return s.products
}

func (s *stubCatalog) Invalidate() {}

type stubCart struct {
	mu     sync.Mutex
	carts  map[string]domain.Cart
	addRes *usecase.AddToCartRes
}

func (s *stubCart) GetCart(_ context.Context, id string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[id]
}

func (s *stubCart) SaveCart(_ context.Context, id string, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[id] = cart
	return nil
}

func (s *stubCart) AddToCart(context.Context, *auth.Session, string, string) (*usecase.AddToCartRes, error) {
	return s.addRes, nil
}

func (s *stubCart) Count(ctx context.Context, id string) int { return s.GetCart(ctx, id).Count() }

func (s *stubCart) ClearCart(ctx context.Context, id string) error {
	return s.SaveCart(ctx, id, domain.Cart{})
}

type stubAuth struct {
	loginErr error
}

func (s *stubAuth) Login(_ context.Context, sess *auth.Session, email, _ string) (*domain.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	user := &domain.User{UID: "u1", Email: email, Role: domain.RoleClient}
	sess.Tracker.Notify(user)
	return user, nil
}

func (s *stubAuth) Register(_ context.Context, sess *auth.Session, email, _, name string) (*domain.User, error) {
	user := &domain.User{UID: "u2", Email: email, Name: name, Role: domain.RoleClient}
	sess.Tracker.Notify(user)
	return user, nil
}

func (s *stubAuth) Logout(_ context.Context, sess *auth.Session) { sess.Tracker.Notify(nil) }

func (s *stubAuth) RequireAuth(ctx context.Context, sess *auth.Session, returnTo string) (*usecase.AuthCheckRes, error) {
	if err := sess.Tracker.Wait(ctx); err != nil {
		return nil, err
	}
	if user := sess.Tracker.CurrentUser(); user != nil {
		return &usecase.AuthCheckRes{Allowed: true, User: user}, nil
	}
	return &usecase.AuthCheckRes{LoginURL: usecase.LoginURL("/login.html", returnTo)}, nil
}

type stubAdmin struct {
	created *usecase.UpsertProductReq
}

func (s *stubAdmin) Dashboard(context.Context) *usecase.Dashboard {
	return &usecase.Dashboard{Stats: usecase.Stats{Users: 2, Revenue: decimal.RequireFromString("120.5")}}
}

func (s *stubAdmin) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if id != "p1" {
		return nil, e.ErrProductNotFound
	}
	return &domain.Product{ID: "p1", Name: "Sauvage"}, nil
}

func (s *stubAdmin) CreateProduct(_ context.Context, req *usecase.UpsertProductReq) (*domain.Product, error) {
	s.created = req
	return &domain.Product{ID: "new", Name: req.Name, Price: req.Price}, nil
}

func (s *stubAdmin) UpdateProduct(context.Context, string, *usecase.UpsertProductReq) (*domain.Product, error) {
	return nil, e.ErrProductNotFound
}

func (s *stubAdmin) DeleteProduct(context.Context, string) error { return nil }

// stubSessions выдаёт сессии с заранее определённым пользователем.
type stubSessions struct {
	mu       sync.Mutex
	user     *domain.User
	sessions map[string]*auth.Session
}

func (s *stubSessions) Open(id, _ string) *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = auth.NewSession(id)
		sess.Tracker.Resolve(s.user)
		s.sessions[id] = sess
	}
	return sess
}

// Get считает сессию вошедшего пользователя уже зарегистрированной.
func (s *stubSessions) Get(id string) (*auth.Session, bool) {
	if s.user == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		sess, ok := s.sessions[id]
		return sess, ok
	}
	return s.Open(id, ""), true
}

type fixture struct {
	handler http.Handler
	cart    *stubCart
	auth    *stubAuth
	admin   *stubAdmin
}

func newFixture(user *domain.User) *fixture {
	f := &fixture{
		cart:  &stubCart{carts: map[string]domain.Cart{}},
		auth:  &stubAuth{},
		admin: &stubAdmin{},
	}

	r := chi.NewRouter()
	NewRouter(r, logger.Nop{}).Init(Deps{
		Catalog: &stubCatalog{products: []domain.Product{
			{ID: "1", Name: "La Vie Est Belle", Price: decimal.NewFromInt(345), IsNew: true},
			{ID: "2", Name: "Rouge Dior", Price: decimal.NewFromInt(145)},
		}},
		Cart:         f.cart,
		Auth:         f.auth,
		Admin:        f.admin,
		Sessions:     &stubSessions{user: user, sessions: map[string]*auth.Session{}},
		CookieName:   cookieName,
		MaxImageSize: 64,
		SwaggerURL:   "/swagger/doc.json",
	})
	f.handler = r
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func productForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "img.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestProducts(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 2)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/new?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 1)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/new?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rouge Dior", decode[domain.Product](t, rec).Name)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	f := newFixture(nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/cart/count", nil))
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionMiddleware_GuestReadsAreNotRegistered(t *testing.T) {
	registry := auth.NewRegistry(nil, time.Second, 0, logger.Nop{})

	var seen *auth.Session
	h := SessionMiddleware(registry, cookieName)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sessionFromCtx(r.Context())
	}))

	for i := 0; i < 1000; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart/count", nil))
	}
	assert.Zero(t, registry.Len())
	require.NotNil(t, seen)
	assert.False(t, seen.Tracker.LoggedIn())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))
	assert.Equal(t, 1, registry.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/count", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, registry.Len())
	registered, ok := registry.Get(cookies[0].Value)
	require.True(t, ok)
	assert.Same(t, registered, seen)
}

func TestCart(t *testing.T) {
	f := newFixture(nil)
	f.cart.carts[sessionID] = domain.Cart{
		{ID: "1", Name: "La Vie Est Belle", Price: decimal.NewFromInt(345), Quantity: 2},
	}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[CartResponse](t, rec)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "690.000 TND", res.TotalFormatted)

	rec = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.cart.carts[sessionID])
}

func TestAddItem_Outcomes(t *testing.T) {
	cases := []struct {
		name string
		res  *usecase.AddToCartRes
		code int
	}{
		{"added", &usecase.AddToCartRes{Outcome: usecase.OutcomeAdded, Message: "ok", Count: 3}, http.StatusOK},
		{"login required", &usecase.AddToCartRes{Outcome: usecase.OutcomeLoginRequired, Message: "login", LoginURL: "/login.html?redirect=%2F"}, http.StatusUnauthorized},
		{"unavailable", &usecase.AddToCartRes{Outcome: usecase.OutcomeUnavailable, Message: "indisponible"}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil)
			f.cart.addRes = tc.res

			rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"1"}`)))

			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusUnauthorized {
				assert.Equal(t, tc.res.LoginURL, decode[ErrorResponse](t, rec).LoginURL)
			}
		})
	}
}

func TestAddItem_BadBody(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":" "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me?returnTo=/panier.html", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login.html?redirect=%2Fpanier.html", decode[ErrorResponse](t, rec).LoginURL)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@mail.tn","password":"x"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", decode[UserResponse](t, rec).User.UID)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(nil)
	f.auth.loginErr = e.Wrap("AuthUseCase.Login", e.ErrInvalidCredentials)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@mail.tn","password":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGate(t *testing.T) {
	rec := newFixture(nil).do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).LoginURL)

	rec = newFixture(&domain.User{UID: "c1", Role: domain.RoleClient}).do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = newFixture(&domain.User{UID: "a1", Role: domain.RoleAdmin}).do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[DashboardResponse](t, rec)
	assert.Equal(t, 2, res.Stats.Users)
	assert.Equal(t, "120.500 TND", res.Stats.RevenueFormatted)
}

func TestAdminProducts(t *testing.T) {
	admin := &domain.User{UID: "a1", Role: domain.RoleAdmin}

	t.Run("create", func(t *testing.T) {
		f := newFixture(admin)
		body, ct := productForm(t, map[string]string{"name": "Sauvage", "price": "380.500", "stock": "4", "isNew": "on"}, pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body)
		req.Header.Set("Content-Type", ct)

		rec := f.do(t, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, f.admin.created)
		assert.True(t, f.admin.created.IsNew)
		assert.Equal(t, 4, f.admin.created.Stock)
		require.NotNil(t, f.admin.created.Image)
		assert.Equal(t, "image/png", f.admin.created.Image.MimeType)
	})

	t.Run("image too large", func(t *testing.T) {
		f := newFixture(admin)
		body, ct := productForm(t, map[string]string{"name": "Sauvage", "price": "1"}, bytes.Repeat([]byte("a"), 65))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body)
		req.Header.Set("Content-Type", ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, f.do(t, req).Code)
	})

	t.Run("missing price", func(t *testing.T) {
		f := newFixture(admin)
		body, ct := productForm(t, map[string]string{"name": "Sauvage"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body)
		req.Header.Set("Content-Type", ct)

		assert.Equal(t, http.StatusBadRequest, f.do(t, req).Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		f := newFixture(admin)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		assert.Equal(t, http.StatusBadRequest, f.do(t, req).Code)
	})

	t.Run("get and delete", func(t *testing.T) {
		f := newFixture(admin)

		assert.Equal(t, http.StatusOK, f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/p1", nil)).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/zz", nil)).Code)
		assert.Equal(t, http.StatusNoContent, f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/p1", nil)).Code)
	})
}

func TestToHTTPResponse(t *testing.T) {
	cases := map[error]int{
		e.ErrPricePrecision:       http.StatusBadRequest,
		e.ErrFileTooLarge:         http.StatusRequestEntityTooLarge,
		e.ErrUnsupportedMediaType: http.StatusUnsupportedMediaType,
		e.ErrEmailExists:          http.StatusConflict,
		e.ErrForbidden:            http.StatusForbidden,
		e.ErrSlotWriteFailed:      http.StatusInternalServerError,
	}

	for err, want := range cases {
		code, _ := ToHTTPResponse(e.Wrap("op", err))
		assert.Equal(t, want, code, err.Error())
	}
}

func TestReturnTo_RejectsForeignHosts(t *testing.T) {
	assert.Equal(t, "/panier.html", returnTo(httptest.NewRequest(http.MethodGet, "/x?returnTo=/panier.html", nil)))
	assert.Equal(t, "/", returnTo(httptest.NewRequest(http.MethodGet, "/x?returnTo=//evil.example", nil)))
	assert.Equal(t, "/", returnTo(httptest.NewRequest(http.MethodGet, "/x?returnTo=https://evil.example", nil)))
}
