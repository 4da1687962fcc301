package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type adminFixture struct {
	uc      *AdminUseCase
	store   *memStore
	images  *fakeImages
	outbox  *fakeOutbox
	catalog *stubCatalog
}

// failingTx откатывает изменения, возвращая ошибку после fn.
type failingTx struct{ err error }

func (f failingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return f.err
}

func newAdminFixture(tx TxManager) *adminFixture {
	f := &adminFixture{
		store:   newMemStore(),
		images:  &fakeImages{},
		outbox:  &fakeOutbox{},
		catalog: &stubCatalog{},
	}
	f.uc = NewAdminUC(f.store, f.images, f.outbox, tx, f.catalog, 2<<20, logger.Nop{})
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func validReq() *UpsertProductReq {
	return &UpsertProductReq{
		Name:     "J'adore",
		Brand:    "Dior",
		Category: "Parfum",
		Price:    decimal.RequireFromString("399.500"),
		Stock:    12,
		IsNew:    true,
		Image:    NewProductImage([]byte("png-bytes"), "image/png", "jadore.png"),
	}
}

func TestDashboard_Stats(t *testing.T) {
	f := newAdminFixture(inlineTx{})
	f.store.put("users", "u1", map[string]any{"email": "a@mail.tn", "name": "A"})
	f.store.put("users", "u2", map[string]any{"email": "b@mail.tn", "role": "admin"})
	f.store.put("products", "p1", map[string]any{"name": "P", "price": 10})
	f.store.put("orders", "o1", map[string]any{"total": 100.5, "status": "delivered"})
	f.store.put("orders", "o2", map[string]any{"total": 20})

	d := f.uc.Dashboard(context.Background())

	assert.Equal(t, 2, d.Stats.Users)
	assert.Equal(t, 1, d.Stats.Products)
	assert.Equal(t, 2, d.Stats.Orders)
	assert.Equal(t, "120.500 TND", domain.FormatPrice(d.Stats.Revenue))
	assert.Equal(t, domain.RoleClient, d.Users[0].Role)
	assert.Equal(t, "u1", d.Users[0].UID)
	assert.Equal(t, "pending", d.Orders[1].Status)
}

func TestDashboard_StoreFailureGivesZeroDashboard(t *testing.T) {
	f := newAdminFixture(inlineTx{})
	f.store.listErr = errors.New("permission denied")

	d := f.uc.Dashboard(context.Background())

	assert.Zero(t, d.Stats.Users)
	assert.True(t, d.Stats.Revenue.IsZero())
	assert.Empty(t, d.Users)
	assert.NotNil(t, d.Products)
}

func TestCreateProduct_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *UpsertProductReq)
		want   error
	}{
		{"blank name", func(r *UpsertProductReq) { r.Name = "  " }, e.ErrProductNameRequired},
		{"negative price", func(r *UpsertProductReq) { r.Price = decimal.NewFromInt(-1) }, e.ErrInvalidPrice},
		{"too precise price", func(r *UpsertProductReq) { r.Price = decimal.RequireFromString("1.0005") }, e.ErrPricePrecision},
		{"negative stock", func(r *UpsertProductReq) { r.Stock = -3 }, e.ErrInvalidStock},
		{"no image", func(r *UpsertProductReq) { r.Image = nil }, e.ErrNoImages},
		{"image too large", func(r *UpsertProductReq) { r.Image.Data = make([]byte, 2<<20+1) }, e.ErrFileTooLarge},
		{"unsupported type", func(r *UpsertProductReq) { r.Image.MimeType = "image/gif" }, e.ErrUnsupportedMediaType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAdminFixture(inlineTx{})
			req := validReq()
			tc.mutate(req)

			_, err := f.uc.CreateProduct(context.Background(), req)

			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.images.uploaded)
			assert.Empty(t, f.outbox.events)
		})
	}
}

func TestCreateProduct_Success(t *testing.T) {
	f := newAdminFixture(inlineTx{})

	product, err := f.uc.CreateProduct(context.Background(), validReq())
	require.NoError(t, err)

	assert.Equal(t, domain.ProductID("doc-1"), product.ID)
	assert.Equal(t, "http://cdn/img-1", product.Image)
	assert.Equal(t, fixedNow, *product.CreatedAt)

	fields, ok := f.store.fields("products", "doc-1")
	require.True(t, ok)
	assert.Equal(t, "J'adore", fields["name"])
	assert.Equal(t, 399.5, fields["price"])
	assert.Equal(t, 12, fields["stock"])
	assert.Equal(t, fixedNow, fields["createdAt"])

	require.Len(t, f.outbox.events, 1)
	event := f.outbox.events[0]
	assert.Equal(t, ProductCreated, event.EventType)
	assert.Equal(t, "doc-1", event.ProductID)
	assert.Equal(t, Pending, event.Status)

	var payload structpb.Struct
	require.NoError(t, proto.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "doc-1", payload.Fields["productId"].GetStringValue())
	assert.Equal(t, "J'adore", payload.Fields["product"].GetStructValue().Fields["name"].GetStringValue())

	assert.Equal(t, int32(1), f.catalog.invalidated.Load())
}

func TestCreateProduct_ExistingImageURL(t *testing.T) {
	f := newAdminFixture(inlineTx{})
	req := validReq()
	req.Image = nil
	req.ImageURL = "assets/jadore.jpg"

	product, err := f.uc.CreateProduct(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "assets/jadore.jpg", product.Image)
	assert.Empty(t, f.images.uploaded)
}

func TestCreateProduct_TxFailureCleansUpImage(t *testing.T) {
	f := newAdminFixture(failingTx{err: errors.New("commit failed")})

	_, err := f.uc.CreateProduct(context.Background(), validReq())

	require.Error(t, err)
	assert.Equal(t, []string{"img-1"}, f.images.cleaned)
	assert.Zero(t, f.catalog.invalidated.Load())
}

func TestUpdateProduct_KeepsCurrentImage(t *testing.T) {
	f := newAdminFixture(inlineTx{})
	created := fixedNow.Add(-time.Hour)
	f.store.put("products", "p1", map[string]any{
		"name": "Old", "price": 10, "image": "assets/old.jpg", "createdAt": created,
	})

	req := validReq()
	req.Image = nil

	product, err := f.uc.UpdateProduct(context.Background(), "p1", req)
	require.NoError(t, err)

	assert.Equal(t, "assets/old.jpg", product.Image)
	require.NotNil(t, product.CreatedAt)
	assert.True(t, created.Equal(*product.CreatedAt))

	fields, _ := f.store.fields("products", "p1")
	assert.Equal(t, "J'adore", fields["name"])
	assert.Equal(t, created, fields["createdAt"])

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, ProductUpdated, f.outbox.events[0].EventType)
	assert.Equal(t, int32(1), f.catalog.invalidated.Load())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newAdminFixture(inlineTx{})

	_, err := f.uc.UpdateProduct(context.Background(), "missing", validReq())

	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.Empty(t, f.images.uploaded)
}

func TestDeleteProduct(t *testing.T) {
	f := newAdminFixture(inlineTx{})
	f.store.put("products", "p1", map[string]any{"name": "Old", "price": 10})

	require.NoError(t, f.uc.DeleteProduct(context.Background(), "p1"))

	_, ok := f.store.fields("products", "p1")
	assert.False(t, ok)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, ProductDeleted, f.outbox.events[0].EventType)

	assert.ErrorIs(t, f.uc.DeleteProduct(context.Background(), "p1"), e.ErrProductNotFound)
}

func TestGetProduct_RequiresID(t *testing.T) {
	f := newAdminFixture(inlineTx{})

	_, err := f.uc.GetProduct(context.Background(), " ")

	assert.ErrorIs(t, err, e.ErrProductIDRequired)
}
