package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRetry = jitter.Policy{Attempts: 3, Base: time.Millisecond, Max: 5 * time.Millisecond}

func newCartFixture() (*CartUseCase, *memSlot, *recordingNotifier) {
	slot := newMemSlot()
	notifier := &recordingNotifier{}
	catalog := &stubCatalog{products: fallbackProducts()}

	return NewCartUC(slot, notifier, catalog, "/login.html", testRetry, logger.Nop{}), slot, notifier
}

func loggedInSession(id string) *auth.Session {
	sess := auth.NewSession(id)
	sess.Tracker.Notify(&domain.User{UID: "u-" + id, Email: id + "@mail.tn"})
	return sess
}

func TestGetCart_AbsentCorruptOrUnreadable(t *testing.T) {
	uc, slot, _ := newCartFixture()
	ctx := context.Background()

	assert.Empty(t, uc.GetCart(ctx, "s1"))

	slot.values["s1"] = "{not json"
	assert.Empty(t, uc.GetCart(ctx, "s1"))

	slot.values["s1"] = "null"
	assert.NotNil(t, uc.GetCart(ctx, "s1"))
	assert.Empty(t, uc.GetCart(ctx, "s1"))

	slot.values["s1"] = `[{"id":"1","quantity":0}]`
	assert.Empty(t, uc.GetCart(ctx, "s1"))

	slot.getErr = errors.New("redis down")
	assert.Empty(t, uc.GetCart(ctx, "s1"))
}

func TestGetCart_AcceptsNumericIDs(t *testing.T) {
	uc, slot, _ := newCartFixture()
	slot.values["s1"] = `[{"id":1,"name":"La Vie Est Belle","price":345,"image":"a.webp","quantity":2}]`

	cart := uc.GetCart(context.Background(), "s1")

	require.Len(t, cart, 1)
	assert.Equal(t, domain.ProductID("1"), cart[0].ID)
	assert.Equal(t, 2, uc.Count(context.Background(), "s1"))
}

func TestAddToCart_LoginRequired(t *testing.T) {
	uc, slot, notifier := newCartFixture()
	sess := auth.NewSession("s1")
	sess.Tracker.Resolve(nil)

	res, err := uc.AddToCart(context.Background(), sess, "1", "/produits.html")

	require.NoError(t, err)
	assert.Equal(t, OutcomeLoginRequired, res.Outcome)
	assert.Equal(t, "Vous devez vous connecter pour ajouter des produits au panier.", res.Message)
	assert.Equal(t, "/login.html?redirect=%2Fproduits.html", res.LoginURL)
	assert.Zero(t, slot.sets)
	assert.Empty(t, notifier.records)
}

func TestAddToCart_WaitsForAuthReadiness(t *testing.T) {
	uc, _, _ := newCartFixture()
	sess := auth.NewSession("s1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		sess.Tracker.Notify(&domain.User{UID: "u1"})
	}()

	res, err := uc.AddToCart(context.Background(), sess, "1", "/")

	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, res.Outcome)
}

func TestAddToCart_ContextCancelledWhileWaiting(t *testing.T) {
	uc, slot, _ := newCartFixture()
	sess := auth.NewSession("s1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := uc.AddToCart(ctx, sess, "1", "/")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, slot.sets)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	uc, slot, _ := newCartFixture()

	res, err := uc.AddToCart(context.Background(), loggedInSession("s1"), "999", "/")

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnavailable, res.Outcome)
	assert.Equal(t, "Produit indisponible pour le moment.", res.Message)
	assert.Zero(t, slot.sets)
}

func TestAddToCart_IncrementsExistingItem(t *testing.T) {
	uc, _, notifier := newCartFixture()
	sess := loggedInSession("s1")
	ctx := context.Background()

	res, err := uc.AddToCart(ctx, sess, "2", "/")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, res.Outcome)
	assert.Equal(t, "Produit ajouté au panier !", res.Message)
	assert.Equal(t, 1, res.Count)

	res, err = uc.AddToCart(ctx, sess, "2", "/")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	_, err = uc.AddToCart(ctx, sess, "5", "/")
	require.NoError(t, err)

	cart := uc.GetCart(ctx, "s1")
	require.Len(t, cart, 2)
	assert.Equal(t, domain.ProductID("2"), cart[0].ID)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, "Rouge Dior Lipstick", cart[0].Name)
	assert.True(t, decimal.NewFromInt(145).Equal(cart[0].Price))
	assert.Equal(t, 1, cart[1].Quantity)

	last, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, countRecord{sessionID: "s1", count: 3}, last)
}

func TestAddToCart_UnreadableSlotKeepsStoredCart(t *testing.T) {
	uc, slot, notifier := newCartFixture()
	stored := `[{"id":"2","name":"Rouge Dior Lipstick","price":145,"image":"a.jpg","quantity":4},` +
		`{"id":"3","name":"Advanced Night Repair","price":420,"image":"b.jpg","quantity":2}]`
	slot.values["s1"] = stored
	slot.getErr = errors.New("redis: i/o timeout")

	res, err := uc.AddToCart(context.Background(), loggedInSession("s1"), "1", "/")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Zero(t, slot.sets)
	assert.Equal(t, stored, slot.values["s1"])
	assert.Empty(t, notifier.records)

	slot.getErr = nil
	assert.Equal(t, 6, uc.Count(context.Background(), "s1"))
}

func TestSaveCart_RetriesTransientFailures(t *testing.T) {
	uc, slot, notifier := newCartFixture()
	slot.failSets = 2

	cart := domain.Cart{}.Add(fallbackProducts()[0])
	require.NoError(t, uc.SaveCart(context.Background(), "s1", cart))

	assert.Equal(t, 3, slot.sets)
	last, _ := notifier.last()
	assert.Equal(t, 1, last.count)
}

func TestSaveCart_ExhaustedRetriesStillPublishCount(t *testing.T) {
	uc, slot, notifier := newCartFixture()
	slot.values["s1"] = `[{"id":"3","name":"Advanced Night Repair","price":420,"image":"a.jpg","quantity":4}]`
	slot.failSets = 10

	err := uc.SaveCart(context.Background(), "s1", domain.Cart{})

	assert.ErrorIs(t, err, e.ErrSlotWriteFailed)
	assert.Equal(t, testRetry.Attempts, slot.sets)

	last, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, 4, last.count)
	assert.Equal(t, 4, uc.Count(context.Background(), "s1"))
}

func TestClearCart(t *testing.T) {
	uc, _, notifier := newCartFixture()
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, loggedInSession("s1"), "1", "/")
	require.NoError(t, err)

	require.NoError(t, uc.ClearCart(ctx, "s1"))

	assert.Zero(t, uc.Count(ctx, "s1"))
	last, _ := notifier.last()
	assert.Zero(t, last.count)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login.html?redirect=%2F", LoginURL("/login.html", ""))
	assert.Equal(t, "/login.html?redirect=%2Fpanier.html%3Fa%3D1", LoginURL("/login.html", "/panier.html?a=1"))
}
