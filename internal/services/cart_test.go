package services

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grocer/internal/models"
)

func testProduct(name string, variants ...models.ProductVariant) models.Product {
	p := models.Product{
		Name:     name,
		Slug:     name,
		Brand:    models.DefaultBrand,
		Images:   []string{"https://cdn.example.com/" + name + ".jpg"},
		Variants: variants,
	}
	p.ID = uuid.New()
	for i := range p.Variants {
		p.Variants[i].ProductID = p.ID
	}
	return p
}

func testVariant(unit, price string) models.ProductVariant {
	return models.ProductVariant{Unit: unit, Price: dec(price), StockQty: 20, Packaging: "pack"}
}

func newCartFixture() (*CartService, *memCartStore, models.Product, models.Product) {
	apples := testProduct("apples", testVariant("1kg", "4.50"), testVariant("500g", "2.50"))
	milk := testProduct("milk", testVariant("1l", "1.20"))

	store := newMemCartStore()
	return NewCartService(store, newMemProductStore(apples, milk)), store, apples, milk
}

func TestCartServiceGetWithoutCart(t *testing.T) {
	svc, _, _, _ := newCartFixture()
	user := uuid.New()

	view, err := svc.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user, view.User)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
	assert.Nil(t, view.UpdatedAt)
}

func TestCartServiceAddItem(t *testing.T) {
	ctx := context.Background()
	svc, _, apples, milk := newCartFixture()
	user := uuid.New()

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1KG", Quantity: 1})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, user, AddItemInput{ProductID: milk.ID, Unit: "1l", Quantity: 4})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "apples", view.Items[0].Name)
	assert.Equal(t, apples.Images[0], view.Items[0].Image)
	assert.Equal(t, "1kg", view.Items[0].SelectedVariant.Unit)
	assert.True(t, dec("13.50").Equal(view.Items[0].LineTotal))
	assert.True(t, dec("18.30").Equal(view.Subtotal))
	assert.NotNil(t, view.UpdatedAt)
}

func TestCartServiceAddItemErrors(t *testing.T) {
	svc, _, apples, _ := newCartFixture()

	tests := []struct {
		name    string
		in      AddItemInput
		wantErr error
	}{
		{name: "zero quantity", in: AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 0}, wantErr: ErrInvalidQuantity},
		{name: "negative quantity", in: AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: -2}, wantErr: ErrInvalidQuantity},
		{name: "unknown product", in: AddItemInput{ProductID: uuid.New(), Unit: "1kg", Quantity: 1}, wantErr: ErrProductNotFound},
		{name: "unknown unit", in: AddItemInput{ProductID: apples.ID, Unit: "2kg", Quantity: 1}, wantErr: ErrVariantNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(context.Background(), uuid.New(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartServiceUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, apples, milk := newCartFixture()
	user := uuid.New()

	_, err := svc.UpdateQuantity(ctx, user, apples.ID, "1kg", 2)
	require.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, user, milk.ID, "1l", 2)
	require.ErrorIs(t, err, ErrCartItemNotFound)

	view, err := svc.UpdateQuantity(ctx, user, apples.ID, "1kg", 5)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)

	view, err = svc.UpdateQuantity(ctx, user, apples.ID, "1kg", 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartServiceRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, apples, milk := newCartFixture()
	user := uuid.New()

	_, err := svc.RemoveItem(ctx, user, apples.ID, "1kg")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: milk.ID, Unit: "1l", Quantity: 1})
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, user, apples.ID, "1kg")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	version := store.carts[user].Version
	view, err = svc.RemoveItem(ctx, user, apples.ID, "1kg")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, version, store.carts[user].Version)
}

func TestCartServiceClear(t *testing.T) {
	ctx := context.Background()
	svc, _, apples, _ := newCartFixture()
	user := uuid.New()

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "500g", Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, user))

	view, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.Equal(decimal.Zero))
}

func TestCartServiceStoreErrors(t *testing.T) {
	ctx := context.Background()
	svc, store, apples, _ := newCartFixture()
	user := uuid.New()

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.NoError(t, err)

	store.clearErr = errors.New("disk full")
	err = svc.Clear(ctx, user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	store.saveErr = errors.New("disk full")
	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCartConflict)
}

func TestCartServiceStaleWriteConflicts(t *testing.T) {
	ctx := context.Background()
	svc, store, apples, _ := newCartFixture()
	user := uuid.New()

	_, err := svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.NoError(t, err)

	stale, err := store.Load(ctx, user)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, user, AddItemInput{ProductID: apples.ID, Unit: "1kg", Quantity: 1})
	require.NoError(t, err)

	stale.SetQuantity(apples.ID, "1kg", 9)
	err = svc.save(ctx, stale)
	assert.ErrorIs(t, err, ErrCartConflict)
}
