package services

import (
	"context"
	"testing"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderPrependsServerOrder(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	require.NoError(t, e.cart.AddToCart(ctx, "1", 1))
	first, err := e.orders.PlaceOrder(ctx, springfield())
	require.NoError(t, err)

	require.NoError(t, e.cart.AddToCart(ctx, "2", 2))
	require.NoError(t, e.cart.AddToCart(ctx, "6", 1))
	second, err := e.orders.PlaceOrder(ctx, springfield())
	require.NoError(t, err)

	orders := e.orders.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Equal(t, "124.40", orders[0].Total.StringFixed(2))

	current, ok := e.orders.CurrentOrder()
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, "Springfield", current.Address.City)
}

func TestPlaceOrderLeavesLocalCartForCaller(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	require.NoError(t, e.cart.AddToCart(ctx, "1", 1))
	_, err := e.orders.PlaceOrder(ctx, springfield())
	require.NoError(t, err)

	assert.True(t, e.cart.InCart("1"))
	items, err := e.cart.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPlaceOrderValidatesAddress(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	require.NoError(t, e.cart.AddToCart(ctx, "1", 1))

	addr := springfield()
	addr.PostalCode = ""
	_, err := e.orders.PlaceOrder(ctx, addr)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, e.orders.Snapshot().Error, "postal_code")
	assert.Empty(t, e.orders.Orders())

	items, err := e.cart.FetchCart(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.orders.PlaceOrder(context.Background(), springfield())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "Cart is empty", e.orders.Snapshot().Error)
	_, ok := e.orders.CurrentOrder()
	assert.False(t, ok)
}

func TestFetchOrderHistoryReplacesList(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	require.NoError(t, e.cart.AddToCart(ctx, "3", 2))
	placed, err := e.orders.PlaceOrder(ctx, springfield())
	require.NoError(t, err)

	fresh := NewOrderService(e.client, nil)
	history, err := fresh.FetchOrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, placed.ID, history[0].ID)
	assert.True(t, placed.Total.Equal(history[0].Total))
	assert.Equal(t, []models.Order(history), fresh.Orders())
}
