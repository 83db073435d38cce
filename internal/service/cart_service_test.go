package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/model"
	"github.com/Muletinha/projeto-emeece/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, kind service.ErrorKind) *service.Error {
	t.Helper()
	var se *service.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "unexpected error kind: %v", err)
	return se
}

func newCartFixture(products ...model.Product) (service.CartService, *stubCartRepo, *stubProductRepo) {
	prodRepo := newStubProductRepo(products...)
	cartRepo := newStubCartRepo()
	return service.NewCartService(cartRepo, prodRepo), cartRepo, prodRepo
}

// ── AddToCart ────────────────────────────────────────────────────────────────

func TestAddToCart_NewCartGetsGeneratedID(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))

	resp, err := svc.AddToCart(context.Background(), dto.AddToCartRequest{ProductID: 1, Qty: 2})
	require.NoError(t, err)
	assert.Equal(t, "Adicionado ao carrinho", resp.Message)
	assert.NotEmpty(t, resp.CartID)

	items, _ := carts.ListByCartTx(nil, resp.CartID)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 5, items[0].MaxQty)
	assert.Equal(t, "Caneca", items[0].ProductName)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}

func TestAddToCart_QtyBelowOneCountsAsOne(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))

	for _, qty := range []int{0, -3} {
		_, err := svc.AddToCart(context.Background(), dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: qty})
		require.NoError(t, err)
	}
	items, _ := carts.ListByCartTx(nil, "c1")
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
}

func TestAddToCart_ZeroStockAlwaysOutOfStock(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Esgotado", "5.00", 0))

	for _, qty := range []int{0, 1, 2, 100} {
		_, err := svc.AddToCart(context.Background(), dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: qty})
		requireKind(t, err, service.KindOutOfStock)
	}
	assert.Empty(t, carts.items)
}

func TestAddToCart_ExceedsStockReportsMax(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))

	_, err := svc.AddToCart(context.Background(), dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 6})
	se := requireKind(t, err, service.KindExceedsStock)
	require.NotNil(t, se.MaxQty)
	assert.Equal(t, 5, *se.MaxQty)
	assert.Empty(t, carts.items)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.AddToCart(context.Background(), dto.AddToCartRequest{CartID: "c1", ProductID: 42, Qty: 1})
	requireKind(t, err, service.KindNotFound)
}

func TestAddToCart_MergeCapsAtStockAndKeepsOneRow(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 3})
	require.NoError(t, err)

	items, _ := carts.ListByCartTx(nil, "c1")
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
	assert.Equal(t, 5, items[0].MaxQty)
}

func TestAddToCart_MergeRefreshesMaxQtyButNotPrice(t *testing.T) {
	svc, carts, products := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)

	p := products.products[1]
	p.Price = decimal.RequireFromString("12.50")
	p.StockQty = 8
	products.products[1] = p

	_, err = svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)

	items, _ := carts.ListByCartTx(nil, "c1")
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 8, items[0].MaxQty)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}

func TestAddToCart_ResultAlwaysWithinStock(t *testing.T) {
	svc, carts, products := newCartFixture(product(1, "Caneca", "1.00", 4))
	ctx := context.Background()

	for _, qty := range []int{1, 3, 2, 4, 1} {
		_, _ = svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: qty})
		for _, it := range carts.items {
			assert.GreaterOrEqual(t, it.Qty, 1)
			assert.LessOrEqual(t, it.Qty, products.stock(1))
		}
	}
}

// ── GetCart ──────────────────────────────────────────────────────────────────

func TestGetCart_EmptyCart(t *testing.T) {
	svc, _, _ := newCartFixture()

	resp, err := svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
}

func TestGetCart_TotalsAreExactAndIncludeImage(t *testing.T) {
	withImage := product(2, "Prato", "0.10", 10)
	withImage.Image = ptr("abc_prato.png")
	svc, _, _ := newCartFixture(product(1, "Caneca", "9.99", 5), withImage)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 2, Qty: 3})
	require.NoError(t, err)

	resp, err := svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	assert.Equal(t, "29.97", resp.Items[0].Subtotal.StringFixed(2))
	assert.Nil(t, resp.Items[0].Image)
	assert.Equal(t, "0.30", resp.Items[1].Subtotal.StringFixed(2))
	require.NotNil(t, resp.Items[1].Image)
	assert.Equal(t, "abc_prato.png", *resp.Items[1].Image)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("30.27")))
}

// ── UpdateCartItem ───────────────────────────────────────────────────────────

func TestUpdateCartItem_RejectsQtyBelowOne(t *testing.T) {
	svc, _, _ := newCartFixture()

	for _, qty := range []int{0, -1} {
		_, err := svc.UpdateCartItem(context.Background(), 1, qty)
		requireKind(t, err, service.KindInvalidQuantity)
	}
}

func TestUpdateCartItem_MissingItem(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.UpdateCartItem(context.Background(), 99, 1)
	requireKind(t, err, service.KindNotFound)
}

func TestUpdateCartItem_ProductVanished(t *testing.T) {
	svc, carts, products := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)
	delete(products.products, 1)

	items, _ := carts.ListByCartTx(nil, "c1")
	_, err = svc.UpdateCartItem(ctx, items[0].ID, 2)
	requireKind(t, err, service.KindNotFound)
}

func TestUpdateCartItem_ExceedsStockLeavesCartUnchanged(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 3})
	require.NoError(t, err)
	items, _ := carts.ListByCartTx(nil, "c1")

	_, err = svc.UpdateCartItem(ctx, items[0].ID, 6)
	se := requireKind(t, err, service.KindExceedsStock)
	assert.Equal(t, 5, *se.MaxQty)

	after, _ := carts.ListByCartTx(nil, "c1")
	assert.Equal(t, items, after)
}

func TestUpdateCartItem_ReturnsRecomputedTotal(t *testing.T) {
	svc, carts, products := newCartFixture(product(1, "Caneca", "9.99", 5), product(2, "Prato", "2.50", 9))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 2, Qty: 2})
	require.NoError(t, err)

	p := products.products[1]
	p.StockQty = 7
	products.products[1] = p

	items, _ := carts.ListByCartTx(nil, "c1")
	resp, err := svc.UpdateCartItem(ctx, items[0].ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "Quantidade atualizada", resp.Message)
	assert.Equal(t, items[0].ID, resp.ItemID)
	// 4 * 9.99 + 2 * 2.50
	assert.Equal(t, "44.96", resp.CartTotal.StringFixed(2))

	updated, _ := carts.LockByIDTx(nil, items[0].ID)
	assert.Equal(t, 4, updated.Qty)
	assert.Equal(t, 7, updated.MaxQty)
}

func TestUpdateCartItem_LocksProductBeforeLine(t *testing.T) {
	svc, carts, products := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)
	items, _ := carts.ListByCartTx(nil, "c1")

	locks := &lockLog{}
	carts.locks, products.locks = locks, locks
	_, err = svc.UpdateCartItem(ctx, items[0].ID, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"product:1", fmt.Sprintf("item:%d", items[0].ID)}, locks.order)
}

// ── DeleteCartItem ───────────────────────────────────────────────────────────

func TestDeleteCartItem_SecondCallIsNotFound(t *testing.T) {
	svc, carts, _ := newCartFixture(product(1, "Caneca", "9.99", 5))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, dto.AddToCartRequest{CartID: "c1", ProductID: 1, Qty: 1})
	require.NoError(t, err)
	items, _ := carts.ListByCartTx(nil, "c1")

	require.NoError(t, svc.DeleteCartItem(ctx, items[0].ID))
	assert.Empty(t, carts.items)

	err = svc.DeleteCartItem(ctx, items[0].ID)
	requireKind(t, err, service.KindNotFound)
}
