package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/model"
	"github.com/Muletinha/projeto-emeece/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingPadrao is used when the request does not name a method.
const ShippingPadrao = "padrao"

var shippingTable = map[string]decimal.Decimal{
	"padrao":   decimal.RequireFromString("10.00"),
	"standard": decimal.RequireFromString("10.00"),
	"expresso": decimal.RequireFromString("25.00"),
	"express":  decimal.RequireFromString("25.00"),
}

// ShippingCost returns the flat fee for a shipping method. Lookup ignores case
// and surrounding spaces; "" means padrao.
func ShippingCost(method string) (decimal.Decimal, bool) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = ShippingPadrao
	}
	cost, ok := shippingTable[method]
	return cost, ok
}

// errDebitRace means the conditional UPDATE found less stock than the locked
// read did. With the row lock held this cannot happen; if it does, the whole
// checkout rolls back as a storage failure.
var errDebitRace = errors.New("conditional stock debit updated no rows")

// CheckoutService turns a cart into a stock debit plus an order total and
// clears the cart, all in one transaction.
type CheckoutService interface {
	Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutService struct {
	carts     repository.CartRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cache     *CatalogCache
}

func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	cache *CatalogCache,
) CheckoutService {
	return &checkoutService{carts: carts, products: products, movements: movements, cache: cache}
}

// ── Checkout ──────────────────────────────────────────────────────────────────
//   1. Reject missing cart id / unknown shipping before opening a transaction
//   2. BEGIN TX: load lines, lock every product FOR UPDATE in ascending id order,
//      then lock the lines that were loaded
//   3. Validation pass over all lines: nothing is written if any line fails
//   4. Commit pass: conditional debit + stock movement per product, delete the
//      charged lines
//   5. COMMIT, then drop the debited products from the catalog cache

func (s *checkoutService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	cartID := strings.TrimSpace(req.CartID)
	if cartID == "" {
		return nil, newError(KindMissingCartID, "cart_id obrigatório")
	}
	shipping, ok := ShippingCost(req.Shipping)
	if !ok {
		return nil, newError(KindInvalidShipping, "Tipo de frete inválido")
	}

	totalProducts := decimal.Zero
	var debited []int64

	err := runTx(ctx, s.carts.DB(), func(tx *gorm.DB) error {
		listed, err := s.carts.ListByCartTx(tx, cartID)
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			return newError(KindEmptyCart, "Carrinho vazio")
		}

		ids := make([]int64, 0, len(listed))
		seen := make(map[int64]bool, len(listed))
		itemIDs := make([]uint, 0, len(listed))
		for _, it := range listed {
			itemIDs = append(itemIDs, it.ID)
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		// Products first, then the lines: the same order AddToCart and
		// UpdateCartItem use.
		locked, err := s.products.LockByIDsTx(tx, ids)
		if err != nil {
			return err
		}
		live := make(map[int64]model.Product, len(locked))
		for _, p := range locked {
			live[p.ID] = p
		}

		// Re-read under lock: a line removed or resized before the product
		// locks were granted is charged as it is now. Lines added after the
		// first read are not part of this order and stay in the cart.
		items, err := s.carts.LockByIDsTx(tx, itemIDs)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return newError(KindEmptyCart, "Carrinho vazio")
		}
		need := make(map[int64]int, len(items))
		itemIDs = itemIDs[:0]
		for _, it := range items {
			need[it.ProductID] += it.Qty
			itemIDs = append(itemIDs, it.ID)
		}

		// Validation pass, in cart order so the first offending line is reported.
		for _, it := range items {
			p, ok := live[it.ProductID]
			if !ok {
				return newError(KindNotFound, fmt.Sprintf("Produto %d não encontrado", it.ProductID))
			}
			if need[p.ID] > p.StockQty {
				return stockError(KindInsufficientStock,
					fmt.Sprintf("Estoque insuficiente para '%s'", p.Name), p.StockQty)
			}
		}

		// Commit pass.
		for _, id := range ids {
			qty, ok := need[id]
			if !ok {
				continue
			}
			p := live[id]
			applied, err := s.products.DebitStockTx(tx, id, qty)
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("product %d: %w", id, errDebitRace)
			}
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:   id,
				Kind:        model.MovementCheckout,
				Delta:       -qty,
				StockBefore: p.StockQty,
				StockAfter:  p.StockQty - qty,
				Reference:   cartID,
			}); err != nil {
				return err
			}
		}
		for i := range items {
			totalProducts = totalProducts.Add(items[i].Subtotal())
		}
		if _, err := s.carts.DeleteByIDsTx(tx, itemIDs); err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := need[id]; ok {
				debited = append(debited, id)
			}
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == 0 {
			log.Error().Err(err).Str("cart_id", cartID).Msg("checkout rolled back")
		}
		return nil, asServiceError(err, "Erro ao finalizar pedido, tente novamente")
	}

	s.cache.Invalidate(ctx, debited...)

	total := totalProducts.Add(shipping)
	log.Info().
		Str("cart_id", cartID).
		Int("products", len(debited)).
		Str("total", total.StringFixed(2)).
		Msg("checkout completed")

	return &dto.CheckoutResponse{
		Message:       "Pedido finalizado com sucesso",
		TotalProducts: totalProducts,
		ShippingCost:  shipping,
		Frete:         shipping,
		Total:         total,
	}, nil
}
