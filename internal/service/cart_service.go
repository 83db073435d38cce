package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/model"
	"github.com/Muletinha/projeto-emeece/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgProductNotFound = "Produto não encontrado"
	msgItemNotFound    = "Item não encontrado"
	msgOutOfStock      = "Produto esgotado"
	msgExceedsStock    = "Quantidade solicitada acima do estoque"
	msgMinQty          = "Quantidade mínima é 1"
)

// CartService is the cart engine. Every operation runs in its own transaction
// and re-reads the live product row for any stock decision; the snapshot
// fields on CartItem are for display only.
type CartService interface {
	AddToCart(ctx context.Context, req dto.AddToCartRequest) (*dto.AddToCartResponse, error)
	GetCart(ctx context.Context, cartID string) (*dto.CartResponse, error)
	UpdateCartItem(ctx context.Context, itemID uint, qty int) (*dto.UpdateCartItemResponse, error)
	DeleteCartItem(ctx context.Context, itemID uint) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

// ── AddToCart ─────────────────────────────────────────────────────────────────
// The product row is locked for the whole transaction, which also serialises
// concurrent adds of the same product to the same cart (one row per pair).

func (s *cartService) AddToCart(ctx context.Context, req dto.AddToCartRequest) (*dto.AddToCartResponse, error) {
	cartID := strings.TrimSpace(req.CartID)
	if cartID == "" {
		cartID = uuid.NewString()
	}
	qty := req.Qty
	if qty < 1 {
		qty = 1
	}

	err := runTx(ctx, s.carts.DB(), func(tx *gorm.DB) error {
		p, err := s.products.LockByIDTx(tx, req.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, msgProductNotFound)
		}
		if err != nil {
			return err
		}
		if p.StockQty <= 0 {
			return newError(KindOutOfStock, msgOutOfStock)
		}
		if qty > p.StockQty {
			return stockError(KindExceedsStock, msgExceedsStock, p.StockQty)
		}

		item, err := s.carts.LockByCartAndProductTx(tx, cartID, p.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return s.carts.CreateTx(tx, &model.CartItem{
				CartID:      cartID,
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Qty:         qty,
				MaxQty:      p.StockQty,
			})
		case err != nil:
			return err
		}

		// Merging never fails once the request itself fit in stock; it caps.
		item.Qty = min(item.Qty+qty, p.StockQty)
		item.MaxQty = p.StockQty
		return s.carts.UpdateTx(tx, item)
	})
	if err != nil {
		return nil, asServiceError(err, "erro ao adicionar ao carrinho")
	}
	return &dto.AddToCartResponse{Message: "Adicionado ao carrinho", CartID: cartID}, nil
}

// ── GetCart ───────────────────────────────────────────────────────────────────

func (s *cartService) GetCart(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	resp := &dto.CartResponse{Items: []dto.CartItemResponse{}, Total: decimal.Zero}

	err := runTx(ctx, s.carts.DB(), func(tx *gorm.DB) error {
		items, err := s.carts.ListByCartTx(tx, cartID)
		if err != nil || len(items) == 0 {
			return err
		}

		// Image is display-only and always taken from the live product.
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		products, err := s.products.FindByIDsTx(tx, ids)
		if err != nil {
			return err
		}
		images := make(map[int64]*string, len(products))
		for _, p := range products {
			images[p.ID] = p.Image
		}

		for i := range items {
			it := &items[i]
			sub := it.Subtotal()
			resp.Total = resp.Total.Add(sub)
			resp.Items = append(resp.Items, dto.CartItemResponse{
				ID:          it.ID,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Qty:         it.Qty,
				MaxQty:      it.MaxQty,
				Subtotal:    sub,
				Image:       images[it.ProductID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "erro ao carregar carrinho")
	}
	return resp, nil
}

// ── UpdateCartItem ────────────────────────────────────────────────────────────

func (s *cartService) UpdateCartItem(ctx context.Context, itemID uint, qty int) (*dto.UpdateCartItemResponse, error) {
	if qty < 1 {
		return nil, newError(KindInvalidQuantity, msgMinQty)
	}

	var total decimal.Decimal
	err := runTx(ctx, s.carts.DB(), func(tx *gorm.DB) error {
		// Unlocked read to learn the product; products are locked before
		// cart lines everywhere.
		found, err := s.carts.FindByIDTx(tx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, msgItemNotFound)
		}
		if err != nil {
			return err
		}

		p, err := s.products.LockByIDTx(tx, found.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, msgProductNotFound)
		}
		if err != nil {
			return err
		}

		// The line may have been removed, or checked out, while we waited.
		item, err := s.carts.LockByIDTx(tx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, msgItemNotFound)
		}
		if err != nil {
			return err
		}
		if qty > p.StockQty {
			return stockError(KindExceedsStock, msgExceedsStock, p.StockQty)
		}

		item.Qty = qty
		item.MaxQty = p.StockQty
		if err := s.carts.UpdateTx(tx, item); err != nil {
			return err
		}
		total, err = s.carts.TotalTx(tx, item.CartID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "erro ao atualizar item")
	}
	return &dto.UpdateCartItemResponse{
		Message:   "Quantidade atualizada",
		ItemID:    itemID,
		CartTotal: total,
	}, nil
}

// ── DeleteCartItem ────────────────────────────────────────────────────────────

func (s *cartService) DeleteCartItem(ctx context.Context, itemID uint) error {
	err := runTx(ctx, s.carts.DB(), func(tx *gorm.DB) error {
		n, err := s.carts.DeleteTx(tx, itemID)
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(KindNotFound, msgItemNotFound)
		}
		return nil
	})
	return asServiceError(err, "erro ao remover item")
}
