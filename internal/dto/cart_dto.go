package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AddToCartRequest: an empty CartID starts a new cart; Qty below 1 counts as 1.
type AddToCartRequest struct {
	CartID    string `json:"cart_id"    validate:"max=64"`
	ProductID int64  `json:"product_id" validate:"required,min=1"`
	Qty       int    `json:"qty"`
}

// UpdateCartItemRequest: a missing Qty means 1. Values below 1 are rejected
// by the cart engine, not by the validator, so they surface as a 400.
type UpdateCartItemRequest struct {
	Qty *int `json:"qty"`
}

type CheckoutRequest struct {
	CartID   string `json:"cart_id"`
	Shipping string `json:"shipping"` // padrao | expresso (aliases: standard | express)
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AddToCartResponse struct {
	Message string `json:"message"`
	CartID  string `json:"cart_id"`
}

type CartItemResponse struct {
	ID          uint            `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Qty         int             `json:"qty"`
	MaxQty      int             `json:"max_qty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Image       *string         `json:"image"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type UpdateCartItemResponse struct {
	Message   string          `json:"message"`
	ItemID    uint            `json:"item_id"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

type CheckoutResponse struct {
	Message       string          `json:"message"`
	TotalProducts decimal.Decimal `json:"total_products"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	// Frete repeats ShippingCost under the key the storefront frontend reads.
	Frete decimal.Decimal `json:"frete"`
	Total decimal.Decimal `json:"total"`
}
