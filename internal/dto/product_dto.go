package dto

import "github.com/shopspring/decimal"

func init() {
	// The storefront reads prices as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpsertProductRequest inserts or replaces the product with the given id.
// Description and Image are preserved from the stored row when omitted.
type UpsertProductRequest struct {
	ID          int64            `json:"id"          validate:"required,min=1"`
	Name        string           `json:"name"        validate:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"required,min=0"`
	StockQty    *int             `json:"stock_qty"   validate:"required,min=0"`
	Image       *string          `json:"image"       validate:"omitempty,max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int             `json:"stock_qty"`
	Image       *string         `json:"image"`
}

type StockMovementResponse struct {
	ID          uint   `json:"id"`
	ProductID   int64  `json:"product_id"`
	Kind        string `json:"kind"`
	Delta       int    `json:"delta"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Reference   string `json:"reference,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UpsertProductResponse struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}
