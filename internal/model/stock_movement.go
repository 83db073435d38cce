package model

import "time"

// Stock movement kinds.
const (
	MovementCheckout      = "checkout"
	MovementCatalogUpsert = "catalog_upsert"
)

// StockMovement records every change to a product's stock_qty. It is written
// in the same transaction as the change. No foreign key: rows outlive the
// product they describe.
type StockMovement struct {
	ID          uint   `gorm:"primaryKey"`
	ProductID   int64  `gorm:"not null;index"`
	Kind        string `gorm:"size:32;not null"`
	Delta       int    `gorm:"not null"` // positive = in, negative = out
	StockBefore int    `gorm:"not null"`
	StockAfter  int    `gorm:"not null"`
	Reference   string `gorm:"size:64"` // cart id for checkouts
	CreatedAt   time.Time
}
