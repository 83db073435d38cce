package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of an anonymous cart. ProductName, UnitPrice and MaxQty
// are snapshots taken at the last add/update and are never used to authorise
// stock decisions.
type CartItem struct {
	ID          uint            `gorm:"primaryKey"`
	CartID      string          `gorm:"size:64;not null;uniqueIndex:idx_cart_product,priority:1"`
	ProductID   int64           `gorm:"not null;uniqueIndex:idx_cart_product,priority:2;index"`
	ProductName string          `gorm:"size:255;not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Qty         int             `gorm:"not null"`
	MaxQty      int             `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Declared only so AutoMigrate emits the FK with ON DELETE CASCADE.
	// Never preloaded: the live product is always fetched explicitly.
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Subtotal is the snapshot price times quantity.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}
