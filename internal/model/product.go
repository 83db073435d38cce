package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. IDs are assigned by the catalog admin, never by
// the database.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false"`
	Name        string          `gorm:"size:255;not null"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	// StockQty only changes through checkout (debit) and catalog upsert (reset).
	StockQty  int     `gorm:"not null;default:0"`
	Image     *string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageName returns the stored file name or "" when the product has no image.
func (p *Product) ImageName() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}
