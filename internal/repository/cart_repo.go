package repository

import (
	"github.com/Muletinha/projeto-emeece/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository persists cart lines. Every method runs on the caller's
// transaction: the cart engine never touches cart rows outside one.
type CartRepository interface {
	// FindByIDTx reads one line without locking it.
	FindByIDTx(tx *gorm.DB, id uint) (*model.CartItem, error)
	// LockByIDTx reads one line with SELECT ... FOR UPDATE. Lock the line's
	// product first: products are always locked before cart lines.
	LockByIDTx(tx *gorm.DB, id uint) (*model.CartItem, error)
	// LockByCartAndProductTx returns the single line for (cartID, productID).
	LockByCartAndProductTx(tx *gorm.DB, cartID string, productID int64) (*model.CartItem, error)
	ListByCartTx(tx *gorm.DB, cartID string) ([]model.CartItem, error)
	// LockByIDsTx locks the given lines in id order; lines deleted meanwhile
	// are simply missing from the result.
	LockByIDsTx(tx *gorm.DB, ids []uint) ([]model.CartItem, error)
	CreateTx(tx *gorm.DB, item *model.CartItem) error
	UpdateTx(tx *gorm.DB, item *model.CartItem) error
	DeleteTx(tx *gorm.DB, id uint) (int64, error)
	// DeleteByIDsTx deletes exactly the given lines, so lines added to the
	// same cart by a concurrent transaction are left alone.
	DeleteByIDsTx(tx *gorm.DB, ids []uint) (int64, error)
	DeleteByProductTx(tx *gorm.DB, productID int64) (int64, error)
	// TotalTx is SUM(unit_price * qty) over the cart, 0 for an empty cart.
	TotalTx(tx *gorm.DB, cartID string) (decimal.Decimal, error)

	DB() *gorm.DB
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepo{db: db} }

func (r *cartRepo) DB() *gorm.DB { return r.db }

func (r *cartRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.CartItem, error) {
	var it model.CartItem
	if err := tx.First(&it, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) LockByIDTx(tx *gorm.DB, id uint) (*model.CartItem, error) {
	var it model.CartItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&it, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) LockByCartAndProductTx(tx *gorm.DB, cartID string, productID int64) (*model.CartItem, error) {
	var it model.CartItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) ListByCartTx(tx *gorm.DB, cartID string) ([]model.CartItem, error) {
	var items []model.CartItem
	err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *cartRepo) LockByIDsTx(tx *gorm.DB, ids []uint) ([]model.CartItem, error) {
	var items []model.CartItem
	if len(ids) == 0 {
		return items, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepo) CreateTx(tx *gorm.DB, item *model.CartItem) error {
	return tx.Omit("Product").Create(item).Error
}

func (r *cartRepo) UpdateTx(tx *gorm.DB, item *model.CartItem) error {
	return tx.Omit("Product").Save(item).Error
}

func (r *cartRepo) DeleteTx(tx *gorm.DB, id uint) (int64, error) {
	res := tx.Where("id = ?", id).Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) DeleteByIDsTx(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Where("id IN ?", ids).Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) DeleteByProductTx(tx *gorm.DB, productID int64) (int64, error) {
	res := tx.Where("product_id = ?", productID).Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) TotalTx(tx *gorm.DB, cartID string) (decimal.Decimal, error) {
	var res struct{ Total decimal.Decimal }
	err := tx.Model(&model.CartItem{}).
		Select("COALESCE(SUM(unit_price * qty), 0) AS total").
		Where("cart_id = ?", cartID).
		Scan(&res).Error
	return res.Total, err
}
