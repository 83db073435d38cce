package repository

import (
	"context"

	"github.com/Muletinha/projeto-emeece/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling unit tests with in-memory stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	// CountByImage returns how many products reference a stored image file.
	CountByImage(ctx context.Context, image string) (int64, error)

	// Used inside transactions; callers must pass the tx instance.
	FindByIDsTx(tx *gorm.DB, ids []int64) ([]model.Product, error)
	// LockByIDTx reads the row with SELECT ... FOR UPDATE.
	LockByIDTx(tx *gorm.DB, id int64) (*model.Product, error)
	// LockByIDsTx locks every row in ascending id order.
	LockByIDsTx(tx *gorm.DB, ids []int64) ([]model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) error
	UpdateTx(tx *gorm.DB, p *model.Product) error
	DeleteTx(tx *gorm.DB, id int64) (int64, error)
	// DebitStockTx subtracts qty only if at least qty units are in stock.
	// It reports false when no row was updated.
	DebitStockTx(tx *gorm.DB, id int64, qty int) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) CountByImage(ctx context.Context, image string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("image = ?", image).Count(&n).Error
	return n, err
}

func (r *productRepo) FindByIDsTx(tx *gorm.DB, ids []int64) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := tx.Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) LockByIDTx(tx *gorm.DB, id int64) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) LockByIDsTx(tx *gorm.DB, ids []int64) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Save(p).Error
}

func (r *productRepo) DeleteTx(tx *gorm.DB, id int64) (int64, error) {
	res := tx.Where("id = ?", id).Delete(&model.Product{})
	return res.RowsAffected, res.Error
}

func (r *productRepo) DebitStockTx(tx *gorm.DB, id int64, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_qty >= ?", id, qty).
		Update("stock_qty", gorm.Expr("stock_qty - ?", qty))
	return res.RowsAffected == 1, res.Error
}
