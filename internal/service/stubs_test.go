package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/model"
	"github.com/Muletinha/projeto-emeece/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ProductRepository stub ─────────────────────────────────────────
// Every read returns a copy so services cannot mutate the store behind the
// repository's back, the same as with a real database.

type stubProductRepo struct {
	products map[int64]model.Product
	debitErr error
	locks    *lockLog
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo(products ...model.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[int64]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) List(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) CountByImage(_ context.Context, image string) (int64, error) {
	var n int64
	for _, p := range r.products {
		if p.ImageName() == image {
			n++
		}
	}
	return n, nil
}

func (r *stubProductRepo) FindByIDsTx(_ *gorm.DB, ids []int64) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) LockByIDTx(_ *gorm.DB, id int64) (*model.Product, error) {
	r.locks.add("product:%d", id)
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) LockByIDsTx(tx *gorm.DB, ids []int64) ([]model.Product, error) {
	for _, id := range ids {
		r.locks.add("product:%d", id)
	}
	out, _ := r.FindByIDsTx(tx, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) UpdateTx(_ *gorm.DB, p *model.Product) error {
	p.UpdatedAt = time.Now()
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) DeleteTx(_ *gorm.DB, id int64) (int64, error) {
	if _, ok := r.products[id]; !ok {
		return 0, nil
	}
	delete(r.products, id)
	return 1, nil
}

func (r *stubProductRepo) DebitStockTx(_ *gorm.DB, id int64, qty int) (bool, error) {
	if r.debitErr != nil {
		return false, r.debitErr
	}
	p, ok := r.products[id]
	if !ok || p.StockQty < qty {
		return false, nil
	}
	p.StockQty -= qty
	r.products[id] = p
	return true, nil
}

func (r *stubProductRepo) stock(id int64) int { return r.products[id].StockQty }

// ── In-memory CartRepository stub ────────────────────────────────────────────

type stubCartRepo struct {
	items  map[uint]model.CartItem
	nextID uint
	locks  *lockLog
	// afterList runs once, right after the next ListByCartTx, standing in for
	// a transaction that commits in between.
	afterList func()
}

var _ repository.CartRepository = (*stubCartRepo)(nil)

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: make(map[uint]model.CartItem)}
}

func (r *stubCartRepo) DB() *gorm.DB { return nil }

func (r *stubCartRepo) FindByIDTx(_ *gorm.DB, id uint) (*model.CartItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &it, nil
}

func (r *stubCartRepo) LockByIDTx(_ *gorm.DB, id uint) (*model.CartItem, error) {
	r.locks.add("item:%d", id)
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &it, nil
}

func (r *stubCartRepo) LockByCartAndProductTx(_ *gorm.DB, cartID string, productID int64) (*model.CartItem, error) {
	for _, it := range r.items {
		if it.CartID == cartID && it.ProductID == productID {
			return &it, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCartRepo) ListByCartTx(_ *gorm.DB, cartID string) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return out, nil
}

func (r *stubCartRepo) LockByIDsTx(_ *gorm.DB, ids []uint) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, id := range ids {
		r.locks.add("item:%d", id)
		if it, ok := r.items[id]; ok {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubCartRepo) CreateTx(_ *gorm.DB, item *model.CartItem) error {
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = *item
	return nil
}

func (r *stubCartRepo) UpdateTx(_ *gorm.DB, item *model.CartItem) error {
	r.items[item.ID] = *item
	return nil
}

func (r *stubCartRepo) DeleteTx(_ *gorm.DB, id uint) (int64, error) {
	if _, ok := r.items[id]; !ok {
		return 0, nil
	}
	delete(r.items, id)
	return 1, nil
}

func (r *stubCartRepo) DeleteByIDsTx(_ *gorm.DB, ids []uint) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *stubCartRepo) DeleteByProductTx(_ *gorm.DB, productID int64) (int64, error) {
	var n int64
	for id, it := range r.items {
		if it.ProductID == productID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *stubCartRepo) TotalTx(tx *gorm.DB, cartID string) (decimal.Decimal, error) {
	items, _ := r.ListByCartTx(tx, cartID)
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total, nil
}

func (r *stubCartRepo) countByProduct(productID int64) int {
	n := 0
	for _, it := range r.items {
		if it.ProductID == productID {
			n++
		}
	}
	return n
}

// ── lock order recorder ──────────────────────────────────────────────────────
// Shared by the product and cart stubs; a nil *lockLog records nothing.

type lockLog struct{ order []string }

func (l *lockLog) add(format string, id any) {
	if l != nil {
		l.order = append(l.order, fmt.Sprintf(format, id))
	}
}

// ── In-memory StockMovementRepository stub ───────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	m.ID = uint(len(r.movements) + 1)
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID int64, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── ImageJanitor stub ────────────────────────────────────────────────────────

type stubJanitor struct {
	mu     sync.Mutex
	queued []string
}

func (j *stubJanitor) EnqueueImageCleanup(_ context.Context, filename string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.queued = append(j.queued, filename)
	return nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

func product(id int64, name, price string, stock int) model.Product {
	return model.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		StockQty: stock,
	}
}

func ptr[T any](v T) *T { return &v }
