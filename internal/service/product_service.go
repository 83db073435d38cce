package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/model"
	"github.com/Muletinha/projeto-emeece/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// ImageJanitor removes uploaded files that no product references anymore.
// Implemented by worker.Dispatcher.
type ImageJanitor interface {
	EnqueueImageCleanup(ctx context.Context, filename string) error
}

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Get(ctx context.Context, id int64) (*dto.ProductResponse, error)
	List(ctx context.Context) ([]dto.ProductResponse, error)
	Upsert(ctx context.Context, req dto.UpsertProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id int64) error
	Movements(ctx context.Context, productID int64, limit int) ([]dto.StockMovementResponse, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type productService struct {
	products  repository.ProductRepository
	carts     repository.CartRepository
	movements repository.StockMovementRepository
	cache     *CatalogCache
	janitor   ImageJanitor
}

func NewProductService(
	products repository.ProductRepository,
	carts repository.CartRepository,
	movements repository.StockMovementRepository,
	cache *CatalogCache,
	janitor ImageJanitor,
) ProductService {
	return &productService{
		products:  products,
		carts:     carts,
		movements: movements,
		cache:     cache,
		janitor:   janitor,
	}
}

func (s *productService) Get(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	if p, ok := s.cache.GetProduct(ctx, id); ok {
		return p, nil
	}
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, msgProductNotFound)
	}
	if err != nil {
		return nil, persistenceError("erro ao carregar produto", err)
	}
	resp := productToResponse(p)
	s.cache.SetProduct(ctx, resp)
	return resp, nil
}

func (s *productService) List(ctx context.Context) ([]dto.ProductResponse, error) {
	if list, ok := s.cache.GetList(ctx); ok {
		return list, nil
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, persistenceError("erro ao listar produtos", err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *productToResponse(&products[i]))
	}
	s.cache.SetList(ctx, out)
	return out, nil
}

// ── Upsert ────────────────────────────────────────────────────────────────────
// Insert or full replace keyed by the external id. Description and image keep
// their stored value when the request omits them; an explicit "" image clears
// it. A stock change is written to the ledger in the same transaction.

func (s *productService) Upsert(ctx context.Context, req dto.UpsertProductRequest) (*dto.ProductResponse, error) {
	var (
		saved    model.Product
		oldImage string
	)
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		existing, err := s.products.LockByIDTx(tx, req.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		stockBefore := 0
		p := &model.Product{ID: req.ID}
		if existing != nil {
			p = existing
			stockBefore = existing.StockQty
			oldImage = existing.ImageName()
		}
		p.Name = req.Name
		p.Price = req.Price.Round(2) // stored as decimal(10,2)
		p.StockQty = *req.StockQty
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.Image != nil {
			if *req.Image == "" {
				p.Image = nil
			} else {
				p.Image = req.Image
			}
		}

		if existing == nil {
			err = s.products.CreateTx(tx, p)
		} else {
			err = s.products.UpdateTx(tx, p)
		}
		if err != nil {
			return err
		}

		if delta := p.StockQty - stockBefore; delta != 0 {
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:   p.ID,
				Kind:        model.MovementCatalogUpsert,
				Delta:       delta,
				StockBefore: stockBefore,
				StockAfter:  p.StockQty,
			}); err != nil {
				return err
			}
		}
		saved = *p
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "erro ao salvar produto")
	}

	s.cache.Invalidate(ctx, saved.ID)
	if oldImage != "" && oldImage != saved.ImageName() {
		s.queueImageCleanup(ctx, oldImage)
	}
	return productToResponse(&saved), nil
}

// ── Delete ────────────────────────────────────────────────────────────────────
// Cart lines referencing the product go first, in the same transaction, so no
// cart can ever point at a missing product.

func (s *productService) Delete(ctx context.Context, id int64) error {
	var image string
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.LockByIDTx(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, msgProductNotFound)
		}
		if err != nil {
			return err
		}
		image = p.ImageName()

		removed, err := s.carts.DeleteByProductTx(tx, id)
		if err != nil {
			return err
		}
		if _, err := s.products.DeleteTx(tx, id); err != nil {
			return err
		}
		log.Info().Int64("product_id", id).Int64("cart_items_removed", removed).Msg("product deleted")
		return nil
	})
	if err != nil {
		return asServiceError(err, "Erro ao remover produto")
	}

	s.cache.Invalidate(ctx, id)
	if image != "" {
		s.queueImageCleanup(ctx, image)
	}
	return nil
}

func (s *productService) Movements(ctx context.Context, productID int64, limit int) ([]dto.StockMovementResponse, error) {
	movements, err := s.movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, persistenceError("erro ao carregar movimentos", err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			Kind:        m.Kind,
			Delta:       m.Delta,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reference:   m.Reference,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// ── ExportXLSX ────────────────────────────────────────────────────────────────

func (s *productService) ExportXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.products.List(ctx)
	if err != nil {
		return persistenceError("erro ao listar produtos", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Produtos")
	if err != nil {
		return err
	}
	header := sheet.AddRow()
	for _, h := range []string{"ID", "Nome", "Descrição", "Preço", "Estoque", "Imagem", "Atualizado em"} {
		header.AddCell().SetString(h)
	}
	for i := range products {
		p := &products[i]
		row := sheet.AddRow()
		row.AddCell().SetInt64(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(derefString(p.Description))
		row.AddCell().SetFloatWithFormat(p.Price.InexactFloat64(), "0.00")
		row.AddCell().SetInt(p.StockQty)
		row.AddCell().SetString(p.ImageName())
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file.Write(w)
}

// queueImageCleanup is best effort: a lost job leaves an orphaned file, never
// a broken product.
func (s *productService) queueImageCleanup(ctx context.Context, filename string) {
	if s.janitor == nil {
		return
	}
	if err := s.janitor.EnqueueImageCleanup(ctx, filename); err != nil {
		log.Warn().Err(err).Str("image", filename).Msg("could not queue image cleanup")
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		StockQty:    p.StockQty,
		Image:       p.Image,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
