package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List godoc
// @Summary      Listar produtos
// @Tags         products
// @Produce      json
// @Success      200 {array}  dto.ProductResponse
// @Failure      500 {object} apierror.APIError
// @Router       /api/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary      Obter produto
// @Tags         products
// @Produce      json
// @Param        id  path     int true "ID do produto"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /api/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Upsert godoc
// @Summary      Criar ou substituir produto
// @Description  Insere ou substitui o produto com o id informado. description e image omitidos mantêm o valor atual.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body body     dto.UpsertProductRequest true "Produto"
// @Success      200  {object} dto.UpsertProductResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/products [post]
func (h *ProductsHandler) Upsert(c *gin.Context) {
	var req dto.UpsertProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.Upsert(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UpsertProductResponse{Message: "Produto salvo", Product: *p})
}

// Delete godoc
// @Summary      Remover produto
// @Description  Remove o produto e todos os itens de carrinho que o referenciam.
// @Tags         products
// @Produce      json
// @Param        id  path     int true "ID do produto"
// @Success      200 {object} dto.MessageResponse
// @Failure      404 {object} apierror.APIError
// @Failure      500 {object} apierror.APIError
// @Router       /api/products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Produto removido"})
}

// Movements godoc
// @Summary      Histórico de estoque
// @Tags         products
// @Produce      json
// @Param        id    path  int true  "ID do produto"
// @Param        limit query int false "Máximo de registros (1-500, padrão 100)"
// @Success      200 {array} dto.StockMovementResponse
// @Router       /api/products/{id}/movements [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.svc.Movements(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Export godoc
// @Summary      Exportar catálogo em XLSX
// @Tags         products
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} file
// @Router       /api/products/export.xlsx [get]
func (h *ProductsHandler) Export(c *gin.Context) {
	// Buffered so a failure halfway still yields a clean JSON error.
	var buf bytes.Buffer
	if err := h.svc.ExportXLSX(c.Request.Context(), &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=produtos.xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
