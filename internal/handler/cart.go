package handler

import (
	"net/http"
	"strconv"

	"github.com/Muletinha/projeto-emeece/internal/apierror"
	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/service"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	cart     service.CartService
	checkout service.CheckoutService
}

func NewCartHandler(cart service.CartService, checkout service.CheckoutService) *CartHandler {
	return &CartHandler{cart: cart, checkout: checkout}
}

// Add godoc
// @Summary      Adicionar ao carrinho
// @Description  Sem cart_id um novo carrinho é criado. qty menor que 1 vale 1.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body body     dto.AddToCartRequest true "Item"
// @Success      200  {object} dto.AddToCartResponse
// @Failure      400  {object} apierror.APIError "esgotado ou acima do estoque (max_qty)"
// @Failure      404  {object} apierror.APIError
// @Router       /api/cart/add [post]
func (h *CartHandler) Add(c *gin.Context) {
	var req dto.AddToCartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.cart.AddToCart(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Conteúdo do carrinho
// @Tags         cart
// @Produce      json
// @Param        cart_id path     string true "ID do carrinho"
// @Success      200     {object} dto.CartResponse
// @Router       /api/cart/{cart_id} [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.cart.GetCart(c.Request.Context(), c.Param("cart_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary      Alterar quantidade
// @Description  Corpo vazio vale qty=1.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        item_id path     int                       true  "ID do item"
// @Param        body    body     dto.UpdateCartItemRequest false "Quantidade"
// @Success      200     {object} dto.UpdateCartItemResponse
// @Failure      400     {object} apierror.APIError
// @Failure      404     {object} apierror.APIError
// @Router       /api/cart/item/{item_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}
	resp, err := h.cart.UpdateCartItem(c.Request.Context(), itemID, qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteItem godoc
// @Summary      Remover item
// @Tags         cart
// @Produce      json
// @Param        item_id path     int true "ID do item"
// @Success      200     {object} dto.MessageResponse
// @Failure      404     {object} apierror.APIError
// @Router       /api/cart/item/{item_id} [delete]
func (h *CartHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	if err := h.cart.DeleteCartItem(c.Request.Context(), itemID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item removido"})
}

// Checkout godoc
// @Summary      Finalizar pedido
// @Description  Debita o estoque de todos os itens e esvazia o carrinho numa única transação.
// @Description  shipping: padrao (10.00, padrão) ou expresso (25.00).
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body body     dto.CheckoutRequest true "Carrinho e frete"
// @Success      200  {object} dto.CheckoutResponse
// @Failure      400  {object} apierror.APIError "carrinho vazio, frete inválido ou estoque insuficiente (max_qty)"
// @Failure      404  {object} apierror.APIError
// @Failure      500  {object} apierror.APIError "falha transitória, tente novamente"
// @Router       /api/cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseItemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("item_id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return 0, false
	}
	return uint(id), true
}
