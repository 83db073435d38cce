package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Index godoc
// @Summary      Service banner
// @Tags         meta
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       / [get]
func Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Servidor do projeto_emeece está rodando!",
		"endpoints": gin.H{
			"Listar produtos":   "/api/products",
			"Exportar catálogo": "/api/products/export.xlsx",
			"Carrinho":          "/api/cart/<cart_id>",
			"Finalizar pedido":  "/api/cart/checkout",
			"Upload de imagem":  "/api/upload",
			"Saúde":             "/health",
		},
	})
}
