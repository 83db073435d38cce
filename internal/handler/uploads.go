package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Muletinha/projeto-emeece/internal/apierror"
	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/infra"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store    *infra.FileStore
	maxBytes int64
}

func NewUploadHandler(store *infra.FileStore, maxBytes int64) *UploadHandler {
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

// Upload godoc
// @Summary      Enviar imagem
// @Description  Grava o arquivo com um prefixo aleatório e devolve o nome armazenado, servido em /uploads/{filename}.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Imagem"
// @Success      200  {object} dto.UploadResponse
// @Failure      400  {object} apierror.APIError
// @Failure      413  {object} apierror.APIError
// @Router       /api/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	tooLarge := apierror.New(fmt.Sprintf("Arquivo excede o limite de %d MB", h.maxBytes>>20))
	if c.Request.ContentLength > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New("Arquivo não enviado"))
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	name, err := h.store.Save(f, fh.Filename)
	if errors.Is(err, infra.ErrEmptyFilename) {
		c.JSON(http.StatusBadRequest, apierror.New("Nome de arquivo vazio"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UploadResponse{Filename: name})
}
