package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/Muletinha/projeto-emeece/internal/apierror"
	"github.com/Muletinha/projeto-emeece/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const msgInternal = "Erro interno do servidor"

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 and required work on prices.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps service errors to status codes. Anything that is not a
// business rejection is attached to the context for ErrorHandler to log and
// answered with a generic message.
func writeError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New(msgInternal))
		return
	}
	status := statusForKind(se.Kind)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, &apierror.APIError{Error: se.Message, MaxQty: se.MaxQty})
}

func statusForKind(k service.ErrorKind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidQuantity,
		service.KindOutOfStock,
		service.KindExceedsStock,
		service.KindInsufficientStock,
		service.KindEmptyCart,
		service.KindMissingCartID,
		service.KindInvalidShipping:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseInt64Param reads a positive integer path parameter, writing a 400 and
// returning false when it is malformed.
func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return 0, false
	}
	return id, true
}
