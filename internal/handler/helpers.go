package handler

import (
	"errors"
	"net/http"

	"stockroom/internal/apierror"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError translates the service error taxonomy onto HTTP codes.
// Anything unrecognized is pushed through c.Error so the ErrorHandler
// middleware logs it and answers with a sanitized 500.
func writeServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var nfErr *service.NotFoundError
	var stErr *service.StateError
	var insErr *service.InsufficientStockError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(vErr.Error()))
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, apierror.New(nfErr.Error()))
	case errors.As(err, &stErr):
		c.JSON(http.StatusConflict, apierror.New(stErr.Error()))
	case errors.As(err, &insErr):
		c.JSON(http.StatusConflict, apierror.New(insErr.Error()))
	case errors.Is(err, service.ErrConcurrencyConflict):
		// Internal retries are exhausted; the client may simply try again.
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, apierror.New("temporarily unable to complete, retry"))
	default:
		_ = c.Error(err)
	}
}
