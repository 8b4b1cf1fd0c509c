package router

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/global"
)

// statusFor maps an error kind to its HTTP status and response code.
func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.InvalidReference, apperr.InvalidQuantity, apperr.InvalidPrice,
		apperr.AddressValidationFailed, apperr.EmptyCart:
		return http.StatusBadRequest, string(kind)
	case apperr.ItemNotFound:
		// The client's view of the cart is stale and should be refetched.
		return http.StatusConflict, "cart_changed"
	case apperr.AddressNotFound:
		return http.StatusNotFound, string(kind)
	case apperr.PersistenceUnavailable:
		return http.StatusServiceUnavailable, string(kind)
	case apperr.Unauthorized:
		return http.StatusUnauthorized, string(kind)
	case apperr.Conflict:
		return http.StatusConflict, string(kind)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		resp := global.ErrorResponse("Internal server error", nil)
		resp.Code = "internal_error"
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	status, code := statusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	resp := global.ErrorResponse(appErr.Message, global.FieldErrors(appErr.Fields, appErr.Message, code))
	resp.Code = code
	c.JSON(status, resp)
}

// respondNotFound is used where a missing item is a plain 404 rather than a
// stale-cart signal.
func respondNotFound(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.ItemNotFound {
		respondError(c, err)
		return
	}
	resp := global.ErrorResponse(appErr.Message, nil)
	resp.Code = "not_found"
	c.JSON(http.StatusNotFound, resp)
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", []global.ValidationError{
		{Field: "body", Message: err.Error(), Code: "json_parse_error"},
	}))
}
