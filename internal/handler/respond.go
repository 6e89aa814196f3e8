package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/service"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, dto.Response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.Response{Success: false, Message: message})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Response{
		Success: false,
		Message: "validation failed",
		Errors:  err.Error(),
	})
}

// respondServiceError maps known service errors onto HTTP statuses and
// falls back to a bare 500 so internals never leak to clients.
func respondServiceError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	var couponErr *service.CouponInvalidError
	var transitionErr *service.InvalidTransitionError

	switch {
	case errors.As(err, &stockErr):
		respondError(c, http.StatusConflict, stockErr.Error())
	case errors.As(err, &couponErr):
		respondError(c, http.StatusBadRequest, couponErr.Error())
	case errors.As(err, &transitionErr):
		respondError(c, http.StatusUnprocessableEntity, transitionErr.Error())
	case errors.Is(err, service.ErrEmptyCart):
		respondError(c, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrSizeNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrAddressNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrBannerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrOrderAccessDenied):
		respondError(c, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrDuplicateSKU),
		errors.Is(err, service.ErrCouponCodeExists),
		errors.Is(err, service.ErrUserAlreadyExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrResetTokenInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProductInactive),
		errors.Is(err, service.ErrSizeRequired),
		errors.Is(err, service.ErrSizeNotOfProduct),
		errors.Is(err, service.ErrVariantNotOfProduct),
		errors.Is(err, service.ErrNoCouponApplied):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
