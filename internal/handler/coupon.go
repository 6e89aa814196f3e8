package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/middleware"
	"github.com/holister/holister-api/internal/service"
)

type CouponHandler struct {
	couponService *service.CouponService
	cartService   *service.CartService
}

func NewCouponHandler(couponService *service.CouponService, cartService *service.CartService) *CouponHandler {
	return &CouponHandler{couponService: couponService, cartService: cartService}
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.couponService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "coupon created", resp)
}

func (h *CouponHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.couponService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *CouponHandler) List(c *gin.Context) {
	var req dto.ListCouponsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.couponService.List(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.couponService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "coupon updated", resp)
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.couponService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "coupon deleted", nil)
}

func (h *CouponHandler) UsageStats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.couponService.UsageStats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.couponService.Validate(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "coupon is valid", resp)
}

func (h *CouponHandler) Apply(c *gin.Context) {
	var req dto.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	if _, _, err := h.couponService.ApplyToCart(c.Request.Context(), userID, req.Code); err != nil {
		respondServiceError(c, err)
		return
	}

	cart, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "coupon applied", cart)
}

func (h *CouponHandler) Remove(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.couponService.RemoveFromCart(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	cart, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "coupon removed", cart)
}
