package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/middleware"
	"github.com/holister/holister-api/internal/service"
)

type BannerHandler struct {
	bannerService *service.BannerService
}

func NewBannerHandler(bannerService *service.BannerService) *BannerHandler {
	return &BannerHandler{bannerService: bannerService}
}

func (h *BannerHandler) Create(c *gin.Context) {
	var req dto.CreateBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.bannerService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "banner created", resp)
}

func (h *BannerHandler) List(c *gin.Context) {
	resp, err := h.bannerService.List(c.Request.Context(), middleware.IsAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *BannerHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.bannerService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "banner updated", resp)
}

func (h *BannerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bannerService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "banner deleted", nil)
}
