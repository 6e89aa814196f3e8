package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "product created", resp)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.productService.List(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "product updated", resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "product deleted", nil)
}

func (h *ProductHandler) AddVariant(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.productService.AddVariant(c.Request.Context(), productID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "variant created", resp)
}

func (h *ProductHandler) DeleteVariant(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := pathID(c, "variantId")
	if !ok {
		return
	}
	if err := h.productService.DeleteVariant(c.Request.Context(), productID, variantID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "variant deleted", nil)
}

func (h *ProductHandler) AddSize(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := pathID(c, "variantId")
	if !ok {
		return
	}
	var req dto.CreateSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.productService.AddSize(c.Request.Context(), productID, variantID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "size created", resp)
}

func (h *ProductHandler) UpdateSize(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sizeID, ok := pathID(c, "sizeId")
	if !ok {
		return
	}
	var req dto.UpdateSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.productService.UpdateSize(c.Request.Context(), productID, sizeID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "size updated", nil)
}

func (h *ProductHandler) DeleteSize(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sizeID, ok := pathID(c, "sizeId")
	if !ok {
		return
	}
	if err := h.productService.DeleteSize(c.Request.Context(), productID, sizeID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "size deleted", nil)
}

// pathID parses a UUID path parameter, answering 400 itself on failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
