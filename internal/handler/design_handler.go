package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DesignHandler struct {
	designSvc *service.DesignService
}

func NewDesignHandler(designSvc *service.DesignService) *DesignHandler {
	return &DesignHandler{designSvc: designSvc}
}

// Create handles POST /designs.
func (h *DesignHandler) Create(c *gin.Context) {
	var req service.CreateDesignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.designSvc.Create(c.Request.Context(), middleware.GetEmail(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

type reviewRequest struct {
	Comments string `json:"comments"`
}

// Approve handles POST /designs/:id/approve.
func (h *DesignHandler) Approve(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	d, err := h.designSvc.Approve(c.Request.Context(), middleware.GetEmail(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Reject handles POST /designs/:id/reject.
func (h *DesignHandler) Reject(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	d, err := h.designSvc.Reject(c.Request.Context(), middleware.GetEmail(c), c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// BundleDiscount handles PUT /designs/:id/bundle-discount.
func (h *DesignHandler) BundleDiscount(c *gin.Context) {
	var req struct {
		BundleDiscount *decimal.Decimal `json:"bundle_discount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bundle_discount is required"})
		return
	}
	ids, err := h.designSvc.UpdateBundleDiscount(c.Request.Context(), middleware.GetEmail(c), c.Param("id"), *req.BundleDiscount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "SUCCESS", "updated_designs": ids, "bundle_discount": req.BundleDiscount})
}

// Download handles GET /designs/:id/download.
func (h *DesignHandler) Download(c *gin.Context) {
	u, err := h.designSvc.DownloadURL(c.Request.Context(), middleware.GetEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": u})
}

// UploadParams handles POST /designs/upload-params.
func (h *DesignHandler) UploadParams(c *gin.Context) {
	sig, err := h.designSvc.UploadParams(c.Request.Context(), middleware.GetEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}
