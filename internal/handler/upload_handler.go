package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	designSvc *service.DesignService
}

func NewUploadHandler(designSvc *service.DesignService) *UploadHandler {
	return &UploadHandler{designSvc: designSvc}
}

// UploadDesignAsset handles POST /designs/upload (multipart "file"). The returned
// public_id is then passed as asset_public_id to POST /designs.
func (h *UploadHandler) UploadDesignAsset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	res, err := h.designSvc.UploadAsset(c.Request.Context(), middleware.GetEmail(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
