package handler

import (
	"net/http"
	"strconv"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	salesSvc *service.SalesService
}

func NewSalesHandler(salesSvc *service.SalesService) *SalesHandler {
	return &SalesHandler{salesSvc: salesSvc}
}

// Dashboard handles GET /sales/dashboard?page&limit.
func (h *SalesHandler) Dashboard(c *gin.Context) {
	page, limit := parsePagination(c)
	d, err := h.salesSvc.Dashboard(c.Request.Context(), middleware.GetEmail(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Analytics handles GET /sales/analytics?year.
func (h *SalesHandler) Analytics(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 || year > 9999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
		return
	}
	a, err := h.salesSvc.Analytics(c.Request.Context(), middleware.GetEmail(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
