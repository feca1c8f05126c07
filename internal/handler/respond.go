package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// respondError maps service errors onto HTTP statuses. Internal details are logged, not returned.
func respondError(c *gin.Context, err error) {
	var partial *service.PartialSettlementError
	switch {
	case errors.As(err, &partial):
		c.JSON(http.StatusAccepted, gin.H{
			"error":      "payment recorded but some designs were not marked paid; reconcile to finish",
			"payment_id": partial.PaymentID,
			"pending":    partial.Failed,
		})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrStaleSnapshot),
		errors.Is(err, service.ErrNothingDue),
		errors.Is(err, service.ErrKeyReused),
		errors.Is(err, service.ErrAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPersistence), errors.Is(err, context.DeadlineExceeded):
		log.Errorf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, retry later"})
	default:
		log.Errorf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
