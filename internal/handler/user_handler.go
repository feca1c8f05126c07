package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	payoutSvc *service.PayoutService
}

func NewUserHandler(payoutSvc *service.PayoutService) *UserHandler {
	return &UserHandler{payoutSvc: payoutSvc}
}

// PaymentHistory handles GET /user/payment-history.
func (h *UserHandler) PaymentHistory(c *gin.Context) {
	list, err := h.payoutSvc.PaymentHistory(c.Request.Context(), middleware.GetEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_history": list, "total": len(list)})
}
