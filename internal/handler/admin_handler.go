package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	payoutSvc *service.PayoutService
}

func NewAdminHandler(payoutSvc *service.PayoutService) *AdminHandler {
	return &AdminHandler{payoutSvc: payoutSvc}
}

// ListSellers handles GET /admin/users: sellers with unpaid sales.
func (h *AdminHandler) ListSellers(c *gin.Context) {
	list, err := h.payoutSvc.ListSellersDue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "total": len(list)})
}

// SellerDesigns handles GET /admin/user-designs/:email.
func (h *AdminHandler) SellerDesigns(c *gin.Context) {
	list, err := h.payoutSvc.SellerDesigns(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"designs": list})
}

// PaymentDue handles GET /admin/payment-due/:email, the preview an admin approves.
func (h *AdminHandler) PaymentDue(c *gin.Context) {
	due, err := h.payoutSvc.ComputeDue(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

// PaymentDetails handles GET /admin/payment-details/:email.
func (h *AdminHandler) PaymentDetails(c *gin.Context) {
	d, err := h.payoutSvc.PayoutDetails(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type markPaidRequest struct {
	TransactionID        string           `json:"transaction_id"`
	Notes                string           `json:"notes"`
	IdempotencyKey       string           `json:"idempotency_key"`
	ExpectedTotalAmount  *decimal.Decimal `json:"expected_total_amount"`
	ExpectedTotalCredits *int64           `json:"expected_total_credits"`
}

// MarkPaid handles POST /admin/mark-paid/:email.
func (h *AdminHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		key = req.IdempotencyKey
	}
	res, err := h.payoutSvc.Settle(c.Request.Context(), service.SettleRequest{
		SellerEmail:          c.Param("email"),
		AdminEmail:           middleware.GetEmail(c),
		TransactionID:        req.TransactionID,
		Notes:                req.Notes,
		IdempotencyKey:       key,
		ExpectedTotalAmount:  req.ExpectedTotalAmount,
		ExpectedTotalCredits: req.ExpectedTotalCredits,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"status":     "SUCCESS",
		"payment_id": res.Payment.PaymentID,
		"payment":    res.Payment,
		"replayed":   res.Replayed,
	})
}

// Reconcile handles POST /admin/settlements/:payment_id/reconcile.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	res, err := h.payoutSvc.Reconcile(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
