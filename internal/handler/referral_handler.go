package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralSvc *service.ReferralService
}

func NewReferralHandler(referralSvc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

// Progress handles GET /user/referral.
func (h *ReferralHandler) Progress(c *gin.Context) {
	p, err := h.referralSvc.Progress(c.Request.Context(), middleware.GetEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CheckMilestone handles GET /user/check-referral-milestone.
// It issues a referral code when the user has none and credits the milestone once.
func (h *ReferralHandler) CheckMilestone(c *gin.Context) {
	p, err := h.referralSvc.CheckMilestone(c.Request.Context(), middleware.GetEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// VerifyCode handles GET /user/verify-referral/:code.
func (h *ReferralHandler) VerifyCode(c *gin.Context) {
	referrer, err := h.referralSvc.ResolveCode(c.Request.Context(), middleware.GetEmail(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "SUCCESS",
		"message":        "Referral code verified",
		"referrer_email": referrer,
	})
}

// Leaderboard handles GET /user/leaderboard.
func (h *ReferralHandler) Leaderboard(c *gin.Context) {
	list, err := h.referralSvc.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": list})
}

// CompleteSignup handles POST /user/complete-signup after phone verification.
func (h *ReferralHandler) CompleteSignup(c *gin.Context) {
	var req struct {
		Username     string `json:"username" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.referralSvc.CompleteSignup(c.Request.Context(), middleware.GetEmail(c), req.Username, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
