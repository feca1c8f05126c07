package handler

import (
	"net/http"

	"weavemart/internal/middleware"
	"weavemart/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	communitySvc *service.CommunityService
}

func NewCommunityHandler(communitySvc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communitySvc: communitySvc}
}

// Leaderboard handles GET /community/leaderboard.
func (h *CommunityHandler) Leaderboard(c *gin.Context) {
	lb, err := h.communitySvc.Leaderboard(c.Request.Context(), middleware.GetEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}
