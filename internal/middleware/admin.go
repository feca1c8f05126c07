package middleware

import (
	"errors"
	"net/http"

	"weavemart/internal/models"
	"weavemart/internal/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminRequired re-reads the caller's user row and requires is_admin.
func AdminRequired(users *repository.UserRepository) gin.HandlerFunc {
	return requireUser(users, "admin access required", func(u *models.User) bool { return u.IsAdmin })
}

// DesignerRequired requires is_designer on the caller's user row.
func DesignerRequired(users *repository.UserRepository) gin.HandlerFunc {
	return requireUser(users, "designer access required", func(u *models.User) bool { return u.IsDesigner })
}

func requireUser(users *repository.UserRepository, msg string, allow func(*models.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := GetEmail(c)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		u, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
				return
			}
			log.Errorf("[auth] load user %s: %v", email, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "user store unavailable"})
			return
		}
		if !allow(u) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
		c.Set("user", u)
		c.Next()
	}
}
