package router

import (
	"net/http"

	"weavemart/config"
	"weavemart/internal/handler"
	"weavemart/internal/middleware"
	"weavemart/internal/repository"
	"weavemart/internal/service"
	"weavemart/internal/ws"
	"weavemart/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services bundles the ledger services so the server and the operator CLI wire them the same way.
type Services struct {
	Payout      *service.PayoutService
	Sales       *service.SalesService
	Community   *service.CommunityService
	Referral    *service.ReferralService
	Design      *service.DesignService
	Transaction *service.TransactionService
	Users       *repository.UserRepository
}

// NewServices builds repositories and services over db. notifier and cloud may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, notifier service.Notifier) *Services {
	loc, err := cfg.Location()
	if err != nil {
		log.Warnf("[config] %v, falling back to UTC", err)
		loc = nil
	}
	opts := service.Options{
		Timeout:  cfg.Database.QueryTimeout,
		Location: loc,
		Notifier: notifier,
	}

	userRepo := repository.NewUserRepository(db)
	designRepo := repository.NewDesignRepository(db)
	historyRepo := repository.NewPaymentHistoryRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	return &Services{
		Payout:    service.NewPayoutService(designRepo, userRepo, historyRepo, opts),
		Sales:     service.NewSalesService(designRepo, historyRepo, opts),
		Community: service.NewCommunityService(designRepo, userRepo, opts),
		Referral: service.NewReferralService(userRepo, designRepo, service.ReferralSettings{
			CodeLength:       cfg.Referral.CodeLength,
			CodeAttempts:     cfg.Referral.CodeAttempts,
			MilestoneDesigns: int64(cfg.Referral.MilestoneSize),
		}, opts),
		Design: service.NewDesignService(designRepo, userRepo, txRepo, cloud, service.AssetSettings{
			Folder:      cfg.Cloudinary.DesignFolder,
			DownloadTTL: cfg.Cloudinary.DownloadTTL,
		}, opts),
		Transaction: service.NewTransactionService(txRepo, designRepo, opts),
		Users:       userRepo,
	}
}

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)))

	hub := ws.NewHub()
	svc := NewServices(cfg, db, cloud, hub)

	adminHandler := handler.NewAdminHandler(svc.Payout)
	salesHandler := handler.NewSalesHandler(svc.Sales)
	communityHandler := handler.NewCommunityHandler(svc.Community)
	referralHandler := handler.NewReferralHandler(svc.Referral)
	userHandler := handler.NewUserHandler(svc.Payout)
	designHandler := handler.NewDesignHandler(svc.Design)
	uploadHandler := handler.NewUploadHandler(svc.Design)
	txHandler := handler.NewTransactionHandler(svc.Transaction)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, hub))

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))

	sales := authed.Group("/sales")
	sales.GET("/dashboard", salesHandler.Dashboard)
	sales.GET("/analytics", salesHandler.Analytics)

	authed.GET("/community/leaderboard", communityHandler.Leaderboard)

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired(svc.Users))
	admin.GET("/users", adminHandler.ListSellers)
	admin.GET("/user-designs/:email", adminHandler.SellerDesigns)
	admin.GET("/payment-due/:email", adminHandler.PaymentDue)
	admin.GET("/payment-details/:email", adminHandler.PaymentDetails)
	admin.POST("/mark-paid/:email", adminHandler.MarkPaid)
	admin.POST("/settlements/:payment_id/reconcile", adminHandler.Reconcile)

	user := authed.Group("/user")
	user.GET("/referral", referralHandler.Progress)
	user.GET("/check-referral-milestone", referralHandler.CheckMilestone)
	user.GET("/verify-referral/:code", referralHandler.VerifyCode)
	user.GET("/leaderboard", referralHandler.Leaderboard)
	user.GET("/payment-history", userHandler.PaymentHistory)
	user.POST("/complete-signup", referralHandler.CompleteSignup)

	designs := authed.Group("/designs")
	designs.POST("", designHandler.Create)
	designs.POST("/upload", uploadHandler.UploadDesignAsset)
	designs.POST("/upload-params", designHandler.UploadParams)
	designs.PUT("/:id/bundle-discount", designHandler.BundleDiscount)
	designs.GET("/:id/download", designHandler.Download)
	review := designs.Group("")
	review.Use(middleware.DesignerRequired(svc.Users))
	review.POST("/:id/approve", designHandler.Approve)
	review.POST("/:id/reject", designHandler.Reject)

	authed.POST("/transactions", txHandler.Record)

	return r
}
