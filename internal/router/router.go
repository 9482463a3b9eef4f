package router

import (
	"github.com/gin-gonic/gin"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/controller"
	"github.com/savoryhq/savory-backend/internal/middleware"
)

type Router struct {
	authController   *controller.AuthController
	storeController  *controller.StoreController
	reviewController *controller.ReviewController
	uploadController *controller.UploadController
	feedController   *controller.FeedController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	storeController *controller.StoreController,
	reviewController *controller.ReviewController,
	uploadController *controller.UploadController,
	feedController *controller.FeedController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:   authController,
		storeController:  storeController,
		reviewController: reviewController,
		uploadController: uploadController,
		feedController:   feedController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SAVORY API is running",
		})
	})

	// Serve uploaded photos from the local uploads directory
	router.Static("/uploads", r.config.Upload.Dir)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password/:token", r.authController.ResetPassword)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/account", r.authMiddleware.Authenticate(), r.authController.UpdateAccount)
		}

		stores := v1.Group("/stores")
		{
			stores.GET("", r.storeController.ListStores)
			stores.GET("/page/:page", r.storeController.ListStores)
			stores.GET("/slug/:slug", r.authMiddleware.OptionalAuthenticate(), r.storeController.GetStoreBySlug)
			stores.GET("/search", r.storeController.Search)
			stores.GET("/near", r.storeController.Near)
			stores.GET("/top", r.storeController.TopStores)
			stores.GET("/export", r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"), r.storeController.ExportStores)
			stores.GET("/:id/reviews", r.reviewController.ListReviews)

			stores.POST("", r.authMiddleware.Authenticate(), r.storeController.CreateStore)
			stores.PUT("/:id", r.authMiddleware.Authenticate(), r.storeController.UpdateStore)
			stores.POST("/:id/heart", r.authMiddleware.Authenticate(), r.storeController.ToggleHeart)
			stores.POST("/:id/reviews", r.authMiddleware.Authenticate(), r.reviewController.AddReview)
		}

		tags := v1.Group("/tags")
		{
			tags.GET("", r.storeController.ListTags)
			tags.GET("/:tag", r.storeController.ListTags)
		}

		v1.GET("/hearts", r.authMiddleware.Authenticate(), r.storeController.HeartedStores)

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/photo", r.uploadController.UploadPhoto)
		}

		// Live activity feed; authenticates via the token query
		// parameter since browsers cannot set headers on WebSocket
		// handshakes
		v1.GET("/feed", r.authMiddleware.Authenticate(), r.feedController.Feed)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
