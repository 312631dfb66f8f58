package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/config"
	"github.com/ikkim/must-canteen/internal/app/controller"
	"github.com/ikkim/must-canteen/internal/middleware"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
)

type Router struct {
	authController      *controller.AuthController
	catalogController   *controller.CatalogController
	cartController      *controller.CartController
	reviewController    *controller.ReviewController
	favoritesController *controller.FavoritesController
	uploadController    *controller.UploadController
	wsController        *controller.WSController
	deviceMiddleware    *middleware.DeviceMiddleware
	apiLimiter          *ratelimit.KeyedLimiter
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	catalogController *controller.CatalogController,
	cartController *controller.CartController,
	reviewController *controller.ReviewController,
	favoritesController *controller.FavoritesController,
	uploadController *controller.UploadController,
	wsController *controller.WSController,
	deviceMiddleware *middleware.DeviceMiddleware,
	apiLimiter *ratelimit.KeyedLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		catalogController:   catalogController,
		cartController:      cartController,
		reviewController:    reviewController,
		favoritesController: favoritesController,
		uploadController:    uploadController,
		wsController:        wsController,
		deviceMiddleware:    deviceMiddleware,
		apiLimiter:          apiLimiter,
		config:              cfg,
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
			"message": "MUST Canteen API is running",
		})
	})

	v1 := router.Group("/api/v1")

	// catalog reads need no device
	v1.GET("/stalls", r.catalogController.ListStalls)
	v1.GET("/stalls/:id", r.catalogController.GetStall)
	v1.GET("/dishes/:id", r.catalogController.GetDish)
	v1.GET("/search", r.catalogController.Search)
	v1.GET("/cuisines", r.catalogController.ListCuisines)
	v1.GET("/leaderboard/:kind", r.catalogController.Leaderboard)

	device := v1.Group("")
	device.Use(r.deviceMiddleware.Identify())
	if r.apiLimiter != nil {
		device.Use(middleware.RateLimit(r.apiLimiter))
	}
	{
		auth := device.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/guest", r.authController.Guest)
			auth.POST("/logout", r.authController.Logout)
			auth.GET("/me", r.authController.GetMe)
			auth.PUT("/me", r.authController.UpdateMe)
			auth.PUT("/password", r.authController.ChangePassword)
		}

		cart := device.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PATCH("/items/:dish_id", r.cartController.UpdateQuantity)
			cart.DELETE("/items/:dish_id", r.cartController.RemoveItem)
			cart.POST("/checkout", r.cartController.Checkout)
		}

		targets := device.Group("/targets/:target_id/reviews")
		{
			targets.GET("", r.reviewController.ListReviews)
			targets.POST("", r.reviewController.SubmitReview)
			targets.POST("/:review_id/like", r.reviewController.LikeReview)
		}

		reviews := device.Group("/reviews")
		{
			reviews.DELETE("/:review_id", r.reviewController.DeleteReview)
			reviews.POST("/:review_id/append", r.reviewController.AppendReview)
		}

		device.GET("/me/reviews", r.reviewController.MyReviews)

		favorites := device.Group("/favorites")
		{
			favorites.GET("", r.favoritesController.GetFavorites)
			favorites.POST("/stalls/:id", r.favoritesController.ToggleStall)
			favorites.POST("/dishes/:id", r.favoritesController.ToggleDish)
		}

		if r.uploadController != nil {
			device.POST("/upload/presigned-url", r.uploadController.GeneratePresignedURL)
		}

		device.GET("/ws", r.wsController.Connect)
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
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.DeviceTokenHeader+", X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
