package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ajcoder25/bookverse/pkg/global"
)

// NewEngine builds the gin engine with CORS and every route registered.
func NewEngine(cfg *global.Config, h *Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	InitializeRoutes(router, h)
	return router
}

func InitializeRoutes(router *gin.Engine, h *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
		}

		books := api.Group("/books")
		{
			books.GET("", h.ListBooks)
			books.GET("/search", h.SearchBooks)
			books.GET("/:id", h.GetBook)
		}
		api.GET("/categories", h.ListCategories)

		protected := api.Group("")
		protected.Use(RequireAuth(h.Auth.Tokens()))
		{
			protected.POST("/books", h.CreateBook)

			cart := protected.Group("/cart")
			{
				cart.GET("", h.GetCart)
				cart.POST("", h.AddToCart)
				cart.DELETE("", h.ClearCart)
				cart.PUT("/:itemKey", h.UpdateCartItem)
				cart.DELETE("/:itemKey", h.RemoveFromCart)
			}

			addresses := protected.Group("/addresses")
			{
				addresses.GET("", h.GetAddresses)
				addresses.POST("", h.CreateAddress)
				addresses.PUT("/:id", h.UpdateAddress)
				addresses.DELETE("/:id", h.DeleteAddress)
			}

			orders := protected.Group("/orders")
			{
				orders.GET("", h.GetOrders)
				orders.POST("", h.CreateOrder)
			}

			wishlist := protected.Group("/wishlist")
			{
				wishlist.GET("", h.GetWishlist)
				wishlist.POST("", h.AddToWishlist)
				wishlist.DELETE("/:itemKey", h.RemoveFromWishlist)
			}

			protected.GET("/recommendations", h.GetRecommendations)
		}
	}
}
