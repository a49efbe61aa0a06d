package httpserver

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, pool *pgxpool.Pool, rdb *redis.Client, deps Deps, sess *sessions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(pool, rdb))

	h := &handlers{deps: deps, sessions: sess, logger: logger}

	auth := router.Group("/auth")
	{
		auth.POST("/guest", h.issueGuest)
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.requireDevice, h.login)
		auth.POST("/logout", h.requireDevice, h.logout)
	}

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	admin := router.Group("/admin", h.requireAdmin)
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
	}

	cart := router.Group("/cart", h.requireDevice)
	{
		cart.GET("", h.getCart)
		cart.POST("/items", h.addCartItem)
		cart.PATCH("/items/:lineId", h.updateCartItem)
		cart.DELETE("/items/:lineId", h.removeCartItem)
		cart.DELETE("", h.clearCart)
	}

	router.POST("/checkout", h.requireDevice, h.requireUser, h.placeOrder)
	router.GET("/orders", h.requireUser, h.listOrders)

	return router
}
