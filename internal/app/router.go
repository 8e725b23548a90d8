package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	"dispatch/internal/websocket"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler *handler.DriverHandler
	OrderHandler  *handler.OrderHandler
	Hub           *websocket.Hub
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
	JWTSecret     string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Real-time clients attach outside the auth boundary; dispatch
	// events carry no more than the REST responses do.
	router.GET("/ws/dispatch", websocket.Handler(deps.Hub))

	api := router.Group("/api")
	if deps.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(deps.JWTSecret))
	}
	{
		drivers := api.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Create)
			drivers.GET("", deps.DriverHandler.List)
			drivers.GET("/nearby", deps.DriverHandler.Nearby)
			drivers.GET("/:id", deps.DriverHandler.Get)
			drivers.DELETE("/:id", deps.DriverHandler.Delete)
			drivers.POST("/:id/position", deps.DriverHandler.UpdatePosition)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.Create)
			orders.GET("", deps.OrderHandler.List)
			orders.GET("/:id", deps.OrderHandler.Get)
			orders.DELETE("/:id", deps.OrderHandler.Delete)
			orders.GET("/:id/nearest_driver", deps.OrderHandler.NearestDriver)
			orders.POST("/:id/assign", deps.OrderHandler.Assign)
			orders.POST("/:id/start", deps.OrderHandler.Start)
			orders.POST("/:id/complete", deps.OrderHandler.Complete)
		}
	}

	return router
}
