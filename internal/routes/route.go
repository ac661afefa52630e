package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/krishna100204/EventApp/internal/container"
	"github.com/krishna100204/EventApp/internal/handlers"
	"github.com/krishna100204/EventApp/internal/middleware"
	"github.com/krishna100204/EventApp/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/ws", gin.WrapH(container.Realtime))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
				"status":   "OK",
				"service":  "eventapp-api",
				"realtime": container.Registry.Stats(),
			}, ""))
		})

		limit := middleware.RateLimit(container.AuthLimiter, container.Config.AuthRatePerMinute)
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit, handlers.Register(container.UserService))
			auth.POST("/login", limit, handlers.Login(container.UserService))
			auth.POST("/guest", handlers.Guest(container.UserService))
			auth.GET("/me", middleware.AuthMiddleware(container.Tokens, container.Logger), handlers.Me(container.UserService))
		}

		events := api.Group("/events")
		{
			events.GET("", handlers.ListEvents(container.EventService))
			events.GET("/:eventId", handlers.GetEvent(container.EventService))
		}

		protected := events.Group("")
		protected.Use(middleware.AuthMiddleware(container.Tokens, container.Logger))
		{
			protected.POST("", handlers.CreateEvent(container.EventService))
			protected.POST("/:eventId/attend", handlers.AttendEvent(container.EventService))
		}
	}

	return r
}
