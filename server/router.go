package server

import (
	"net/http"
	"time"

	"pin-scheduler/infrastructure/realtime"
	httpHandler "pin-scheduler/interfaces/http"
	"pin-scheduler/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	healthHandler httpHandler.IHealthHandler,
	oauthHandler httpHandler.IOAuthHandler,
	proxyHandler httpHandler.IPinterestProxyHandler,
	pinHandler httpHandler.IPinHandler,
	boardHandler httpHandler.IBoardHandler,
	schedulerHandler httpHandler.IPinSchedulerHandler,
	publisherHandler httpHandler.IPublisherHandler,
	accountHandler httpHandler.IAccountHandler,
	hub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.Preflight())

	router.GET("/healthz", healthHandler.Healthz)

	// OAuth
	router.GET("/oauth/url", oauthHandler.AuthURL)
	router.GET("/token", oauthHandler.Token)
	router.GET("/callback", oauthHandler.Callback)

	// Pinterest API
	router.Any("/pinterest-api", proxyHandler.Forward)
	router.Any("/pinterest/*path", proxyHandler.Forward)
	router.POST("/pins", pinHandler.CreatePin)
	router.GET("/boards", middleware.Bearer("Authorization required"), boardHandler.ListBoards)

	scheduler := router.Group("/pin-scheduler")
	{
		scheduler.GET("", schedulerHandler.List)
		scheduler.POST("", schedulerHandler.Create)
		scheduler.POST("/bulk", schedulerHandler.Bulk)
		scheduler.GET("/bulk/template", schedulerHandler.Template)
		scheduler.GET("/:id", schedulerHandler.Get)
		scheduler.PATCH("/:id", schedulerHandler.Update)
		scheduler.DELETE("/:id", schedulerHandler.Delete)
		scheduler.POST("/:id/publish", schedulerHandler.PublishNow)
	}
	router.POST("/scheduled-publisher", publisherHandler.Run)

	accounts := router.Group("/accounts")
	{
		accounts.GET("", accountHandler.List)
		accounts.PUT("/active", accountHandler.Switch)
		accounts.DELETE("/:username", accountHandler.Remove)
	}

	if hub != nil {
		router.GET("/events", hub.Serve)
	}

	return router
}
