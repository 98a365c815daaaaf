package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"socialhub/domain/repository"
	"socialhub/infrastructure/configuration"
	httpHandler "socialhub/interfaces/http"
	"socialhub/interfaces/middleware"
)

type Handlers struct {
	User   httpHandler.IUserHandler
	Video  httpHandler.IVideoHandler
	OAuth  httpHandler.IOAuthHandler
	Health httpHandler.IHealthHandler
	// Events streams upload status to the signed-in user.
	Events gin.HandlerFunc
}

func InitiateRouter(handlers Handlers, userRepository repository.IUser) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     configuration.C.App.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", handlers.User.Login)
	router.POST("/register", handlers.User.Register)
	router.POST("/auth/forgot-password", handlers.User.ForgotPassword)
	router.POST("/auth/reset-password", handlers.User.ResetPassword)
	router.GET("/healthz", handlers.Health.Healthz)

	// Platforms redirect the browser here, so no bearer token is present.
	router.GET("/:platform/callback", handlers.OAuth.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository, configuration.C.App.SecretKey))

	api.GET("/me", handlers.User.Me)
	api.POST("/auth/change-password", handlers.User.ChangePassword)

	api.POST("/upload", handlers.Video.Upload)
	api.GET("/videos", handlers.Video.List)
	if handlers.Events != nil {
		api.GET("/videos/events", handlers.Events)
	}
	api.GET("/videos/:videoId", handlers.Video.Get)
	api.PATCH("/videos/:videoId", handlers.Video.Update)
	api.DELETE("/videos/:videoId", handlers.Video.Delete)
	api.GET("/videos/:videoId/history", handlers.Video.History)

	api.GET("/platforms", handlers.OAuth.Status)
	api.POST("/youtube/client-secrets", handlers.OAuth.ClientSecrets)
	api.POST("/youtube/connect", handlers.OAuth.ClientSecrets)
	api.GET("/:platform/connect", handlers.OAuth.Connect)
	api.POST("/:platform/refresh", handlers.OAuth.Refresh)
	api.DELETE("/:platform/disconnect", handlers.OAuth.Disconnect)

	return router
}
