package router

import (
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
	"github.com/biruk-77/bysell-backend-sub000/internal/handler"
	"github.com/biruk-77/bysell-backend-sub000/internal/middleware"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"
	"github.com/biruk-77/bysell-backend-sub000/internal/ws"
	"github.com/biruk-77/bysell-backend-sub000/pkg/cloudinary"
	"github.com/biruk-77/bysell-backend-sub000/pkg/sms"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers into the route table and
// returns the engine plus the presence sweeper, whose lifecycle the caller
// owns.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, sender sms.Sender) (*gin.Engine, *service.PresenceSweeper) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	postRepo := repository.NewPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// The hub is an explicit instance injected into everything that fans out.
	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, otpRepo, sender)
	notifSvc := service.NewNotificationService(notificationRepo, hub)
	chatSvc := service.NewChatService(messageRepo, userRepo, connRepo, presenceRepo, hub)
	sweeper := service.NewPresenceSweeper(presenceRepo,
		cfg.Chat.SweepInterval, cfg.Chat.StaleWindow, cfg.Chat.TypingWindow)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	connectionHandler := handler.NewConnectionHandler(connRepo, userRepo, notifSvc)
	postHandler := handler.NewPostHandler(postRepo, connRepo, userRepo, notifSvc, cloud)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	presenceHandler := handler.NewPresenceHandler(presenceRepo, hub)
	meHandler := handler.NewMeHandler(userRepo, cloud)
	adminHandler := handler.NewAdminHandler(adminRepo, authSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	otpLimiter := middleware.NewInMemoryRateLimiter(5, time.Minute)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/otp/request", middleware.RateLimit(otpLimiter), authHandler.RequestOTP)
			authGroup.POST("/otp/verify", authHandler.VerifyOTP)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/profile", meHandler.UpdateProfile)
			me.POST("/avatar", meHandler.UploadAvatar)
			me.PATCH("/presence", presenceHandler.SetPresence)
			me.GET("/presence", presenceHandler.GetMyPresence)
			me.GET("/connections", connectionHandler.ListAccepted)
			me.GET("/connections/pending", connectionHandler.ListPending)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		api.GET("/users/search", authMw, meHandler.SearchUsers)
		api.GET("/users/:id", authMw, meHandler.GetUser)
		api.GET("/users/:id/presence", authMw, presenceHandler.GetUserPresence)
		api.GET("/users/:id/posts", authMw, postHandler.ListByUser)

		api.POST("/connections", authMw, connectionHandler.Create)
		api.POST("/connections/:id/accept", authMw, connectionHandler.Accept)
		api.POST("/connections/:id/reject", authMw, connectionHandler.Reject)
		api.DELETE("/connections/:id", authMw, connectionHandler.Remove)

		chat := api.Group("/chat")
		chat.Use(authMw)
		{
			chat.GET("/conversations", chatHandler.ListConversations)
			chat.GET("/conversation/:other_user_id", chatHandler.GetConversation)
			chat.PUT("/read/:other_user_id", chatHandler.MarkRead)
			chat.DELETE("/messages/:message_id", chatHandler.DeleteMessage)
		}

		posts := api.Group("/posts")
		posts.Use(authMw)
		{
			posts.POST("", postHandler.Create)
			posts.GET("/feed", postHandler.Feed)
			posts.GET("/:id", postHandler.Get)
			posts.DELETE("/:id", postHandler.Delete)
			posts.POST("/:id/like", postHandler.Like)
			posts.DELETE("/:id/like", postHandler.Unlike)
			posts.POST("/:id/comments", postHandler.Comment)
			posts.GET("/:id/comments", postHandler.ListComments)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)
			protected := admin.Group("")
			protected.Use(authMw, middleware.AdminRequired())
			{
				protected.GET("/dashboard", adminHandler.Dashboard)
				protected.GET("/users", adminHandler.ListUsers)
				protected.GET("/users/:id", adminHandler.GetUser)
				protected.PATCH("/users/:id/ban", adminHandler.SetBan)
				protected.GET("/stats/messages", adminHandler.MessageVolume)
			}
		}
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, hub, chatSvc, connRepo, presenceRepo))

	return r, sweeper
}
