package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/vibelink/internal/handlers"
	"github.com/thereayou/vibelink/internal/middleware"
	"github.com/thereayou/vibelink/pkg/auth"
)

type Handlers struct {
	JWT        *auth.JWTManager
	Redis      *redis.Client
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Friendship *handlers.FriendshipHandler
	Chat       *handlers.ChatHandler
	Group      *handlers.GroupHandler
	Upload     *handlers.UploadHandler
	WS         *handlers.WebSocketHandler
}

func APIEndpoints(r *gin.Engine, h *Handlers) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// WebSocket: токен приходит в query
	r.GET("/ws", middleware.WSAuthMiddleware(h.JWT, h.Redis), h.WS.HandleWebSocket)

	// API endpoints
	api := r.Group("/api", middleware.AuthMiddleware(h.JWT, h.Redis))
	{
		api.GET("/profile", h.User.GetMe)
		api.PUT("/profile", h.User.UpdateMe)
		api.GET("/users/:id", h.User.GetUser)

		presence := api.Group("/presence")
		{
			presence.GET("", h.User.GetOnlineUsers)
			presence.GET("/:userId", h.User.GetUserPresence)
		}

		friendships := api.Group("/friendships")
		{
			friendships.POST("/request", h.Friendship.SendRequest)
			friendships.POST("/request/:friendshipId/accept", h.Friendship.Accept)
			friendships.POST("/request/:friendshipId/reject", h.Friendship.Reject)
			friendships.POST("/request/:friendshipId/cancel", h.Friendship.Cancel)
			friendships.GET("/pending", h.Friendship.GetPending)
			friendships.GET("/friends", h.Friendship.GetFriends)
			friendships.DELETE("/unfriend/:friendId", h.Friendship.Unfriend)
			friendships.GET("/search", h.Friendship.Search)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/send", h.Chat.SendMessage)
			chat.GET("/history/:userId", h.Chat.GetHistory)
			chat.GET("/history/:userId/latest", h.Chat.GetLatest)
			chat.POST("/mark-as-read/:messageId", h.Chat.MarkAsRead)
		}

		groups := api.Group("/groups")
		{
			groups.POST("", h.Group.CreateGroup)
			groups.GET("", h.Group.GetMyGroups)
			groups.POST("/:groupId/messages", h.Group.SendMessage)
			groups.GET("/:groupId/messages", h.Group.GetMessages)
			groups.GET("/:groupId/members", h.Group.GetMembers)
			groups.POST("/:groupId/members", h.Group.AddMember)
			groups.PUT("/:groupId/name", h.Group.Rename)
			groups.PUT("/:groupId/avatar", h.Group.ChangeAvatar)
		}

		uploads := api.Group("/upload")
		{
			uploads.POST("/image", h.Upload.UploadImage)
			uploads.POST("/group-image", h.Upload.UploadGroupImage)
		}
	}
}
