package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/handlers"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/realtime"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps holds everything the HTTP surface is built from.
type Deps struct {
	Rooms         *services.RoomService
	Proposals     *services.ProposalService
	Friendships   *services.FriendshipService
	Notifications *services.NotificationService
	Users         *services.UserService

	Authenticator *auth.Authenticator
	Gateway       *realtime.Gateway

	AllowedOrigins []string
	// DevLogin exposes POST /api/auth/login.
	DevLogin bool
	Logger   *slog.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Logger != nil {
		r.Use(middleware.RequestLogger(deps.Logger))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	roomHandler := handlers.NewRoomHandler(deps.Rooms)
	proposalHandler := handlers.NewProposalHandler(deps.Proposals)
	friendshipHandler := handlers.NewFriendshipHandler(deps.Friendships)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	userHandler := handlers.NewUserHandler(deps.Users)

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.Gateway != nil {
			users, rooms := deps.Gateway.Stats()
			body["sockets"] = gin.H{"users": users, "rooms": rooms}
		}
		c.JSON(http.StatusOK, body)
	})

	if deps.Gateway != nil {
		r.GET("/ws", deps.Gateway.Handle)
	}

	requireAuth := middleware.RequireAuth(deps.Authenticator)
	withID := middleware.RequireIDParams("id")
	withUserID := middleware.RequireIDParams("user_id")

	api := r.Group("/api")
	{
		if deps.DevLogin {
			authHandler := handlers.NewAuthHandler(deps.Users, deps.Authenticator.Tokens())
			api.POST("/auth/login", authHandler.Login)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/me", userHandler.GetCurrentUser)
			users.DELETE("/me", userHandler.DeleteAccount)
		}

		rooms := api.Group("/rooms", requireAuth)
		{
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id", withID, roomHandler.GetRoom)
			rooms.PATCH("/:id", withID, roomHandler.UpdateRoom)
			rooms.DELETE("/:id", withID, roomHandler.DeleteRoom)
			rooms.POST("/:id/join", withID, roomHandler.JoinRoom)
			rooms.POST("/:id/leave", withID, roomHandler.LeaveRoom)
			rooms.GET("/:id/members", withID, roomHandler.ListMembers)
			rooms.PATCH("/:id/members/:user_id", withID, withUserID, roomHandler.UpdateMemberRole)
			rooms.DELETE("/:id/members/:user_id", withID, withUserID, roomHandler.KickMember)
			rooms.POST("/:id/proposals", withID, proposalHandler.CreateProposal)
			rooms.GET("/:id/proposals", withID, proposalHandler.ListProposals)
		}

		proposals := api.Group("/proposals", requireAuth, withID)
		{
			proposals.GET("/:id", proposalHandler.GetProposal)
			proposals.PATCH("/:id", proposalHandler.UpdateProposal)
			proposals.DELETE("/:id", proposalHandler.DeleteProposal)
			proposals.POST("/:id/select", proposalHandler.SelectProposal)
			proposals.PUT("/:id/vote", proposalHandler.Vote)
			proposals.PATCH("/:id/vote", proposalHandler.UpdateVote)
			proposals.DELETE("/:id/vote", proposalHandler.DeleteVote)
			proposals.GET("/:id/votes", proposalHandler.ListVotes)
			proposals.POST("/:id/activities", proposalHandler.CreateActivity)
			proposals.GET("/:id/activities", proposalHandler.ListActivities)
		}

		activities := api.Group("/activities", requireAuth, withID)
		{
			activities.PATCH("/:id", proposalHandler.UpdateActivity)
			activities.DELETE("/:id", proposalHandler.DeleteActivity)
		}

		friends := api.Group("/friends", requireAuth)
		{
			friends.GET("", friendshipHandler.ListFriends)
			friends.GET("/requests", friendshipHandler.ListPendingRequests)
			friends.GET("/requests/sent", friendshipHandler.ListSentRequests)
			friends.POST("/:user_id/request", withUserID, friendshipHandler.SendRequest)
			friends.POST("/:user_id/accept", withUserID, friendshipHandler.AcceptRequest)
			friends.POST("/:user_id/reject", withUserID, friendshipHandler.RejectRequest)
			friends.POST("/:user_id/block", withUserID, friendshipHandler.BlockUser)
			friends.POST("/:user_id/unblock", withUserID, friendshipHandler.UnblockUser)
			friends.DELETE("/:user_id", withUserID, friendshipHandler.DeleteFriend)
		}

		notifications := api.Group("/notifications", requireAuth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
			notifications.POST("/:id/read", withID, notificationHandler.MarkAsRead)
			notifications.POST("/:id/answer", withID, notificationHandler.AnswerNotification)
		}
	}

	return r
}
