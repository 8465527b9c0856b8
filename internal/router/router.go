package router

import (
	"time"

	"github.com/codeforchange/hackportal/internal/config"
	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/handlers"
	"github.com/codeforchange/hackportal/internal/middleware"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/internal/services"
	ws "github.com/codeforchange/hackportal/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	Teams  *handlers.TeamHandler
	Admin  *handlers.AdminHandler
	Chat   *handlers.HTTPMessageHandler
	Socket *handlers.WebSocketHandler
	Public *handlers.PublicHandler
}

// Services то, из чего собираются обработчики
type Services struct {
	Auth  *services.AuthService
	Teams *services.TeamService
	Chat  *services.ChatService
	Hub   *ws.Hub
}

func NewHandlers(cfg *config.Config, s Services, checks map[string]handlers.Pinger, log *zap.Logger) Handlers {
	return Handlers{
		Auth:   handlers.NewAuthHandler(s.Auth, log),
		Teams:  handlers.NewTeamHandler(s.Teams, log),
		Admin:  handlers.NewAdminHandler(s.Teams, log),
		Chat:   handlers.NewHTTPMessageHandler(s.Chat, log),
		Socket: handlers.NewWebSocketHandler(s.Hub, s.Chat, handlers.NewMessageHandler(s.Chat, log), cfg.CORSOrigins, log),
		Public: handlers.NewPublicHandler(cfg.EventName, s.Teams, checks, log),
	}
}

// BindHub закрывает живые соединения, когда у пользователя пропадает доступ:
// выход из аккаунта рвет все его соединения, выход из команды только чат этой команды.
func BindHub(s Services, log *zap.Logger) (unsubscribe func()) {
	offAuth := s.Auth.OnAuthStateChange(func(ev services.AuthEvent) {
		if ev.Type != services.SignedOut {
			return
		}
		if n := s.Hub.DisconnectUser(ev.UserID); n > 0 {
			log.Info("closed websocket connections on sign out",
				zap.String("user_id", ev.UserID.String()), zap.Int("connections", n))
		}
	})

	offTeams := s.Teams.OnMemberLeft(func(ev services.MemberLeft) {
		if n := s.Hub.DisconnectUserFromTopic(ev.UserID, feed.TeamChatTopic(ev.TeamID)); n > 0 {
			log.Info("closed team chat connections on leave",
				zap.String("team_id", ev.TeamID.String()),
				zap.String("user_id", ev.UserID.String()),
				zap.Int("connections", n))
		}
	})

	return func() {
		offAuth()
		offTeams()
	}
}

func NewRouter(cfg *config.Config, log *zap.Logger, authn middleware.Authenticator, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	APIEndpoints(r, authn, h)
	return r
}

func APIEndpoints(r *gin.Engine, authn middleware.Authenticator, h Handlers) {
	requireAuth := middleware.AuthMiddleware(authn)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	r.GET("/", h.Public.Index)
	r.GET("/healthz", h.Public.Healthz)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.GET("/confirm", h.Auth.Confirm)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", requireAuth, h.Auth.Me)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	// Приглашения: просмотр публичный, вступление требует входа
	join := r.Group("/join")
	{
		join.GET("/:code", h.Teams.PreviewJoin)
		join.POST("/:code", requireAuth, h.Teams.Join)
	}

	api := r.Group("/api", requireAuth)
	{
		api.GET("/dashboard", h.Teams.Dashboard)
		api.POST("/teams", h.Teams.CreateTeam)
		api.DELETE("/teams/membership", h.Teams.LeaveTeam)
		api.PUT("/teams/leader", h.Teams.TransferLeadership)
		api.PUT("/teams/problem-statement", h.Teams.SetProblemStatement)

		api.GET("/teams/:id/messages", h.Chat.GetTeamMessages)
		api.POST("/teams/:id/messages", h.Chat.SendMessage)

		admin := api.Group("/admin", requireAdmin)
		{
			admin.GET("/teams", h.Admin.ListTeams)
			admin.GET("/teams/report", h.Admin.DownloadReport)
		}
	}

	wsGroup := r.Group("/ws", middleware.WSAuthMiddleware(authn))
	{
		wsGroup.GET("/teams/:id/chat", h.Socket.TeamChat)
		wsGroup.GET("/admin/teams", requireAdmin, h.Socket.AdminFeed)
	}
}
