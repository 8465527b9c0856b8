package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/codeforchange/hackportal/internal/config"
	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/handlers"
	"github.com/codeforchange/hackportal/internal/router"
	"github.com/codeforchange/hackportal/internal/services"
	ws "github.com/codeforchange/hackportal/internal/websocket"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg *config.Config
	log *zap.Logger

	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Auth   *services.AuthService

	unsubscribe func()
}

func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	changes := feed.New(rdb, log.Named("feed"))
	hub := ws.NewHub(changes, log.Named("hub"))

	authService := services.NewAuthService(dbConn, rdb, jwtMgr, log.Named("auth"), services.AuthConfig{
		RequireConfirmation: cfg.RequireEmailConfirmation,
		PublicOrigin:        cfg.PublicOrigin,
	})
	teamService := services.NewTeamService(dbConn, changes, log.Named("teams"), services.TeamConfig{
		PublicOrigin:             cfg.PublicOrigin,
		RegistrationDeadline:     cfg.RegistrationDeadline,
		ProblemStatementDeadline: cfg.ProblemStatementDeadline,
	})
	chatService := services.NewChatService(dbConn, changes, log.Named("chat"))

	svcs := router.Services{Auth: authService, Teams: teamService, Chat: chatService, Hub: hub}
	unsubscribe := router.BindHub(svcs, log)

	h := router.NewHandlers(cfg, svcs, map[string]handlers.Pinger{
		"postgres": dbConn.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.NewRouter(cfg, log, authService, h)

	return &Server{
		cfg:         cfg,
		log:         log,
		Router:      r,
		DB:          dbConn,
		Redis:       rdb,
		Hub:         hub,
		Auth:        authService,
		unsubscribe: unsubscribe,
	}, nil
}

// Run обслуживает HTTP до отмены ctx, затем останавливает сервер и хаб
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Hub.Run()
		return nil
	})

	g.Go(func() error {
		s.log.Info("server starting", zap.String("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.Hub.Stop()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if err := s.Redis.Close(); err != nil {
		s.log.Warn("redis close", zap.Error(err))
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("postgres close", zap.Error(err))
	}
}
