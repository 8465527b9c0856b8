package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/codeforchange/hackportal/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger проверка доступности зависимости
type Pinger func(ctx context.Context) error

type PublicHandler struct {
	eventName string
	teams     *services.TeamService
	checks    map[string]Pinger
	log       *zap.Logger
}

func NewPublicHandler(eventName string, teams *services.TeamService, checks map[string]Pinger, log *zap.Logger) *PublicHandler {
	return &PublicHandler{eventName: eventName, teams: teams, checks: checks, log: log}
}

// Index информация о мероприятии
func (h *PublicHandler) Index(c *gin.Context) {
	cfg := h.teams.Config()
	c.JSON(http.StatusOK, gin.H{
		"event":                      h.eventName,
		"registration_open":          h.teams.RegistrationOpen(),
		"registration_deadline":      deadline(cfg.RegistrationDeadline),
		"problem_statement_deadline": deadline(cfg.ProblemStatementDeadline),
	})
}

func (h *PublicHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			result[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	c.JSON(status, result)
}

func deadline(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
