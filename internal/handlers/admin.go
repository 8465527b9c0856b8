package handlers

import (
	"net/http"

	"github.com/codeforchange/hackportal/internal/handlers/dto"
	"github.com/codeforchange/hackportal/internal/report"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	teams *services.TeamService
	log   *zap.Logger
}

func NewAdminHandler(teams *services.TeamService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{teams: teams, log: log}
}

func (h *AdminHandler) ListTeams(c *gin.Context) {
	views, err := h.teams.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to load teams")
		return
	}

	c.JSON(http.StatusOK, dto.NewAdminTeamsResponse(views))
}

// DownloadReport отдает XLSX отчет по всем командам
func (h *AdminHandler) DownloadReport(c *gin.Context) {
	views, err := h.teams.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to load teams")
		return
	}

	book, err := report.Build(views)
	if err != nil {
		respondError(c, h.log, err, "failed to build report")
		return
	}
	defer book.Close()

	c.Header("Content-Type", report.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Status(http.StatusOK)
	if err := book.Write(c.Writer); err != nil {
		h.log.Error("failed to write report", zap.Error(err))
	}
}
