package handlers

import (
	"net/http"

	"github.com/codeforchange/hackportal/internal/handlers/dto"
	"github.com/codeforchange/hackportal/internal/middleware"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teams *services.TeamService
	log   *zap.Logger
}

func NewTeamHandler(teams *services.TeamService, log *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, log: log}
}

// CreateTeam создает команду, вызывающий становится лидером
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.teams.CreateTeam(c.Request.Context(), userID, req.TeamName, req.Profile.Profile())
	if err != nil {
		respondError(c, h.log, err, "failed to create team")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"team":        view,
		"invite_link": view.InviteLink,
	})
}

// Dashboard команда вызывающего с участниками и валидностью
func (h *TeamHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.teams.LoadTeamForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to load team")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.teams.LeaveTeam(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err, "failed to leave team")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have left the team"})
}

func (h *TeamHandler) TransferLeadership(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.TransferLeadershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	newLeaderID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	view, err := h.teams.TransferLeadership(c.Request.Context(), userID, newLeaderID)
	if err != nil {
		respondError(c, h.log, err, "failed to transfer leadership")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TeamHandler) SetProblemStatement(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.ProblemStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.teams.SetProblemStatement(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, h.log, err, "failed to update problem statement")
		return
	}

	c.JSON(http.StatusOK, view)
}

// PreviewJoin публичная страница приглашения
func (h *TeamHandler) PreviewJoin(c *gin.Context) {
	view, err := h.teams.PreviewTeam(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.log, err, "failed to load team")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":              view.Name,
		"code":              view.Code,
		"members":           view.Members,
		"member_count":      view.MemberCount,
		"remaining_slots":   view.RemainingSlots,
		"is_valid":          view.IsValid,
		"registration_open": h.teams.RegistrationOpen(),
	})
}

func (h *TeamHandler) Join(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.teams.JoinTeam(c.Request.Context(), userID, c.Param("code"), req.Profile.Profile())
	if err != nil {
		respondError(c, h.log, err, "failed to join team")
		return
	}

	c.JSON(http.StatusOK, view)
}
