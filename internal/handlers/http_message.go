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

type HTTPMessageHandler struct {
	chat *services.ChatService
	log  *zap.Logger
}

func NewHTTPMessageHandler(chat *services.ChatService, log *zap.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{chat: chat, log: log}
}

// GetTeamMessages получает историю сообщений команды
func (h *HTTPMessageHandler) GetTeamMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	messages, err := h.chat.History(c.Request.Context(), teamID, userID)
	if err != nil {
		respondError(c, h.log, err, "failed to get messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage отправляет сообщение через HTTP (альтернатива WebSocket)
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), teamID, userID, req.Message, req.ClientID)
	if err != nil {
		respondError(c, h.log, err, "failed to send message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   msg,
		"client_id": req.ClientID,
	})
}
