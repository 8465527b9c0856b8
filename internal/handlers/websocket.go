package handlers

import (
	"net/http"

	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/middleware"
	"github.com/codeforchange/hackportal/internal/services"
	ws "github.com/codeforchange/hackportal/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub            *ws.Hub
	chat           *services.ChatService
	messageHandler *MessageHandler
	upgrader       websocket.Upgrader
	log            *zap.Logger
}

// NewWebSocketHandler создает новый WebSocket handler; пустой allowedOrigins разрешает любой origin
func NewWebSocketHandler(hub *ws.Hub, chat *services.ChatService, messageHandler *MessageHandler, allowedOrigins []string, log *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub:            hub,
		chat:           chat,
		messageHandler: messageHandler,
		log:            log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// TeamChat подключает участника к чату команды. Подписка открывается до
// загрузки истории; дубли между историей и живыми событиями убирает клиент.
func (h *WebSocketHandler) TeamChat(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	if err := h.chat.CanAccess(c.Request.Context(), teamID, userID); err != nil {
		respondError(c, h.log, err, "failed to open chat")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	client.TeamID = &teamID

	if err := h.hub.Join(client, feed.TeamChatTopic(teamID)); err != nil {
		h.log.Error("failed to join chat topic", zap.String("team_id", teamID.String()), zap.Error(err))
		conn.Close()
		return
	}

	go client.WritePump()

	history, err := h.chat.History(c.Request.Context(), teamID, userID)
	if err != nil {
		h.log.Error("failed to load chat history", zap.String("team_id", teamID.String()), zap.Error(err))
		client.SendError("failed to get messages", "")
	} else if err := client.SendMessage(ws.TypeHistory, history); err != nil {
		h.log.Warn("failed to send history", zap.Error(err))
	}

	go client.ReadPump(h.messageHandler)
}

// AdminFeed живая лента изменений команд, только чтение
func (h *WebSocketHandler) AdminFeed(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	if err := h.hub.Join(client, feed.TeamsTopic); err != nil {
		h.log.Error("failed to join teams topic", zap.Error(err))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(nil)
}
