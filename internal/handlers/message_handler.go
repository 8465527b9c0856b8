package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/codeforchange/hackportal/internal/handlers/dto"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/codeforchange/hackportal/internal/websocket"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// MessageHandler обрабатывает кадры, пришедшие от клиента командного чата
type MessageHandler struct {
	chat *services.ChatService
	log  *zap.Logger
}

func NewMessageHandler(chat *services.ChatService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, log: log}
}

func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeMessage:
		return h.handleTextMessage(client, msg)

	default:
		h.log.Debug("unknown message type", zap.String("type", string(msg.Type)))
		return websocket.ErrInvalidMessage
	}
}

// handleTextMessage сохраняет сообщение; отправитель получает message_ack
// или error с тем же client_id
func (h *MessageHandler) handleTextMessage(client *websocket.Client, msg *websocket.Message) error {
	if client.TeamID == nil {
		return websocket.ErrInvalidMessage
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	saved, err := h.chat.Send(ctx, *client.TeamID, client.UserID, payload.Content, payload.ClientID)
	if err != nil {
		status, text := errorResponse(err, "failed to send message")
		if status == http.StatusInternalServerError {
			h.log.Error("failed to send message", zap.String("team_id", client.TeamID.String()), zap.Error(err))
		}
		client.SendError(text, payload.ClientID)
		return nil
	}

	record, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return client.SendMessage(websocket.TypeMessageAck, websocket.ChatPayload{Message: record, ClientID: payload.ClientID})
}
