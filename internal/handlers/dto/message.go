package dto

// MessagePayload данные входящего WebSocket кадра message
type MessagePayload struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id,omitempty"`
}

type SendMessageRequest struct {
	Message  string `json:"message" binding:"required"`
	ClientID string `json:"client_id"`
}
