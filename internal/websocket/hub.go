package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageType определяет типы сообщений
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Чат команды
	TypeHistory    MessageType = "history"
	TypeMessage    MessageType = "message"
	TypeMessageAck MessageType = "message_ack"

	// Лента изменений команд для админов
	TypeTeamEvent MessageType = "team_event"
)

const chatTable = "team_chats"

type Message struct {
	Type      MessageType     `json:"type"`
	TeamID    *uuid.UUID      `json:"team_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChatPayload данные кадров message и message_ack
type ChatPayload struct {
	Message  json.RawMessage `json:"message"`
	ClientID string          `json:"client_id,omitempty"`
}

// ErrorPayload данные кадра error
type ErrorPayload struct {
	Error    string `json:"error"`
	ClientID string `json:"client_id,omitempty"`
}

// Subscriber источник событий для топиков хаба
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (*feed.Subscription, error)
}

type topic struct {
	clients map[uuid.UUID]*Client
	sub     *feed.Subscription
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты и подписка на поток изменений по топику
	topics map[string]*topic

	unregister chan *Client

	feed Subscriber
	log  *zap.Logger

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(subscriber Subscriber, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		topics:      make(map[string]*topic),
		unregister:  make(chan *Client),
		feed:        subscriber,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub: закрывает подписки и все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for name, t := range h.topics {
		_ = t.sub.Close()
		delete(h.topics, name)
	}
	for id, client := range h.clients {
		client.closeSend()
		client.Conn.Close()
		delete(h.clients, id)
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Join регистрирует клиента в топике. Первый клиент топика открывает
// подписку; Join возвращается уже подписанным, поэтому историю нужно
// загружать после него.
func (h *Hub) Join(client *Client, name string) error {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return ErrHubStopped
	}
	if t, ok := h.topics[name]; ok {
		h.addClient(t, client, name)
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	// подтверждение подписки идет через Redis, h.mu не держим
	sub, err := h.feed.Subscribe(h.ctx, name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		_ = sub.Close()
		return ErrHubStopped
	}

	t, ok := h.topics[name]
	if ok {
		// топик успел открыть другой клиент
		_ = sub.Close()
	} else {
		t = &topic{clients: make(map[uuid.UUID]*Client), sub: sub}
		h.topics[name] = t
		go h.forward(name, sub)
		h.log.Debug("topic opened", zap.String("topic", name))
	}

	h.addClient(t, client, name)
	return nil
}

func (h *Hub) addClient(t *topic, client *Client, name string) {
	t.clients[client.ID] = client
	client.Topic = name
	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.log.Debug("client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()),
		zap.String("topic", name))
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// DisconnectUser закрывает все соединения пользователя
func (h *Hub) DisconnectUser(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.userClients[userID]
	for _, client := range clients {
		client.Conn.Close()
	}
	return len(clients)
}

// DisconnectUserFromTopic закрывает соединения пользователя только в одном топике
func (h *Hub) DisconnectUserFromTopic(userID uuid.UUID, name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, client := range h.userClients[userID] {
		if client.Topic == name {
			client.Conn.Close()
			n++
		}
	}
	return n
}

// TopicCount число топиков с открытой подпиской
func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if t, ok := h.topics[client.Topic]; ok {
		delete(t.clients, client.ID)
		if len(t.clients) == 0 {
			_ = t.sub.Close()
			delete(h.topics, client.Topic)
			h.log.Debug("topic closed", zap.String("topic", client.Topic))
		}
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.closeSend()

	h.log.Debug("client unregistered",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()))
}

// forward пересылает события подписки клиентам топика до ее закрытия
func (h *Hub) forward(name string, sub *feed.Subscription) {
	for ev := range sub.Events() {
		msg, err := frame(ev)
		if err != nil {
			h.log.Warn("failed to build frame", zap.String("topic", name), zap.Error(err))
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		h.sendToTopic(name, sub, data)
	}
}

// SendToTopic отправляет сообщение всем клиентам топика
func (h *Hub) SendToTopic(name string, message []byte) {
	h.sendToTopic(name, nil, message)
}

func (h *Hub) sendToTopic(name string, sub *feed.Subscription, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.topics[name]
	if !ok || (sub != nil && t.sub != sub) {
		return
	}
	for _, client := range t.clients {
		if !client.enqueue(message) {
			h.log.Warn("client send channel full", zap.String("client_id", client.ID.String()))
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			client.enqueue(data)
		}
	}
}

// frame превращает событие потока в кадр для клиента
func frame(ev feed.Event) (Message, error) {
	msg := Message{Timestamp: ev.At}

	if ev.Table != chatTable {
		data, err := json.Marshal(ev)
		if err != nil {
			return msg, err
		}
		msg.Type = TypeTeamEvent
		msg.Data = data
		return msg, nil
	}

	var row struct {
		TeamID uuid.UUID `json:"team_id"`
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.Unmarshal(ev.Record, &row); err != nil {
		return msg, err
	}
	data, err := json.Marshal(ChatPayload{Message: ev.Record, ClientID: ev.ClientID})
	if err != nil {
		return msg, err
	}

	msg.Type = TypeMessage
	msg.TeamID = &row.TeamID
	msg.UserID = row.UserID
	msg.Data = data
	return msg, nil
}
