package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxMessageLength = 2000

type ChatService struct {
	store  MessageStore
	events Publisher
	log    *zap.Logger
}

func NewChatService(store MessageStore, events Publisher, log *zap.Logger) *ChatService {
	return &ChatService{store: store, events: events, log: log}
}

// CanAccess возвращает ErrNotTeamMember для посторонних
func (s *ChatService) CanAccess(ctx context.Context, teamID, userID uuid.UUID) error {
	ok, err := s.store.IsTeamMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotTeamMember
	}
	return nil
}

// History вся история команды по возрастанию created_at, id
func (s *ChatService) History(ctx context.Context, teamID, userID uuid.UUID) ([]models.ChatMessage, error) {
	if err := s.CanAccess(ctx, teamID, userID); err != nil {
		return nil, err
	}

	messages, err := s.store.GetTeamMessages(ctx, teamID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// Send сохраняет сообщение и публикует INSERT с client_id отправителя.
// Повторов нет: ошибка возвращается вызывающему.
func (s *ChatService) Send(ctx context.Context, teamID, userID uuid.UUID, text, clientID string) (*models.ChatMessage, error) {
	if err := s.CanAccess(ctx, teamID, userID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	msg := &models.ChatMessage{TeamID: teamID, UserID: userID, Message: text}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if err := s.publish(ctx, msg, clientID); err != nil {
		// сообщение сохранено; отправитель получит его в ответе
		s.log.Warn("failed to publish chat message",
			zap.String("team_id", teamID.String()),
			zap.String("message_id", msg.ID.String()),
			zap.Error(err))
	}

	return msg, nil
}

func (s *ChatService) publish(ctx context.Context, msg *models.ChatMessage, clientID string) error {
	if s.events == nil {
		return nil
	}
	ev, err := feed.NewEvent(feed.Insert, "team_chats", msg)
	if err != nil {
		return err
	}
	ev.ClientID = clientID
	return s.events.Publish(ctx, feed.TeamChatTopic(msg.TeamID), ev)
}
