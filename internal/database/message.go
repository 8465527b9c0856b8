package database

import (
	"context"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.ChatMessage) error {
	return d.db.WithContext(ctx).Create(message).Error
}

// GetTeamMessages возвращает историю чата по возрастанию created_at
func (d *Database) GetTeamMessages(ctx context.Context, teamID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage

	query := d.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// Разворачиваем, чтобы старые сообщения шли первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
