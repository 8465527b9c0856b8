package database

import (
	"context"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertProfile идемпотентная запись профиля по user_id
func (d *Database) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	return upsertProfile(d.db.WithContext(ctx), profile)
}

func (d *Database) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := d.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &profile, nil
}

func upsertProfile(tx *gorm.DB, profile *models.UserProfile) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "college", "updated_at"}),
	}).Create(profile).Error
}
