package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (d *Database) ConfirmUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND confirmed_at IS NULL", id).
		Update("confirmed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// уже подтвержден либо не существует
		if _, err := d.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) SetUserRole(ctx context.Context, email string, role models.Role) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *Database) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now().UTC()).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
