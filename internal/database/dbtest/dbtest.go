// Package dbtest поднимает in-memory SQLite базу для тестов
package dbtest

import (
	"context"
	"testing"

	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New возвращает мигрированную базу. Одно соединение: in-memory база
// живет в пределах соединения, а транзакции выполняются строго по очереди.
func New(t testing.TB) *database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Config())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	d := database.NewDatabase(db)
	require.NoError(t, d.Migrate())
	return d
}

// User создает подтвержденного участника
func User(t testing.TB, d *database.Database, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "x",
	}
	require.NoError(t, d.SaveUser(context.Background(), user))
	return user
}
