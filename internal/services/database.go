package services

import (
	"context"
	"time"

	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
)

// TeamStore транзакционные операции над командами; реализуется database.Database
type TeamStore interface {
	CreateTeamWithLeader(ctx context.Context, team *models.Team, leader *models.TeamMember, profile *models.UserProfile) error
	AddMemberByCode(ctx context.Context, code string, member *models.TeamMember, profile *models.UserProfile, maxSize int) (*models.Team, error)
	RemoveMember(ctx context.Context, userID uuid.UUID) (*models.TeamMember, error)
	TransferLeadership(ctx context.Context, leaderID, newLeaderID uuid.UUID) (*models.Team, error)
	FindTeamForUser(ctx context.Context, userID uuid.UUID) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamByCode(ctx context.Context, code string) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	SetProblemStatement(ctx context.Context, teamID uuid.UUID, code string) error
}

type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ConfirmUser(ctx context.Context, id uuid.UUID, at time.Time) error
	SetUserRole(ctx context.Context, email string, role models.Role) error
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.ChatMessage) error
	GetTeamMessages(ctx context.Context, teamID uuid.UUID, limit int) ([]models.ChatMessage, error)
	IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

// Publisher публикует события в поток изменений
type Publisher interface {
	Publish(ctx context.Context, topic string, ev feed.Event) error
}
