package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinTeamSize = 3
	MaxTeamSize = 5
)

type Team struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string       `gorm:"size:100;not null" json:"name"`
	Code             string       `gorm:"size:6;uniqueIndex;not null" json:"code"`
	LeaderID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"leader_id"`
	ProblemStatement *string      `gorm:"size:16" json:"problem_statement,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	Members          []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TeamMember строка участия; user_id уникален во всей таблице,
// поэтому пользователь не может состоять в двух командах
type TeamMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID   uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `gorm:"not null" json:"email"`
	College  string    `json:"college"`
	IsLeader bool      `gorm:"not null;default:false" json:"is_leader"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
