package database

import (
	"context"
	"errors"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTeamWithLeader создает команду, профиль и строку лидера одной транзакцией.
// Проверка членства и вставка атомарны; уникальный индекс по user_id
// страхует от гонок между разными соединениями.
func (d *Database) CreateTeamWithLeader(ctx context.Context, team *models.Team, leader *models.TeamMember, profile *models.UserProfile) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNotMember(tx, team.LeaderID); err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.Team{}).Where("code = ?", team.Code).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrCodeTaken
		}

		if err := tx.Create(team).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCodeTaken
			}
			return err
		}

		if err := upsertProfile(tx, profile); err != nil {
			return err
		}

		leader.TeamID = team.ID
		leader.UserID = team.LeaderID
		leader.IsLeader = true
		if err := tx.Create(leader).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyInTeam
			}
			return err
		}

		team.Members = []models.TeamMember{*leader}
		return nil
	})
}

// AddMemberByCode добавляет участника в команду с кодом code.
// Строка команды блокируется (SELECT ... FOR UPDATE), поэтому параллельные
// вступления в одну команду сериализуются и не превышают maxSize.
func (d *Database) AddMemberByCode(ctx context.Context, code string, member *models.TeamMember, profile *models.UserProfile, maxSize int) (*models.Team, error) {
	var team models.Team

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&team).Error
		if err != nil {
			return notFound(err, ErrTeamNotFound)
		}

		var count int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(maxSize) {
			return ErrTeamFull
		}

		if err := ensureNotMember(tx, member.UserID); err != nil {
			return err
		}

		if err := upsertProfile(tx, profile); err != nil {
			return err
		}

		member.TeamID = team.ID
		member.IsLeader = false
		if err := tx.Create(member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyInTeam
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

// RemoveMember удаляет ровно одну строку - строку самого пользователя
func (d *Database) RemoveMember(ctx context.Context, userID uuid.UUID) (*models.TeamMember, error) {
	var member models.TeamMember

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&member).Error; err != nil {
			return notFound(err, ErrNotInTeam)
		}

		if member.IsLeader {
			return ErrLeaderCannotLeave
		}

		var leads int64
		if err := tx.Model(&models.Team{}).Where("id = ? AND leader_id = ?", member.TeamID, userID).Count(&leads).Error; err != nil {
			return err
		}
		if leads > 0 {
			return ErrLeaderCannotLeave
		}

		return tx.Where("id = ? AND user_id = ?", member.ID, userID).Delete(&models.TeamMember{}).Error
	})
	if err != nil {
		return nil, err
	}

	return &member, nil
}

// TransferLeadership передает лидерство другому участнику той же команды
func (d *Database) TransferLeadership(ctx context.Context, leaderID, newLeaderID uuid.UUID) (*models.Team, error) {
	var team models.Team

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("leader_id = ?", leaderID).
			First(&team).Error
		if err != nil {
			return notFound(err, ErrNotLeader)
		}

		var target models.TeamMember
		if err := tx.Where("team_id = ? AND user_id = ?", team.ID, newLeaderID).First(&target).Error; err != nil {
			return notFound(err, ErrNotInTeam)
		}

		if err := tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", team.ID, leaderID).
			Update("is_leader", false).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TeamMember{}).
			Where("id = ?", target.ID).
			Update("is_leader", true).Error; err != nil {
			return err
		}

		team.LeaderID = newLeaderID
		return tx.Model(&models.Team{}).Where("id = ?", team.ID).Update("leader_id", newLeaderID).Error
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

// FindTeamForUser ищет команду сначала по leader_id, затем по строке участника
func (d *Database) FindTeamForUser(ctx context.Context, userID uuid.UUID) (*models.Team, error) {
	db := d.db.WithContext(ctx)

	var team models.Team
	err := db.Where("leader_id = ?", userID).First(&team).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err != nil {
		var member models.TeamMember
		if err := db.Where("user_id = ?", userID).First(&member).Error; err != nil {
			return nil, notFound(err, ErrNotInTeam)
		}
		if err := db.First(&team, "id = ?", member.TeamID).Error; err != nil {
			return nil, notFound(err, ErrTeamNotFound)
		}
	}

	if err := d.loadMembers(db, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (d *Database) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	db := d.db.WithContext(ctx)

	var team models.Team
	if err := db.First(&team, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrTeamNotFound)
	}
	if err := d.loadMembers(db, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (d *Database) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	db := d.db.WithContext(ctx)

	var team models.Team
	if err := db.Where("code = ?", code).First(&team).Error; err != nil {
		return nil, notFound(err, ErrTeamNotFound)
	}
	if err := d.loadMembers(db, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// ListTeams возвращает все команды вместе с участниками
func (d *Database) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := d.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order(memberOrder)
		}).
		Order("created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (d *Database) SetProblemStatement(ctx context.Context, teamID uuid.UUID, code string) error {
	res := d.db.WithContext(ctx).Model(&models.Team{}).
		Where("id = ?", teamID).
		Update("problem_statement", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (d *Database) IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}

func (d *Database) CountMembers(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return int(count), err
}

// лидер первым, затем по времени вступления
const memberOrder = "is_leader DESC, joined_at ASC, id ASC"

func (d *Database) loadMembers(db *gorm.DB, team *models.Team) error {
	return db.Where("team_id = ?", team.ID).Order(memberOrder).Find(&team.Members).Error
}

func ensureNotMember(tx *gorm.DB, userID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.TeamMember{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyInTeam
	}

	if err := tx.Model(&models.Team{}).Where("leader_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyInTeam
	}
	return nil
}
