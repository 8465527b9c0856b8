package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCodeAttempts = 5

var problemCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,15}$`)

// Profile контактные данные, которые участник указывает при создании или вступлении
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	College  string `json:"college"`
}

func (p Profile) normalized() (Profile, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.College = strings.TrimSpace(p.College)
	if p.FullName == "" || p.Email == "" {
		return p, ErrInvalidProfile
	}
	return p, nil
}

// TeamView команда с участниками (лидер первым) и вычисленной валидностью
type TeamView struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Code             string              `json:"code"`
	LeaderID         uuid.UUID           `json:"leader_id"`
	ProblemStatement *string             `json:"problem_statement"`
	InviteLink       string              `json:"invite_link"`
	CreatedAt        time.Time           `json:"created_at"`
	Members          []models.TeamMember `json:"members"`
	Validity
}

type TeamConfig struct {
	PublicOrigin             string
	RegistrationDeadline     time.Time
	ProblemStatementDeadline time.Time
}

// MemberLeft участник покинул команду
type MemberLeft struct {
	TeamID uuid.UUID
	UserID uuid.UUID
}

type TeamService struct {
	store  TeamStore
	events Publisher
	log    *zap.Logger
	cfg    TeamConfig

	now     func() time.Time
	newCode func() (string, error)

	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(MemberLeft)
}

func NewTeamService(store TeamStore, events Publisher, log *zap.Logger, cfg TeamConfig) *TeamService {
	return &TeamService{
		store:   store,
		events:  events,
		log:     log,
		cfg:     cfg,
		now:       time.Now,
		newCode:   GenerateCode,
		listeners: make(map[int]func(MemberLeft)),
	}
}

// RegistrationOpen true, пока не наступил дедлайн регистрации
func (s *TeamService) RegistrationOpen() bool {
	return before(s.now(), s.cfg.RegistrationDeadline)
}

func (s *TeamService) Config() TeamConfig {
	return s.cfg
}

func (s *TeamService) InviteLink(code string) string {
	return s.cfg.PublicOrigin + "/join/" + code
}

// CreateTeam создает команду, вызывающий становится лидером
func (s *TeamService) CreateTeam(ctx context.Context, leaderID uuid.UUID, name string, profile Profile) (*TeamView, error) {
	if !s.RegistrationOpen() {
		return nil, ErrRegistrationClosed
	}

	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
		return nil, ErrInvalidTeamName
	}

	profile, err := profile.normalized()
	if err != nil {
		return nil, err
	}

	var team *models.Team
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to create team: %w", err)
		}

		team = &models.Team{Name: name, Code: code, LeaderID: leaderID}
		leader := memberRow(leaderID, profile)
		err = s.store.CreateTeamWithLeader(ctx, team, leader, profileRow(leaderID, profile))
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, database.ErrCodeTaken):
			s.log.Warn("team code collision, regenerating", zap.String("code", code), zap.Int("attempt", attempt))
			team = nil
			continue
		case errors.Is(err, database.ErrAlreadyInTeam):
			return nil, err
		default:
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
	}
	if team == nil {
		return nil, fmt.Errorf("failed to create team: %w", database.ErrCodeTaken)
	}

	s.log.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("code", team.Code),
		zap.String("leader_id", leaderID.String()))
	s.publish(ctx, feed.Insert, team)

	return s.view(team), nil
}

// PreviewTeam данные для публичной страницы вступления
func (s *TeamService) PreviewTeam(ctx context.Context, code string) (*TeamView, error) {
	team, err := s.store.GetTeamByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	return s.view(team), nil
}

func (s *TeamService) JoinTeam(ctx context.Context, userID uuid.UUID, code string, profile Profile) (*TeamView, error) {
	if !s.RegistrationOpen() {
		return nil, ErrRegistrationClosed
	}

	profile, err := profile.normalized()
	if err != nil {
		return nil, err
	}

	team, err := s.store.AddMemberByCode(ctx, normalizeCode(code), memberRow(userID, profile), profileRow(userID, profile), models.MaxTeamSize)
	if err != nil {
		if isBusinessError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to join team: %w", err)
	}

	loaded, err := s.store.GetTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}

	s.log.Info("member joined", zap.String("team_id", team.ID.String()), zap.String("user_id", userID.String()))
	s.publish(ctx, feed.Update, loaded)

	return s.view(loaded), nil
}

// LeaveTeam удаляет строку участия вызывающего; лидер выйти не может
func (s *TeamService) LeaveTeam(ctx context.Context, userID uuid.UUID) error {
	member, err := s.store.RemoveMember(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotInTeam) {
			return ErrNoTeam
		}
		if errors.Is(err, database.ErrLeaderCannotLeave) {
			return err
		}
		return fmt.Errorf("failed to leave team: %w", err)
	}

	s.log.Info("member left", zap.String("team_id", member.TeamID.String()), zap.String("user_id", userID.String()))
	s.publish(ctx, feed.Delete, member)
	s.notifyLeft(MemberLeft{TeamID: member.TeamID, UserID: userID})
	return nil
}

// OnMemberLeft вызывает fn после каждого успешного выхода из команды
func (s *TeamService) OnMemberLeft(fn func(MemberLeft)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *TeamService) notifyLeft(ev MemberLeft) {
	s.mu.RLock()
	listeners := make([]func(MemberLeft), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (s *TeamService) TransferLeadership(ctx context.Context, leaderID, newLeaderID uuid.UUID) (*TeamView, error) {
	team, err := s.store.TransferLeadership(ctx, leaderID, newLeaderID)
	if err != nil {
		if isBusinessError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to transfer leadership: %w", err)
	}

	loaded, err := s.store.GetTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}

	s.log.Info("leadership transferred",
		zap.String("team_id", team.ID.String()),
		zap.String("from", leaderID.String()),
		zap.String("to", newLeaderID.String()))
	s.publish(ctx, feed.Update, loaded)

	return s.view(loaded), nil
}

func (s *TeamService) LoadTeamForUser(ctx context.Context, userID uuid.UUID) (*TeamView, error) {
	team, err := s.store.FindTeamForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotInTeam) || errors.Is(err, database.ErrTeamNotFound) {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return s.view(team), nil
}

// SetProblemStatement доступна только лидеру и только до дедлайна
func (s *TeamService) SetProblemStatement(ctx context.Context, userID uuid.UUID, code string) (*TeamView, error) {
	if !before(s.now(), s.cfg.ProblemStatementDeadline) {
		return nil, ErrDeadlinePassed
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if !problemCodePattern.MatchString(code) {
		return nil, ErrInvalidProblemCode
	}

	team, err := s.store.FindTeamForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotInTeam) {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.LeaderID != userID {
		return nil, database.ErrNotLeader
	}

	if err := s.store.SetProblemStatement(ctx, team.ID, code); err != nil {
		return nil, fmt.Errorf("failed to update problem statement: %w", err)
	}
	team.ProblemStatement = &code

	s.publish(ctx, feed.Update, team)
	return s.view(team), nil
}

// ListTeams все команды для админской панели
func (s *TeamService) ListTeams(ctx context.Context) ([]TeamView, error) {
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	views := make([]TeamView, 0, len(teams))
	for i := range teams {
		views = append(views, *s.view(&teams[i]))
	}
	return views, nil
}

func (s *TeamService) view(team *models.Team) *TeamView {
	members := team.Members
	if members == nil {
		members = []models.TeamMember{}
	}
	return &TeamView{
		ID:               team.ID,
		Name:             team.Name,
		Code:             team.Code,
		LeaderID:         team.LeaderID,
		ProblemStatement: team.ProblemStatement,
		InviteLink:       s.InviteLink(team.Code),
		CreatedAt:        team.CreatedAt,
		Members:          members,
		Validity:         Validate(len(members)),
	}
}

// publish не влияет на результат операции: ошибка только логируется
func (s *TeamService) publish(ctx context.Context, typ feed.EventType, record any) {
	if s.events == nil {
		return
	}

	ev, err := feed.NewEvent(typ, feed.TeamsTopic, record)
	if err == nil {
		err = s.events.Publish(ctx, feed.TeamsTopic, ev)
	}
	if err != nil {
		s.log.Warn("failed to publish team event", zap.String("type", string(typ)), zap.Error(err))
	}
}

func memberRow(userID uuid.UUID, p Profile) *models.TeamMember {
	return &models.TeamMember{UserID: userID, Name: p.FullName, Email: p.Email, College: p.College}
}

func profileRow(userID uuid.UUID, p Profile) *models.UserProfile {
	return &models.UserProfile{UserID: userID, FullName: p.FullName, Email: p.Email, College: p.College}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// before: нулевой дедлайн означает, что его нет
func before(now, deadline time.Time) bool {
	return deadline.IsZero() || now.Before(deadline)
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		database.ErrTeamNotFound,
		database.ErrTeamFull,
		database.ErrAlreadyInTeam,
		database.ErrNotInTeam,
		database.ErrNotLeader,
		database.ErrLeaderCannotLeave,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
