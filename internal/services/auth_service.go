package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	blacklistPrefix = "blacklist:"
	confirmPrefix   = "confirm:"
	confirmTTL      = 24 * time.Hour
)

type AuthEventType string

const (
	SignedIn  AuthEventType = "SIGNED_IN"
	SignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent переход состояния сессии
type AuthEvent struct {
	Type   AuthEventType
	UserID uuid.UUID
	Token  string
}

// Identity проверенный владелец токена
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
	Token  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

type SignUpResult struct {
	User *models.User
	// пустой, если подтверждение почты отключено
	ConfirmationToken string
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type AuthConfig struct {
	RequireConfirmation bool
	PublicOrigin        string
}

// AuthService единый контекст сессий процесса: создается в main
// и передается в обработчики, middleware и хаб
type AuthService struct {
	users UserStore
	rdb   *redis.Client
	jwt   *auth.JWTManager
	log   *zap.Logger
	cfg   AuthConfig

	mu        sync.RWMutex
	listeners map[int]func(AuthEvent)
	nextID    int
}

func NewAuthService(users UserStore, rdb *redis.Client, jwt *auth.JWTManager, log *zap.Logger, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		rdb:       rdb,
		jwt:       jwt,
		log:       log,
		cfg:       cfg,
		listeners: make(map[int]func(AuthEvent)),
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.DisplayName)
	if email == "" || !strings.Contains(email, "@") || name == "" {
		return nil, ErrInvalidSignUp
	}
	// bcrypt игнорирует все после 72 байт
	if n := utf8.RuneCountInString(in.Password); n < 8 || len(in.Password) > 72 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
		LastSeenAt:   time.Now().UTC(),
	}
	if !s.cfg.RequireConfirmation {
		now := time.Now().UTC()
		user.ConfirmedAt = &now
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result := &SignUpResult{User: user}
	if !s.cfg.RequireConfirmation {
		return result, nil
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, confirmPrefix+token, user.ID.String(), confirmTTL).Err(); err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}
	result.ConfirmationToken = token

	s.log.Info("confirmation link issued",
		zap.String("email", user.Email),
		zap.String("link", s.cfg.PublicOrigin+"/auth/confirm?token="+token))

	return result, nil
}

// Confirm подтверждает почту; токен одноразовый
func (s *AuthService) Confirm(ctx context.Context, token string) (*models.User, error) {
	raw, err := s.rdb.GetDel(ctx, confirmPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidConfirmation
		}
		return nil, fmt.Errorf("read confirmation token: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidConfirmation
	}

	if err := s.users.ConfirmUser(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidConfirmation
		}
		return nil, fmt.Errorf("confirm user: %w", err)
	}
	return s.users.GetUser(ctx, id)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	token, expiresAt, err := s.jwt.Generate(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.users.UpdateLastSeen(ctx, user.ID); err != nil {
		s.log.Warn("failed to update last seen", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.notify(AuthEvent{Type: SignedIn, UserID: user.ID, Token: token})
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// SignOut заносит токен в черный список до его истечения
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidToken
	}

	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		if err := s.rdb.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err != nil {
			return fmt.Errorf("failed to logout: %w", err)
		}
	}

	s.notify(AuthEvent{Type: SignedOut, UserID: userID, Token: token})
	return nil
}

// Authenticate проверяет черный список и подпись токена
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	exists, err := s.rdb.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if exists > 0 {
		return nil, ErrTokenRevoked
	}

	claims, err := s.jwt.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   models.Role(claims.Role),
		Token:  token,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}

// PromoteAdmin выдает роль admin; роль попадает в токены, выпущенные после этого
func (s *AuthService) PromoteAdmin(ctx context.Context, email string) error {
	return s.users.SetUserRole(ctx, email, models.RoleAdmin)
}

// OnAuthStateChange подписывает fn на переходы сессий и возвращает функцию отписки
func (s *AuthService) OnAuthStateChange(fn func(AuthEvent)) func() {
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

func (s *AuthService) notify(ev AuthEvent) {
	s.mu.RLock()
	listeners := make([]func(AuthEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
