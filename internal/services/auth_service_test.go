package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/database/dbtest"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T, requireConfirmation bool) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewAuthService(dbtest.New(t), rdb, auth.NewJWTManager("secret", time.Hour), zap.NewNop(),
		AuthConfig{RequireConfirmation: requireConfirmation, PublicOrigin: "https://hack.example"})
	return svc, mr
}

func TestAuthService_SignUpConfirmSignIn(t *testing.T) {
	svc, mr := newAuthService(t, true)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, SignUpInput{Email: " Ann@Example.com ", Password: "password1", DisplayName: "Ann"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ConfirmationToken)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.True(t, mr.Exists("confirm:"+res.ConfirmationToken))

	_, err = svc.SignIn(ctx, "ann@example.com", "password1")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	user, err := svc.Confirm(ctx, res.ConfirmationToken)
	require.NoError(t, err)
	assert.True(t, user.IsConfirmed())

	_, err = svc.Confirm(ctx, res.ConfirmationToken)
	assert.ErrorIs(t, err, ErrInvalidConfirmation)

	_, err = svc.SignIn(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.SignIn(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, models.RoleParticipant, id.Role)
	assert.False(t, id.IsAdmin())
}

func TestAuthService_SignUpValidation(t *testing.T) {
	svc, _ := newAuthService(t, false)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "short", DisplayName: "A"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "password1", DisplayName: "A"})
	assert.ErrorIs(t, err, ErrInvalidSignUp)

	res, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "password1", DisplayName: "A"})
	require.NoError(t, err)
	assert.Empty(t, res.ConfirmationToken)
	assert.True(t, res.User.IsConfirmed())

	_, err = svc.SignUp(ctx, SignUpInput{Email: "A@example.com", Password: "password1", DisplayName: "A"})
	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestAuthService_SignOutNotifiesAndRevokes(t *testing.T) {
	svc, mr := newAuthService(t, false)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "password1", DisplayName: "A"})
	require.NoError(t, err)

	var got []AuthEvent
	unsubscribe := svc.OnAuthStateChange(func(ev AuthEvent) { got = append(got, ev) })

	session, err := svc.SignIn(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, session.Token))

	require.Len(t, got, 2)
	assert.Equal(t, SignedIn, got[0].Type)
	assert.Equal(t, SignedOut, got[1].Type)
	assert.Equal(t, session.User.ID, got[1].UserID)

	assert.True(t, mr.Exists("blacklist:"+session.Token))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	unsubscribe()
	_, err = svc.SignIn(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.ErrorIs(t, svc.SignOut(ctx, "garbage"), ErrInvalidToken)
}

func TestAuthService_PromoteAdmin(t *testing.T) {
	svc, _ := newAuthService(t, false)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "boss@example.com", Password: "password1", DisplayName: "Boss"})
	require.NoError(t, err)
	require.NoError(t, svc.PromoteAdmin(ctx, "BOSS@example.com"))
	assert.ErrorIs(t, svc.PromoteAdmin(ctx, "ghost@example.com"), database.ErrUserNotFound)

	session, err := svc.SignIn(ctx, "boss@example.com", "password1")
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}
