package database_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/database/dbtest"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(u *models.User) (*models.TeamMember, *models.UserProfile) {
	return &models.TeamMember{UserID: u.ID, Name: u.DisplayName, Email: u.Email},
		&models.UserProfile{UserID: u.ID, FullName: u.DisplayName, Email: u.Email}
}

func createTeam(t *testing.T, db *database.Database, leader *models.User, code string) *models.Team {
	t.Helper()
	team := &models.Team{Name: "Falcons", Code: code, LeaderID: leader.ID}
	m, p := member(leader)
	require.NoError(t, db.CreateTeamWithLeader(context.Background(), team, m, p))
	return team
}

func TestCreateTeamWithLeader_MaterializesLeaderRow(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	leader := dbtest.User(t, db, "lead@example.com")

	team := createTeam(t, db, leader, "ABC123")

	loaded, err := db.FindTeamForUser(ctx, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, loaded.ID)
	require.Len(t, loaded.Members, 1)
	assert.True(t, loaded.Members[0].IsLeader)
	assert.Equal(t, leader.ID, loaded.Members[0].UserID)

	profile, err := db.GetProfile(ctx, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, "lead@example.com", profile.Email)
}

func TestCreateTeamWithLeader_CodeTaken(t *testing.T) {
	db := dbtest.New(t)
	createTeam(t, db, dbtest.User(t, db, "a@example.com"), "ABC123")

	other := dbtest.User(t, db, "b@example.com")
	m, p := member(other)
	err := db.CreateTeamWithLeader(context.Background(), &models.Team{Name: "X", Code: "ABC123", LeaderID: other.ID}, m, p)
	assert.ErrorIs(t, err, database.ErrCodeTaken)

	_, err = db.FindTeamForUser(context.Background(), other.ID)
	assert.ErrorIs(t, err, database.ErrNotInTeam)
}

func TestAddMemberByCode_DuplicateMembership(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	leader := dbtest.User(t, db, "lead@example.com")
	createTeam(t, db, leader, "AAAAAA")
	createTeam(t, db, dbtest.User(t, db, "other@example.com"), "BBBBBB")

	joiner := dbtest.User(t, db, "j@example.com")
	m, p := member(joiner)
	_, err := db.AddMemberByCode(ctx, "AAAAAA", m, p, models.MaxTeamSize)
	require.NoError(t, err)

	m, p = member(joiner)
	_, err = db.AddMemberByCode(ctx, "BBBBBB", m, p, models.MaxTeamSize)
	assert.ErrorIs(t, err, database.ErrAlreadyInTeam)

	m, p = member(joiner)
	err = db.CreateTeamWithLeader(ctx, &models.Team{Name: "Y", Code: "CCCCCC", LeaderID: joiner.ID}, m, p)
	assert.ErrorIs(t, err, database.ErrAlreadyInTeam)

	m, p = member(leader)
	_, err = db.AddMemberByCode(ctx, "BBBBBB", m, p, models.MaxTeamSize)
	assert.ErrorIs(t, err, database.ErrAlreadyInTeam)
}

func TestAddMemberByCode_UnknownCode(t *testing.T) {
	db := dbtest.New(t)
	m, p := member(dbtest.User(t, db, "j@example.com"))

	_, err := db.AddMemberByCode(context.Background(), "NOPE00", m, p, models.MaxTeamSize)
	assert.ErrorIs(t, err, database.ErrTeamNotFound)
}

func TestAddMemberByCode_ConcurrentJoinsRespectCapacity(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	team := createTeam(t, db, dbtest.User(t, db, "lead@example.com"), "CAP001")

	for i := 0; i < 3; i++ {
		m, p := member(dbtest.User(t, db, fmt.Sprintf("m%d@example.com", i)))
		_, err := db.AddMemberByCode(ctx, team.Code, m, p, models.MaxTeamSize)
		require.NoError(t, err)
	}

	joiners := make([]*models.User, 6)
	for i := range joiners {
		joiners[i] = dbtest.User(t, db, fmt.Sprintf("race%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(joiners))
	for i, u := range joiners {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			m, p := member(u)
			_, errs[i] = db.AddMemberByCode(ctx, team.Code, m, p, models.MaxTeamSize)
		}(i, u)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, database.ErrTeamFull):
			full++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 5, full)

	count, err := db.CountMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxTeamSize, count)
}

func TestRemoveMember_RemovesOnlyCallerRow(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	leader := dbtest.User(t, db, "lead@example.com")
	team := createTeam(t, db, leader, "LEAVE1")

	a := dbtest.User(t, db, "a@example.com")
	b := dbtest.User(t, db, "b@example.com")
	for _, u := range []*models.User{a, b} {
		m, p := member(u)
		_, err := db.AddMemberByCode(ctx, team.Code, m, p, models.MaxTeamSize)
		require.NoError(t, err)
	}

	before, err := db.GetTeam(ctx, team.ID)
	require.NoError(t, err)

	removed, err := db.RemoveMember(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.UserID)

	after, err := db.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, leader.ID, after.LeaderID)
	require.Len(t, after.Members, 2)

	var kept, remaining []string
	for _, m := range before.Members {
		if m.UserID != a.ID {
			kept = append(kept, m.ID.String()+m.Email)
		}
	}
	for _, m := range after.Members {
		remaining = append(remaining, m.ID.String()+m.Email)
	}
	assert.ElementsMatch(t, kept, remaining)

	_, err = db.RemoveMember(ctx, a.ID)
	assert.ErrorIs(t, err, database.ErrNotInTeam)
}

func TestRemoveMember_LeaderRejected(t *testing.T) {
	db := dbtest.New(t)
	leader := dbtest.User(t, db, "lead@example.com")
	createTeam(t, db, leader, "LEAD01")

	_, err := db.RemoveMember(context.Background(), leader.ID)
	assert.ErrorIs(t, err, database.ErrLeaderCannotLeave)
}

func TestTransferLeadership(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	leader := dbtest.User(t, db, "lead@example.com")
	team := createTeam(t, db, leader, "TRANS1")

	next := dbtest.User(t, db, "next@example.com")
	m, p := member(next)
	_, err := db.AddMemberByCode(ctx, team.Code, m, p, models.MaxTeamSize)
	require.NoError(t, err)

	_, err = db.TransferLeadership(ctx, next.ID, leader.ID)
	assert.ErrorIs(t, err, database.ErrNotLeader)

	stranger := dbtest.User(t, db, "stranger@example.com")
	_, err = db.TransferLeadership(ctx, leader.ID, stranger.ID)
	assert.ErrorIs(t, err, database.ErrNotInTeam)

	_, err = db.TransferLeadership(ctx, leader.ID, next.ID)
	require.NoError(t, err)

	loaded, err := db.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, loaded.LeaderID)
	require.Len(t, loaded.Members, 2)
	assert.Equal(t, next.ID, loaded.Members[0].UserID)
	assert.True(t, loaded.Members[0].IsLeader)
	assert.False(t, loaded.Members[1].IsLeader)

	_, err = db.RemoveMember(ctx, leader.ID)
	assert.NoError(t, err)
}

func TestGetTeamMessages_OrderedAndLimited(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	leader := dbtest.User(t, db, "lead@example.com")
	team := createTeam(t, db, leader, "CHAT01")

	for i := 0; i < 3; i++ {
		require.NoError(t, db.SaveMessage(ctx, &models.ChatMessage{TeamID: team.ID, UserID: leader.ID, Message: fmt.Sprintf("m%d", i)}))
	}

	all, err := db.GetTeamMessages(ctx, team.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"m0", "m1", "m2"}, []string{all[0].Message, all[1].Message, all[2].Message})

	last, err := db.GetTeamMessages(ctx, team.ID, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "m2", last[1].Message)
}
