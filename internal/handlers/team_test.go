package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/codeforchange/hackportal/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamLifecycle(t *testing.T) {
	f := newFixture(t, false)

	leaderToken, leader := f.signIn("leader")

	w := f.do(http.MethodGet, "/api/dashboard", leaderToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "You are not part of any team yet", errorOf(t, w))

	w = f.do(http.MethodPost, "/api/teams", leaderToken, gin.H{"team_name": "Falcons", "profile": profile("leader")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Team       services.TeamView `json:"team"`
		InviteLink string            `json:"invite_link"`
	}
	decode(t, w, &created)
	code := created.Team.Code
	assert.Equal(t, "https://hack.example/join/"+code, created.InviteLink)
	assert.Equal(t, leader.ID, created.Team.LeaderID)

	w = f.do(http.MethodPost, "/api/teams", leaderToken, gin.H{"team_name": "Again", "profile": profile("leader")})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "You are already part of a team", errorOf(t, w))

	w = f.do(http.MethodGet, "/join/"+code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview struct {
		Name        string `json:"name"`
		MemberCount int    `json:"member_count"`
	}
	decode(t, w, &preview)
	assert.Equal(t, "Falcons", preview.Name)
	assert.Equal(t, 1, preview.MemberCount)

	w = f.do(http.MethodGet, "/join/NOPE00", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid team code", errorOf(t, w))

	tokens := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("member%d", i)
		token, _ := f.signIn(name)
		w = f.do(http.MethodPost, "/join/"+code, token, gin.H{"profile": profile(name)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		tokens = append(tokens, token)
	}

	lateToken, _ := f.signIn("late")
	w = f.do(http.MethodPost, "/join/"+code, lateToken, gin.H{"profile": profile("late")})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Team is already full", errorOf(t, w))

	w = f.do(http.MethodGet, "/api/dashboard", tokens[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash services.TeamView
	decode(t, w, &dash)
	assert.Equal(t, 5, dash.MemberCount)
	assert.Equal(t, 0, dash.RemainingSlots)
	assert.True(t, dash.IsValid)
	assert.True(t, dash.Members[0].IsLeader)

	w = f.do(http.MethodDelete, "/api/teams/membership", leaderToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodDelete, "/api/teams/membership", tokens[3], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/dashboard", leaderToken, nil)
	decode(t, w, &dash)
	assert.Equal(t, 4, dash.MemberCount)
	assert.Equal(t, leader.ID, dash.LeaderID)

	w = f.do(http.MethodPut, "/api/teams/problem-statement", tokens[0], gin.H{"code": "PS-01"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only the team leader can do this", errorOf(t, w))

	w = f.do(http.MethodPut, "/api/teams/problem-statement", leaderToken, gin.H{"code": "ps-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/dashboard", tokens[1], nil)
	decode(t, w, &dash)
	require.NotNil(t, dash.ProblemStatement)
	assert.Equal(t, "PS-01", *dash.ProblemStatement)

	newLeader := dash.Members[1].UserID
	w = f.do(http.MethodPut, "/api/teams/leader", leaderToken, gin.H{"user_id": newLeader.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &dash)
	assert.Equal(t, newLeader, dash.LeaderID)

	w = f.do(http.MethodDelete, "/api/teams/membership", leaderToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTeamEndpoints_RequireAuth(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/join/ABCDEF", "", gin.H{"profile": profile("x")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTeam_BadRequest(t *testing.T) {
	f := newFixture(t, false)
	token, _ := f.signIn("leader")

	w := f.do(http.MethodPost, "/api/teams", token, gin.H{"team_name": "Falcons"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/teams", token, gin.H{"team_name": "Falcons", "profile": gin.H{"full_name": "L", "email": "bad"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
