package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/codeforchange/hackportal/internal/handlers/dto"
	"github.com/codeforchange/hackportal/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAdminEndpoints(t *testing.T) {
	f := newFixture(t, false)

	leaderToken, _ := f.signIn("leader")
	w := f.do(http.MethodPost, "/api/teams", leaderToken, gin.H{"team_name": "Falcons", "profile": profile("leader")})
	require.Equal(t, http.StatusCreated, w.Code)

	adminToken, _ := f.signIn("boss")
	w = f.do(http.MethodGet, "/api/admin/teams", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, f.auth.PromoteAdmin(context.Background(), "boss@example.com"))
	// роль попадает только в новые токены
	adminToken, _ = f.login("boss@example.com")

	w = f.do(http.MethodGet, "/api/admin/teams", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list dto.AdminTeamsResponse
	decode(t, w, &list)
	require.Len(t, list.Teams, 1)
	assert.Equal(t, dto.AdminTotals{Teams: 1, ValidTeams: 0, Participants: 1}, list.Totals)

	w = f.do(http.MethodGet, "/api/admin/teams/report", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), report.FileName)

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := book.GetRows(report.OverviewSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Falcons", rows[1][0])
}
