package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/codeforchange/hackportal/internal/config"
	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/database/dbtest"
	"github.com/codeforchange/hackportal/internal/feed"
	"github.com/codeforchange/hackportal/internal/handlers"
	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/internal/router"
	"github.com/codeforchange/hackportal/internal/services"
	ws "github.com/codeforchange/hackportal/internal/websocket"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	t      *testing.T
	db     *database.Database
	mr     *miniredis.Miniredis
	auth   *services.AuthService
	teams  *services.TeamService
	hub    *ws.Hub
	router *gin.Engine
}

func newFixture(t *testing.T, requireConfirmation bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zap.NewNop()
	changes := feed.New(rdb, log)
	hub := ws.NewHub(changes, log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	authService := services.NewAuthService(db, rdb, auth.NewJWTManager("secret", time.Hour), log,
		services.AuthConfig{RequireConfirmation: requireConfirmation, PublicOrigin: "https://hack.example"})
	teams := services.NewTeamService(db, changes, log, services.TeamConfig{PublicOrigin: "https://hack.example"})
	chat := services.NewChatService(db, changes, log)

	svcs := router.Services{Auth: authService, Teams: teams, Chat: chat, Hub: hub}
	t.Cleanup(router.BindHub(svcs, log))

	cfg := &config.Config{EventName: "CodeForChange"}
	h := router.NewHandlers(cfg, svcs, map[string]handlers.Pinger{"postgres": db.Ping}, log)

	r := gin.New()
	router.APIEndpoints(r, authService, h)

	return &fixture{t: t, db: db, mr: mr, auth: authService, teams: teams, hub: hub, router: r}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// signIn регистрирует пользователя и возвращает токен
func (f *fixture) signIn(name string) (string, *models.User) {
	f.t.Helper()

	email := name + "@example.com"
	w := f.do(http.MethodPost, "/auth/signup", "", gin.H{"email": email, "password": "password1", "display_name": name})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())

	return f.login(email)
}

func (f *fixture) login(email string) (string, *models.User) {
	f.t.Helper()

	w := f.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "password1"})
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(f.t, w, &resp)

	user, err := f.db.FindUserByEmail(context.Background(), email)
	require.NoError(f.t, err)
	return resp.Token, user
}

func profile(name string) gin.H {
	return gin.H{"full_name": name, "email": name + "@example.com", "college": "MIT"}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}
