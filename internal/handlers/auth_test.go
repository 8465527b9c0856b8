package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow_WithConfirmation(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "ann@example.com", "password": "password1", "display_name": "Ann"})
	require.Equal(t, http.StatusCreated, w.Code)
	var signup struct {
		ConfirmationRequired bool `json:"confirmation_required"`
	}
	decode(t, w, &signup)
	assert.True(t, signup.ConfirmationRequired)

	w = f.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "ANN@example.com", "password": "password1", "display_name": "Ann"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ann@example.com", "password": "password1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Please confirm your email before signing in.", errorOf(t, w))

	var token string
	for _, key := range f.mr.Keys() {
		if strings.HasPrefix(key, "confirm:") {
			token = strings.TrimPrefix(key, "confirm:")
		}
	}
	require.NotEmpty(t, token)

	w = f.do(http.MethodGet, "/auth/confirm?token=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/auth/confirm?token="+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ann@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect email or password. Please try again.", errorOf(t, w))

	access, _ := f.login("ann@example.com")

	w = f.do(http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Email     string `json:"email"`
		Role      string `json:"role"`
		Confirmed bool   `json:"confirmed"`
	}
	decode(t, w, &me)
	assert.Equal(t, "ann@example.com", me.Email)
	assert.Equal(t, "participant", me.Role)
	assert.True(t, me.Confirmed)

	w = f.do(http.MethodPost, "/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/auth/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token is blacklisted", errorOf(t, w))
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "not-email", "password": "password1", "display_name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "a@example.com", "password": "short", "display_name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info struct {
		Event            string  `json:"event"`
		RegistrationOpen bool    `json:"registration_open"`
		Deadline         *string `json:"registration_deadline"`
	}
	decode(t, w, &info)
	assert.Equal(t, "CodeForChange", info.Event)
	assert.True(t, info.RegistrationOpen)
	assert.Nil(t, info.Deadline)

	w = f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"postgres":"ok"}`, w.Body.String())
}
