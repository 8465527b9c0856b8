package handlers

import (
	"net/http"

	"github.com/codeforchange/hackportal/internal/handlers/dto"
	"github.com/codeforchange/hackportal/internal/middleware"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, log: log}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.auth.SignUp(c.Request.Context(), services.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondError(c, h.log, err, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, dto.SignUpResponse{
		User:                 dto.NewUserResponse(res.User),
		ConfirmationRequired: res.ConfirmationToken != "",
	})
}

func (h *AuthHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	user, err := h.auth.Confirm(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.log, err, "failed to confirm email")
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// Login выдаёт JWT и обновляет last_seen
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "could not sign in")
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// Logout ставит токен в черный список в Redis до истечения
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.SignOut(c.Request.Context(), rawToken); err != nil {
		respondError(c, h.log, err, "failed to logout")
		return
	}

	c.Status(http.StatusOK)
}
