package handlers

import (
	"errors"
	"net/http"

	"github.com/codeforchange/hackportal/internal/database"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorTable = []struct {
	err    error
	status int
	msg    string
}{
	{database.ErrTeamNotFound, http.StatusNotFound, "Invalid team code"},
	{database.ErrTeamFull, http.StatusConflict, "Team is already full"},
	{database.ErrAlreadyInTeam, http.StatusConflict, "You are already part of a team"},
	{database.ErrLeaderCannotLeave, http.StatusConflict, "Team leader cannot leave the team. Transfer leadership first."},
	{database.ErrNotLeader, http.StatusForbidden, "Only the team leader can do this"},
	{database.ErrNotInTeam, http.StatusBadRequest, "User is not a member of your team"},
	{database.ErrEmailTaken, http.StatusConflict, "An account with this email already exists"},
	{database.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{services.ErrNoTeam, http.StatusNotFound, "You are not part of any team yet"},
	{services.ErrRegistrationClosed, http.StatusForbidden, "Registration is closed"},
	{services.ErrDeadlinePassed, http.StatusForbidden, "The deadline for selecting a problem statement has passed"},
	{services.ErrNotTeamMember, http.StatusForbidden, "You are not a member of this team"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password. Please try again."},
	{services.ErrEmailNotConfirmed, http.StatusForbidden, "Please confirm your email before signing in."},
	{services.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
	{services.ErrTokenRevoked, http.StatusUnauthorized, "token is blacklisted"},
}

var badRequest = []error{
	services.ErrInvalidProblemCode,
	services.ErrInvalidTeamName,
	services.ErrInvalidProfile,
	services.ErrInvalidMessage,
	services.ErrInvalidConfirmation,
	services.ErrWeakPassword,
	services.ErrInvalidSignUp,
}

// errorResponse сопоставляет ошибку со статусом и сообщением для пользователя
func errorResponse(err error, fallback string) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.msg
		}
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return http.StatusBadRequest, e.Error()
		}
	}
	return http.StatusInternalServerError, fallback
}

// respondError пишет ответ; внутренние ошибки логируются, клиент видит только fallback
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status, msg := errorResponse(err, fallback)
	if status == http.StatusInternalServerError {
		log.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}
