package services

import "errors"

var (
	ErrNoTeam             = errors.New("user has no team")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrDeadlinePassed     = errors.New("problem statement deadline has passed")
	ErrInvalidProblemCode = errors.New("invalid problem statement code")
	ErrInvalidTeamName    = errors.New("team name must be 1-100 characters")
	ErrInvalidProfile     = errors.New("full name and email are required")

	ErrNotTeamMember  = errors.New("user is not a member of this team")
	ErrInvalidMessage = errors.New("message must be 1-2000 characters")

	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidConfirmation = errors.New("invalid or expired confirmation token")
	ErrWeakPassword        = errors.New("password must be 8-72 characters")
	ErrInvalidSignUp       = errors.New("email and display name are required")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token is blacklisted")
)
