package database

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamFull          = errors.New("team is full")
	ErrAlreadyInTeam     = errors.New("user already in a team")
	ErrNotInTeam         = errors.New("user is not in a team")
	ErrLeaderCannotLeave = errors.New("team leader cannot leave")
	ErrNotLeader         = errors.New("user is not the team leader")
	ErrCodeTaken         = errors.New("team code already taken")
)
