package dto

import (
	"github.com/codeforchange/hackportal/internal/services"
)

type ProfileRequest struct {
	FullName string `json:"full_name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	College  string `json:"college" binding:"max=200"`
}

func (p ProfileRequest) Profile() services.Profile {
	return services.Profile{FullName: p.FullName, Email: p.Email, College: p.College}
}

type CreateTeamRequest struct {
	TeamName string         `json:"team_name" binding:"required,max=100"`
	Profile  ProfileRequest `json:"profile" binding:"required"`
}

type JoinTeamRequest struct {
	Profile ProfileRequest `json:"profile" binding:"required"`
}

type TransferLeadershipRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type ProblemStatementRequest struct {
	Code string `json:"code" binding:"required"`
}

type AdminTotals struct {
	Teams        int `json:"teams"`
	ValidTeams   int `json:"valid_teams"`
	Participants int `json:"participants"`
}

type AdminTeamsResponse struct {
	Teams  []services.TeamView `json:"teams"`
	Totals AdminTotals         `json:"totals"`
}

func NewAdminTeamsResponse(views []services.TeamView) AdminTeamsResponse {
	resp := AdminTeamsResponse{Teams: views}
	for _, v := range views {
		resp.Totals.Teams++
		resp.Totals.Participants += v.MemberCount
		if v.IsValid {
			resp.Totals.ValidTeams++
		}
	}
	return resp
}
