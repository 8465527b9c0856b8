package services

import "github.com/codeforchange/hackportal/internal/models"

// Validity производное состояние команды, никогда не хранится
type Validity struct {
	MemberCount    int  `json:"member_count"`
	RemainingSlots int  `json:"remaining_slots"`
	IsValid        bool `json:"is_valid"`
}

func Validate(count int) Validity {
	return Validity{
		MemberCount:    count,
		RemainingSlots: models.MaxTeamSize - count,
		IsValid:        count >= models.MinTeamSize && count <= models.MaxTeamSize,
	}
}
