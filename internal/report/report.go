// Package report форматирует уже загруженные команды в XLSX; запросов к базе не делает
package report

import (
	"fmt"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/xuri/excelize/v2"
)

const (
	OverviewSheet = "Teams Overview"
	MembersSheet  = "Team Members"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "teams-report.xlsx"
)

// Build возвращает книгу с листами обзора команд и участников
func Build(views []services.TeamView) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", OverviewSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(MembersSheet); err != nil {
		return nil, err
	}

	if err := writeOverview(f, views); err != nil {
		return nil, fmt.Errorf("write %s: %w", OverviewSheet, err)
	}
	if err := writeMembers(f, views); err != nil {
		return nil, fmt.Errorf("write %s: %w", MembersSheet, err)
	}

	return f, nil
}

func writeOverview(f *excelize.File, views []services.TeamView) error {
	header := []any{"Team Name", "Team Code", "Problem Statement", "Total Members", "Remaining Slots", "Valid"}
	for i := 1; i <= models.MaxTeamSize; i++ {
		header = append(header, fmt.Sprintf("Member %d", i))
	}
	if err := writeRow(f, OverviewSheet, 1, header); err != nil {
		return err
	}

	for i, v := range views {
		row := []any{v.Name, v.Code, problemStatement(v), v.MemberCount, v.RemainingSlots, yesNo(v.IsValid)}
		for _, m := range v.Members {
			row = append(row, fmt.Sprintf("%s (%s)", m.Name, m.Email))
		}
		if err := writeRow(f, OverviewSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeMembers(f *excelize.File, views []services.TeamView) error {
	header := []any{"Team Name", "Team Code", "Member Name", "Email", "College", "Role"}
	if err := writeRow(f, MembersSheet, 1, header); err != nil {
		return err
	}

	row := 2
	for _, v := range views {
		for _, m := range v.Members {
			role := "Member"
			if m.IsLeader {
				role = "Leader"
			}
			if err := writeRow(f, MembersSheet, row, []any{v.Name, v.Code, m.Name, m.Email, m.College, role}); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func problemStatement(v services.TeamView) string {
	if v.ProblemStatement == nil {
		return "Not selected"
	}
	return *v.ProblemStatement
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
