package transfer

import (
	"fmt"
	"io"

	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	studentsSheet   = "Students"
	statisticsSheet = "Statistics"
)

// WriteXLSX writes a workbook with a "Students" sheet in the CSV column
// layout and, when stats is non-nil, a "Statistics" sheet.
func WriteXLSX(w io.Writer, students []model.Student, subjects []string, stats *model.Statistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, studentsSheet, 1, stringsToCells(Header(subjects))); err != nil {
		return err
	}
	if err := f.SetRowStyle(studentsSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, s := range students {
		cells := []interface{}{s.RollNo, s.Name, s.Age, s.Gender}
		for j := range subjects {
			var m float64
			if j < len(s.Marks) {
				m = s.Marks[j]
			}
			cells = append(cells, m)
		}
		cells = append(cells, s.Total, s.Percentage, string(s.Grade))
		if err := setRow(f, studentsSheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(studentsSheet, "B", "B", 24); err != nil {
		return err
	}

	if stats != nil {
		if err := writeStatisticsSheet(f, stats, bold); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeStatisticsSheet(f *excelize.File, stats *model.Statistics, bold int) error {
	if _, err := f.NewSheet(statisticsSheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Total Students", stats.TotalStudents},
		{"Average Age", stats.AverageAge},
		{"Class Average Percentage", stats.AveragePercentage},
	}
	if stats.HighestScorer != nil {
		rows = append(rows, []interface{}{"Highest Scorer", fmt.Sprintf("%s (%g)", stats.HighestScorer.Name, stats.HighestScorer.Total)})
	}

	headers := map[int]bool{}
	section := func(title ...interface{}) {
		rows = append(rows, nil, title)
		headers[len(rows)] = true
	}

	section("Grade", "Count", "Share %")
	for _, b := range stats.GradeDistribution {
		rows = append(rows, []interface{}{b.Label, b.Count, b.Share})
	}
	section("Gender", "Count", "Share %")
	for _, b := range stats.GenderBreakdown {
		rows = append(rows, []interface{}{b.Label, b.Count, b.Share})
	}
	section("Subject", "Average")
	for _, a := range stats.SubjectAverages {
		rows = append(rows, []interface{}{a.Subject, a.Average})
	}

	for i, r := range rows {
		if r == nil {
			continue
		}
		if err := setRow(f, statisticsSheet, i+1, r); err != nil {
			return err
		}
		if headers[i+1] {
			if err := f.SetRowStyle(statisticsSheet, i+1, i+1, bold); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(statisticsSheet, "A", "A", 28)
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func stringsToCells(ss []string) []interface{} {
	cells := make([]interface{}, len(ss))
	for i, s := range ss {
		cells[i] = s
	}
	return cells
}
