// Package grading holds the pure arithmetic and validation rules for student
// marks: percentage, letter grade, totals and class aggregates. Nothing here
// touches storage.
package grading

import (
	"strings"
	"unicode"
)

// Grade is a letter grade on the fixed ladder.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// band is one rung of the ladder: percentages at or above Min earn Grade.
type band struct {
	Min   float64
	Grade Grade
}

var ladder = []band{
	{90, GradeAPlus},
	{80, GradeA},
	{70, GradeB},
	{60, GradeC},
	{50, GradeD},
}

// GradeLadder lists every grade from best to worst.
var GradeLadder = []Grade{GradeAPlus, GradeA, GradeB, GradeC, GradeD, GradeF}

// CalculatePercentage returns total/maxTotal as a percentage.
func CalculatePercentage(total, maxTotal float64) (float64, error) {
	if maxTotal == 0 {
		return 0, ErrZeroMaxMarks
	}
	return total / maxTotal * 100, nil
}

// AssignGrade maps a percentage onto the ladder. Band lower bounds are inclusive.
func AssignGrade(percentage float64) Grade {
	for _, b := range ladder {
		if percentage >= b.Min {
			return b.Grade
		}
	}
	return GradeF
}

// IsGrade reports whether g is a grade on the ladder.
func IsGrade(g string) bool {
	for _, lg := range GradeLadder {
		if string(lg) == g {
			return true
		}
	}
	return false
}

// ValidateName checks that every rune is a letter or whitespace and returns
// the trimmed name. Blank names are rejected.
func ValidateName(name string) (string, error) {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "", invalid("name", ErrInvalidName, "Name must contain only letters and spaces")
		}
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid("name", ErrInvalidName, "Name is required")
	}
	return trimmed, nil
}

// CalculateTotal sums marks.
func CalculateTotal(marks []float64) float64 {
	var total float64
	for _, m := range marks {
		total += m
	}
	return total
}

// Scored is anything carrying per-subject marks and a total.
type Scored interface {
	ScoreMarks() []float64
	ScoreTotal() float64
}

// CalculateSubjectAverages returns the element-wise mean of every record's
// marks. All records are assumed to hold subjectCount marks; an empty
// collection yields subjectCount zeros.
func CalculateSubjectAverages[T Scored](records []T, subjectCount int) []float64 {
	if len(records) == 0 {
		return make([]float64, subjectCount)
	}
	marks := make([][]float64, len(records))
	for i, r := range records {
		marks[i] = r.ScoreMarks()
	}
	return AverageMarks(marks, subjectCount)
}

// AverageMarks is CalculateSubjectAverages over raw mark rows.
func AverageMarks(rows [][]float64, subjectCount int) []float64 {
	sums := make([]float64, subjectCount)
	if len(rows) == 0 {
		return sums
	}
	for _, row := range rows {
		for i, m := range row {
			if i < subjectCount {
				sums[i] += m
			}
		}
	}
	n := float64(len(rows))
	for i := range sums {
		sums[i] /= n
	}
	return sums
}

// FindHighestScorer returns the record with the largest total. The first
// record encountered wins ties. ok is false for an empty collection.
func FindHighestScorer[T Scored](records []T) (best T, ok bool) {
	for i, r := range records {
		if i == 0 || r.ScoreTotal() > best.ScoreTotal() {
			best = r
			ok = true
		}
	}
	return best, ok
}
