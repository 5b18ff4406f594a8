package grading

import (
	"math"
	"strings"
)

// Gender codes accepted for a student record.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// Genders lists the accepted gender codes in display order.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// GenderLabel returns the display name for a gender code.
func GenderLabel(code string) string {
	switch code {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case GenderOther:
		return "Other"
	default:
		return code
	}
}

// Scheme is the marking scheme every front-end validates against: the
// ordered subject list and the per-subject ceiling.
type Scheme struct {
	Subjects           []string
	MaxMarksPerSubject float64
}

// NewScheme builds a Scheme.
func NewScheme(subjects []string, maxMarksPerSubject float64) Scheme {
	return Scheme{Subjects: subjects, MaxMarksPerSubject: maxMarksPerSubject}
}

// SubjectCount is the number of marks each record carries.
func (s Scheme) SubjectCount() int {
	return len(s.Subjects)
}

// MaxTotal is the denominator for percentages.
func (s Scheme) MaxTotal() float64 {
	return float64(len(s.Subjects)) * s.MaxMarksPerSubject
}

// Result holds the fields derived from a marks slice.
type Result struct {
	Total      float64
	Percentage float64
	Grade      Grade
}

// Derive validates marks and computes total, percentage and grade.
func (s Scheme) Derive(marks []float64) (Result, error) {
	if err := s.ValidateMarks(marks); err != nil {
		return Result{}, err
	}
	total := CalculateTotal(marks)
	pct, err := CalculatePercentage(total, s.MaxTotal())
	if err != nil {
		return Result{}, invalid("marks", ErrZeroMaxMarks, "Max marks cannot be zero")
	}
	return Result{Total: total, Percentage: pct, Grade: AssignGrade(pct)}, nil
}

// ValidateMarks checks there is one mark per subject, each a finite number
// within [0, MaxMarksPerSubject].
func (s Scheme) ValidateMarks(marks []float64) error {
	if len(marks) != len(s.Subjects) {
		return invalid("marks", ErrMarksCount,
			"Expected %d marks (%s), got %d", len(s.Subjects), strings.Join(s.Subjects, ", "), len(marks))
	}
	for i, m := range marks {
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 || m > s.MaxMarksPerSubject {
			return invalid("marks", ErrMarksOutOfRange,
				"Marks for %s must be between 0 and %g", s.Subjects[i], s.MaxMarksPerSubject)
		}
	}
	return nil
}

// NormalizeGender upper-cases a gender code and maps the full words
// ("male", "Female", "other") to their codes. ok is false for anything that
// is not one of M, F or O afterwards.
func NormalizeGender(gender string) (code string, ok bool) {
	g := strings.ToUpper(strings.TrimSpace(gender))
	switch g {
	case "MALE":
		g = GenderMale
	case "FEMALE":
		g = GenderFemale
	case "OTHER":
		g = GenderOther
	}
	for _, known := range Genders {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// ValidateGender normalizes a gender code and checks it is one of M, F or O.
func (s Scheme) ValidateGender(gender string) (string, error) {
	if g, ok := NormalizeGender(gender); ok {
		return g, nil
	}
	return "", invalid("gender", ErrInvalidGender, "Gender must be one of %s", strings.Join(Genders, ", "))
}
