package grading

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scored struct {
	name  string
	marks []float64
}

func (s scored) ScoreMarks() []float64 { return s.marks }
func (s scored) ScoreTotal() float64   { return CalculateTotal(s.marks) }

func TestCalculatePercentage(t *testing.T) {
	pct, err := CalculatePercentage(400, 500)
	require.NoError(t, err)
	assert.Equal(t, 80.0, pct)

	for _, total := range []float64{0, 1, 400, -3} {
		_, err := CalculatePercentage(total, 0)
		assert.ErrorIs(t, err, ErrZeroMaxMarks, "total=%v", total)
	}
}

func TestAssignGradeBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Grade
	}{
		{100, GradeAPlus},
		{90, GradeAPlus},
		{89.999, GradeA},
		{80, GradeA},
		{79.999, GradeB},
		{70, GradeB},
		{69.999, GradeC},
		{60, GradeC},
		{59.999, GradeD},
		{50, GradeD},
		{49.999, GradeF},
		{0, GradeF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AssignGrade(tt.pct), "percentage %v", tt.pct)
	}
}

func TestValidateName(t *testing.T) {
	name, err := ValidateName("John Doe")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", name)

	name, err = ValidateName("  Siti Aminah ")
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", name)

	name, err = ValidateName("José Núñez")
	require.NoError(t, err)
	assert.Equal(t, "José Núñez", name)

	for _, bad := range []string{"John123", "O'Brien", "   ", ""} {
		_, err := ValidateName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", bad)
	}
}

func TestCalculateTotal(t *testing.T) {
	assert.Equal(t, 400.0, CalculateTotal([]float64{80, 90, 85, 75, 70}))
	assert.Equal(t, 0.0, CalculateTotal(nil))
}

func TestCalculateSubjectAverages(t *testing.T) {
	records := []scored{
		{marks: []float64{80, 90, 85, 75, 70}},
		{marks: []float64{85, 95, 80, 80, 75}},
	}
	assert.Equal(t, []float64{82.5, 92.5, 82.5, 77.5, 72.5}, CalculateSubjectAverages(records, 5))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, CalculateSubjectAverages([]scored{}, 5))
}

func TestFindHighestScorer(t *testing.T) {
	_, ok := FindHighestScorer([]scored{})
	assert.False(t, ok)

	records := []scored{
		{name: "first", marks: []float64{50, 50}},
		{name: "second", marks: []float64{60, 60}},
		{name: "tied", marks: []float64{70, 50}},
	}
	best, ok := FindHighestScorer(records)
	require.True(t, ok)
	assert.Equal(t, "second", best.name)

	tie := []scored{
		{name: "a", marks: []float64{90}},
		{name: "b", marks: []float64{90}},
	}
	best, ok = FindHighestScorer(tie)
	require.True(t, ok)
	assert.Equal(t, "a", best.name)
}

func TestSchemeDerive(t *testing.T) {
	s := NewScheme([]string{"Math", "Science", "English", "History", "Art"}, 100)
	assert.Equal(t, 500.0, s.MaxTotal())

	res, err := s.Derive([]float64{80, 90, 85, 75, 70})
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 400, Percentage: 80, Grade: GradeA}, res)

	_, err = s.Derive([]float64{80, 90})
	assert.ErrorIs(t, err, ErrMarksCount)

	_, err = s.Derive([]float64{80, 90, 101, 75, 70})
	assert.ErrorIs(t, err, ErrMarksOutOfRange)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "marks", ve.Field)
	assert.Contains(t, ve.Message, "English")

	_, err = s.Derive([]float64{-1, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMarksOutOfRange)

	empty := NewScheme(nil, 100)
	_, err = empty.Derive(nil)
	assert.ErrorIs(t, err, ErrZeroMaxMarks)
}

func TestSchemeRejectsNonFiniteMarks(t *testing.T) {
	s := NewScheme([]string{"Math", "Science", "English", "History", "Art"}, 100)
	for _, m := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := s.Derive([]float64{m, 90, 85, 75, 70})
		assert.ErrorIs(t, err, ErrMarksOutOfRange, "%v", m)
		assert.Contains(t, err.Error(), "Math")
	}
}

func TestSchemeDeriveZeroMax(t *testing.T) {
	empty := NewScheme(nil, 100)
	_, err := empty.Derive(nil)
	assert.ErrorIs(t, err, ErrZeroMaxMarks)
}

func TestSchemeValidateGender(t *testing.T) {
	s := NewScheme([]string{"Math"}, 100)
	for in, want := range map[string]string{"m": "M", "F": "F", " o ": "O", "female": "F", "Male": "M"} {
		got, err := s.ValidateGender(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := s.ValidateGender("X")
	assert.ErrorIs(t, err, ErrInvalidGender)
	assert.Equal(t, map[string]string{"gender": "Gender must be one of M, F, O"}, Fields(err))
}
