package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *service.StudentService {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "students.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseSQLite(db) })

	repo := repository.NewSQLiteStudentRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return service.NewStudentService(repo, grading.NewScheme(config.DefaultSubjects, 100), nil, zerolog.Nop())
}

// run feeds one answer per line and returns everything printed.
func run(t *testing.T, svc *service.StudentService, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(svc, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, false, zerolog.Nop())
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func addJohn() []string {
	return []string{"1", "John Doe", "1", "20", "m", "80", "90", "85", "75", "70"}
}

func TestAddAndDisplay(t *testing.T) {
	svc := newService(t)
	lines := append(addJohn(), "2", "11")
	out := run(t, svc, lines...)

	assert.Contains(t, out, "Student John Doe added successfully!")
	assert.Contains(t, out, "Name: John Doe, Roll No: 1, Total: 400, Percentage: 80.00%, Grade: A")
	assert.Contains(t, out, "Showing 1 students | Average Percentage: 80.00%")
	assert.Contains(t, out, "Exiting...")

	s, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "M", s.Gender)
}

func TestAddErrors(t *testing.T) {
	svc := newService(t)
	out := run(t, svc,
		"1", "John123", "1", "20", "M", "1", "1", "1", "1", "1",
		"1", "John", "x",
		"1", "John", "1", "20", "M", "1", "1", "1", "1", "101",
		"1", "John", "1", "20", "M", "NaN", "1", "1", "1", "1",
		"11",
	)
	assert.Contains(t, out, "Error: Name must contain only letters and spaces")
	assert.Contains(t, out, "Error: roll number must be a whole number")
	assert.Contains(t, out, "Error: Marks for Art must be between 0 and 100")
	assert.Contains(t, out, "Error: Marks for Math must be between 0 and 100")

	students, err := svc.List(context.Background(), model.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestDuplicateRollNo(t *testing.T) {
	svc := newService(t)
	lines := append(addJohn(), addJohn()...)
	out := run(t, svc, append(lines, "11")...)
	assert.Contains(t, out, "Error: A student with this roll number already exists.")
}

func TestSearchEditDelete(t *testing.T) {
	svc := newService(t)
	lines := append(addJohn(),
		"3", "1",
		"3", "7",
		"3", "abc",
		"4", "1", "Johnny Doe", "", "", "95", "95", "95", "95", "95",
		"5", "1",
		"5", "1",
		"11",
	)
	out := run(t, svc, lines...)

	assert.Contains(t, out, "Name: John Doe, Age: 20, Gender: M")
	assert.Contains(t, out, "Marks: Math=80, Science=90, English=85, History=75, Art=70")
	assert.Contains(t, out, "Total: 400, Percentage: 80.00%, Grade: A")
	assert.Contains(t, out, "Student not found.")
	assert.Contains(t, out, "Invalid roll number.")
	assert.Contains(t, out, "Student updated successfully!")
	assert.Contains(t, out, "Student deleted successfully!")
	assert.Equal(t, 2, strings.Count(out, "Student not found."))
}

func TestEditKeepsBlankFields(t *testing.T) {
	svc := newService(t)
	lines := append(addJohn(), "4", "1", "", "21", "", "", "", "", "", "", "11")
	run(t, svc, lines...)

	s, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", s.Name)
	assert.Equal(t, 21, s.Age)
	assert.Equal(t, []float64{80, 90, 85, 75, 70}, s.Marks)
}

func TestStatistics(t *testing.T) {
	svc := newService(t)
	out := run(t, svc, "6", "11")
	assert.Contains(t, out, "No data available.")

	lines := append(addJohn(), "6", "11")
	out = run(t, svc, lines...)
	assert.Contains(t, out, "Highest Scorer: John Doe with 400 marks")
	assert.Contains(t, out, "Math: 80.00")
	assert.Contains(t, out, "A: 1 (100.0%)")
	assert.Contains(t, out, "Male: 1 (100.0%)")
}

func TestExportImport(t *testing.T) {
	svc := newService(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")

	lines := append(addJohn(), "7", csvPath, "9", jsonPath, "11")
	out := run(t, svc, lines...)
	assert.Contains(t, out, "Data exported to "+csvPath)
	assert.Contains(t, out, "Data exported to "+jsonPath)

	other := newService(t)
	out = run(t, other, "8", csvPath, "10", jsonPath, "10", filepath.Join(dir, "missing.json"), "11")
	assert.Contains(t, out, "Imported 1 students from "+csvPath)
	assert.Contains(t, out, "existing records replaced")
	assert.Contains(t, out, "Unexpected error:")

	s, err := other.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, grading.GradeA, s.Grade)
}

func TestInvalidChoiceAndEOF(t *testing.T) {
	svc := newService(t)
	var out bytes.Buffer
	c := New(svc, strings.NewReader("42\n1\nJohn"), &out, true, zerolog.Nop())
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Invalid choice. Try again.")
	assert.Contains(t, out.String(), "Enter roll number: ")
	assert.Contains(t, out.String(), "11. Exit")
}
