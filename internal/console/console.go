// Package console runs the interactive text menu over the record manager.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/transfer"
)

// inputError is a problem with what the user typed. It is printed and the
// menu carries on.
type inputError string

func (e inputError) Error() string { return string(e) }

const errInvalidRollNo = inputError("Invalid roll number.")

type action struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

// Console is one interactive session.
type Console struct {
	svc     *service.StudentService
	in      *bufio.Reader
	out     io.Writer
	prompts bool
	actions []action
	log     zerolog.Logger
}

// New creates a Console reading commands from in and writing to out.
// When prompts is false, input prompts are not echoed, which suits piped
// input.
func New(svc *service.StudentService, in io.Reader, out io.Writer, prompts bool, log zerolog.Logger) *Console {
	c := &Console{
		svc:     svc,
		in:      bufio.NewReader(in),
		out:     out,
		prompts: prompts,
		log:     log.With().Str("component", "console").Logger(),
	}
	c.actions = []action{
		{"1", "Add Student", c.addStudent},
		{"2", "Display All Students", c.displayStudents},
		{"3", "Search Student", c.searchStudent},
		{"4", "Edit Student", c.editStudent},
		{"5", "Delete Student", c.deleteStudent},
		{"6", "Show Statistics", c.showStatistics},
		{"7", "Export to CSV", c.exportCSV},
		{"8", "Import from CSV", c.importCSV},
		{"9", "Export to JSON", c.exportJSON},
		{"10", "Import from JSON", c.importJSON},
	}
	return c
}

// Run shows the menu until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	c.println("Welcome to the Student Performance Management System!")
	exitKey := strconv.Itoa(len(c.actions) + 1)

	for {
		c.println("\nStudent Performance Management System")
		for _, a := range c.actions {
			c.printf("%s. %s\n", a.key, a.label)
		}
		c.printf("%s. Exit\n", exitKey)

		choice, err := c.readLine("Enter choice: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == exitKey {
			c.println("Exiting...")
			return nil
		}

		a, ok := c.lookup(choice)
		if !ok {
			c.println("Invalid choice. Try again.")
			continue
		}
		if err := a.run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.report(err)
		}
	}
}

func (c *Console) lookup(key string) (action, bool) {
	for _, a := range c.actions {
		if a.key == key {
			return a, true
		}
	}
	return action{}, false
}

// report prints an error the way the menu shows every failure.
func (c *Console) report(err error) {
	var ie inputError
	var ve *grading.ValidationError
	switch {
	case errors.As(err, &ie):
		if ie == errInvalidRollNo {
			c.println(ie.Error())
			return
		}
		c.printf("Error: %s\n", ie)
	case errors.As(err, &ve):
		c.printf("Error: %s\n", ve.Message)
	case errors.Is(err, repository.ErrStudentNotFound):
		c.println("Student not found.")
	case errors.Is(err, repository.ErrDuplicateRollNo):
		c.println("Error: A student with this roll number already exists.")
	case errors.Is(err, transfer.ErrMalformed):
		c.printf("Error: %s\n", err)
	default:
		c.log.Error().Err(err).Msg("Console action failed")
		c.printf("Unexpected error: %s\n", err)
	}
}

func (c *Console) addStudent(ctx context.Context) error {
	name, err := c.readLine("Enter student's name: ")
	if err != nil {
		return err
	}
	rollNo, err := c.readInt("Enter roll number: ", "roll number")
	if err != nil {
		return err
	}
	age, err := c.readInt("Enter age: ", "age")
	if err != nil {
		return err
	}
	gender, err := c.readLine(fmt.Sprintf("Enter gender (%s): ", strings.Join(grading.Genders, "/")))
	if err != nil {
		return err
	}

	subjects := c.svc.Scheme().Subjects
	marks := make([]float64, len(subjects))
	for i, subject := range subjects {
		if marks[i], err = c.readMark(fmt.Sprintf("Enter marks for %s: ", subject), subject, nil); err != nil {
			return err
		}
	}

	s, err := c.svc.Add(ctx, model.StudentInput{RollNo: rollNo, Name: name, Age: age, Gender: gender, Marks: marks})
	if err != nil {
		return err
	}
	c.printf("Student %s added successfully!\n", s.Name)
	return nil
}

func (c *Console) displayStudents(ctx context.Context) error {
	students, err := c.svc.List(ctx, model.StudentFilter{})
	if err != nil {
		return err
	}
	if len(students) == 0 {
		c.println("No students to display.")
		return nil
	}
	for _, s := range students {
		c.printf("Name: %s, Roll No: %d, Total: %g, Percentage: %.2f%%, Grade: %s\n",
			s.Name, s.RollNo, s.Total, s.Percentage, s.Grade)
	}
	c.printf("Showing %d students | Average Percentage: %.2f%%\n", len(students), model.AveragePercentage(students))
	return nil
}

func (c *Console) searchStudent(ctx context.Context) error {
	rollNo, err := c.readRollNo("Enter roll number to search: ")
	if err != nil {
		return err
	}
	s, err := c.svc.Get(ctx, rollNo)
	if err != nil {
		return err
	}
	c.printDetails(s)
	c.printf("Total: %g, Percentage: %.2f%%, Grade: %s\n", s.Total, s.Percentage, s.Grade)
	return nil
}

func (c *Console) editStudent(ctx context.Context) error {
	rollNo, err := c.readRollNo("Enter roll number to edit: ")
	if err != nil {
		return err
	}
	s, err := c.svc.Get(ctx, rollNo)
	if err != nil {
		return err
	}
	c.println("Current details:")
	c.printDetails(s)

	var patch model.StudentInputPatch
	name, err := c.readLine(fmt.Sprintf("Enter new name (current: %s): ", s.Name))
	if err != nil {
		return err
	}
	if name != "" {
		patch.Name = &name
	}

	ageRaw, err := c.readLine(fmt.Sprintf("Enter new age (current: %d): ", s.Age))
	if err != nil {
		return err
	}
	if ageRaw != "" {
		age, err := strconv.Atoi(ageRaw)
		if err != nil {
			return inputError("age must be a whole number")
		}
		patch.Age = &age
	}

	gender, err := c.readLine(fmt.Sprintf("Enter new gender %s (current: %s): ", strings.Join(grading.Genders, "/"), s.Gender))
	if err != nil {
		return err
	}
	if gender != "" {
		patch.Gender = &gender
	}

	subjects := c.svc.Scheme().Subjects
	marks := make([]float64, len(subjects))
	changed := false
	for i, subject := range subjects {
		var current *float64
		if i < len(s.Marks) {
			current = &s.Marks[i]
		}
		prompt := fmt.Sprintf("Enter new marks for %s (current: %s): ", subject, formatMark(current))
		if marks[i], err = c.readMark(prompt, subject, current); err != nil {
			return err
		}
		if current == nil || marks[i] != *current {
			changed = true
		}
	}
	if changed {
		patch.Marks = marks
	}

	if _, err := c.svc.Update(ctx, rollNo, patch); err != nil {
		return err
	}
	c.println("Student updated successfully!")
	return nil
}

func (c *Console) deleteStudent(ctx context.Context) error {
	rollNo, err := c.readRollNo("Enter roll number to delete: ")
	if err != nil {
		return err
	}
	if err := c.svc.Delete(ctx, rollNo); err != nil {
		return err
	}
	c.println("Student deleted successfully!")
	return nil
}

func (c *Console) showStatistics(ctx context.Context) error {
	stats, err := c.svc.Statistics(ctx)
	if err != nil {
		return err
	}
	if stats.TotalStudents == 0 || stats.HighestScorer == nil {
		c.println("No data available.")
		return nil
	}

	c.printf("Total Students: %d\n", stats.TotalStudents)
	c.printf("Average Age: %.1f\n", stats.AverageAge)
	c.printf("Class Average: %.2f%%\n", stats.AveragePercentage)
	c.printf("Highest Scorer: %s with %g marks\n", stats.HighestScorer.Name, stats.HighestScorer.Total)

	c.println("Subject Averages:")
	for _, a := range stats.SubjectAverages {
		c.printf("%s: %.2f\n", a.Subject, a.Average)
	}
	c.println("Grade Distribution:")
	for _, b := range stats.GradeDistribution {
		c.printf("%s: %d (%.1f%%)\n", b.Label, b.Count, b.Share)
	}
	c.println("Gender Distribution:")
	for _, b := range stats.GenderBreakdown {
		c.printf("%s: %d (%.1f%%)\n", b.Label, b.Count, b.Share)
	}
	return nil
}

func (c *Console) exportCSV(ctx context.Context) error {
	path, err := c.readPath("students.csv")
	if err != nil {
		return err
	}
	if err := c.svc.ExportCSVFile(ctx, path); err != nil {
		return err
	}
	c.printf("Data exported to %s\n", path)
	return nil
}

func (c *Console) importCSV(ctx context.Context) error {
	path, err := c.readPath("students.csv")
	if err != nil {
		return err
	}
	n, err := c.svc.ImportCSVFile(ctx, path)
	if err != nil {
		return err
	}
	c.printf("Imported %d students from %s\n", n, path)
	return nil
}

func (c *Console) exportJSON(ctx context.Context) error {
	path, err := c.readPath("students.json")
	if err != nil {
		return err
	}
	if err := c.svc.ExportJSONFile(ctx, path); err != nil {
		return err
	}
	c.printf("Data exported to %s\n", path)
	return nil
}

func (c *Console) importJSON(ctx context.Context) error {
	path, err := c.readPath("students.json")
	if err != nil {
		return err
	}
	n, err := c.svc.ImportJSONFile(ctx, path)
	if err != nil {
		return err
	}
	c.printf("Imported %d students from %s (existing records replaced)\n", n, path)
	return nil
}

func (c *Console) printDetails(s *model.Student) {
	c.printf("Name: %s, Age: %d, Gender: %s\n", s.Name, s.Age, s.Gender)

	subjects := c.svc.Scheme().Subjects
	parts := make([]string, 0, len(subjects))
	for i, subject := range subjects {
		var m *float64
		if i < len(s.Marks) {
			m = &s.Marks[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%s", subject, formatMark(m)))
	}
	c.printf("Marks: %s\n", strings.Join(parts, ", "))
}

func formatMark(m *float64) string {
	if m == nil {
		return "-"
	}
	return strconv.FormatFloat(*m, 'f', -1, 64)
}

// readLine prompts and returns one trimmed line. A final line without a
// newline is returned as is; io.EOF comes on the call after.
func (c *Console) readLine(prompt string) (string, error) {
	if c.prompts {
		fmt.Fprint(c.out, prompt)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) readInt(prompt, what string) (int, error) {
	raw, err := c.readLine(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, inputError(what + " must be a whole number")
	}
	return n, nil
}

func (c *Console) readRollNo(prompt string) (int, error) {
	raw, err := c.readLine(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidRollNo
	}
	return n, nil
}

// readMark parses one mark. A blank answer keeps current when it is set.
func (c *Console) readMark(prompt, subject string, current *float64) (float64, error) {
	raw, err := c.readLine(prompt)
	if err != nil {
		return 0, err
	}
	if raw == "" && current != nil {
		return *current, nil
	}
	m, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, inputError(fmt.Sprintf("marks for %s must be a number", subject))
	}
	return m, nil
}

func (c *Console) readPath(fallback string) (string, error) {
	path, err := c.readLine(fmt.Sprintf("Enter file path (default: %s): ", fallback))
	if err != nil {
		return "", err
	}
	if path == "" {
		return fallback, nil
	}
	return path, nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}
