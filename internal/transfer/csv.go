// Package transfer encodes and decodes student collections for export and
// import: CSV with one column per subject, indented JSON, and XLSX.
package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
)

// ErrMalformed marks an import file that cannot be parsed.
var ErrMalformed = errors.New("malformed import file")

// Fixed columns around the per-subject columns.
var (
	leadColumns  = []string{"roll_no", "name", "age", "gender"}
	trailColumns = []string{"total", "percentage", "grade"}
)

// Header returns the CSV header for the given subject order.
func Header(subjects []string) []string {
	h := make([]string, 0, len(leadColumns)+len(subjects)+len(trailColumns))
	h = append(h, leadColumns...)
	h = append(h, subjects...)
	return append(h, trailColumns...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func row(s model.Student, subjects []string) []string {
	r := make([]string, 0, len(leadColumns)+len(subjects)+len(trailColumns))
	r = append(r, strconv.Itoa(s.RollNo), s.Name, strconv.Itoa(s.Age), s.Gender)
	for i := range subjects {
		var m float64
		if i < len(s.Marks) {
			m = s.Marks[i]
		}
		r = append(r, formatFloat(m))
	}
	return append(r, formatFloat(s.Total), formatFloat(s.Percentage), string(s.Grade))
}

// WriteCSV writes students with a header row, flattening marks into one
// column per subject.
func WriteCSV(w io.Writer, students []model.Student, subjects []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(subjects)); err != nil {
		return err
	}
	for _, s := range students {
		if err := cw.Write(row(s, subjects)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV export. Columns are located by header name, so their
// order may differ from Header. The derived columns are optional; when
// present their values are returned as stored.
func ReadCSV(r io.Reader, subjects []string) ([]model.Student, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	required := append(append([]string{}, leadColumns...), subjects...)
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	var students []model.Student
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)

		s, err := parseRecord(rec, idx, subjects)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		students = append(students, s)
	}
	return students, nil
}

func parseRecord(rec []string, idx map[string]int, subjects []string) (model.Student, error) {
	field := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var s model.Student
	var err error
	if s.RollNo, err = strconv.Atoi(field("roll_no")); err != nil {
		return s, fmt.Errorf("roll_no: %v", err)
	}
	s.Name = field("name")
	if s.Age, err = strconv.Atoi(field("age")); err != nil {
		return s, fmt.Errorf("age: %v", err)
	}
	s.Gender = field("gender")

	s.Marks = make([]float64, len(subjects))
	for i, subject := range subjects {
		if s.Marks[i], err = strconv.ParseFloat(field(subject), 64); err != nil {
			return s, fmt.Errorf("%s: %v", subject, err)
		}
	}

	if v := field("total"); v != "" {
		if s.Total, err = strconv.ParseFloat(v, 64); err != nil {
			return s, fmt.Errorf("total: %v", err)
		}
	}
	if v := field("percentage"); v != "" {
		if s.Percentage, err = strconv.ParseFloat(v, 64); err != nil {
			return s, fmt.Errorf("percentage: %v", err)
		}
	}
	s.Grade = grading.Grade(field("grade"))
	return s, nil
}
