package transfer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
)

// Record is the JSON export shape of a student.
type Record struct {
	RollNo     int           `json:"roll_no"`
	Name       string        `json:"name"`
	Age        int           `json:"age"`
	Gender     string        `json:"gender"`
	Marks      []float64     `json:"marks"`
	Total      float64       `json:"total"`
	Percentage float64       `json:"percentage"`
	Grade      grading.Grade `json:"grade"`
}

// WriteJSON writes students as an indented JSON array.
func WriteJSON(w io.Writer, students []model.Student) error {
	records := make([]Record, len(students))
	for i, s := range students {
		records[i] = Record{
			RollNo:     s.RollNo,
			Name:       s.Name,
			Age:        s.Age,
			Gender:     s.Gender,
			Marks:      s.Marks,
			Total:      s.Total,
			Percentage: s.Percentage,
			Grade:      s.Grade,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}

// ReadJSON parses a JSON array of records.
func ReadJSON(r io.Reader) ([]model.Student, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	students := make([]model.Student, len(records))
	for i, rec := range records {
		students[i] = model.Student{
			RollNo:     rec.RollNo,
			Name:       rec.Name,
			Age:        rec.Age,
			Gender:     rec.Gender,
			Marks:      rec.Marks,
			Total:      rec.Total,
			Percentage: rec.Percentage,
			Grade:      rec.Grade,
		}
	}
	return students, nil
}
