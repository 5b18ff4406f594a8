package model

import (
	"time"

	"github.com/stemsi/student-dashboard/internal/grading"
)

// Student is one student's academic record, keyed by roll number.
// Total, Percentage and Grade are derived from Marks and never set directly
// by callers.
type Student struct {
	RollNo     int           `json:"roll_no"`
	Name       string        `json:"name"`
	Age        int           `json:"age"`
	Gender     string        `json:"gender"`
	Marks      []float64     `json:"marks"`
	Total      float64       `json:"total"`
	Percentage float64       `json:"percentage"`
	Grade      grading.Grade `json:"grade"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (s Student) ScoreMarks() []float64 { return s.Marks }
func (s Student) ScoreTotal() float64   { return s.Total }

// Apply copies derived fields onto the record.
func (s *Student) Apply(r grading.Result) {
	s.Total = r.Total
	s.Percentage = r.Percentage
	s.Grade = r.Grade
}

// StudentFilter narrows List results. Zero values match everything.
type StudentFilter struct {
	Grade  string
	Gender string
	// Name matches case-insensitively anywhere in the student's name.
	Name string
	// Sort orders the results; the zero value keeps storage order.
	Sort StudentSort
}

// StudentSort orders a listing by one column. Rows that compare equal stay
// in storage order.
type StudentSort struct {
	Field string
	Desc  bool
}

// Sortable listing columns.
var SortFields = []string{"roll_no", "name", "age", "gender", "total", "percentage"}

// AveragePercentage is the mean percentage of students, zero when empty.
func AveragePercentage(students []Student) float64 {
	if len(students) == 0 {
		return 0
	}
	var sum float64
	for _, s := range students {
		sum += s.Percentage
	}
	return sum / float64(len(students))
}

// StudentPatch is a partial update handed to the store. Nil fields are left
// untouched. When Marks is set the derived fields must be set with it.
type StudentPatch struct {
	Name       *string
	Age        *int
	Gender     *string
	Marks      []float64
	Total      *float64
	Percentage *float64
	Grade      *grading.Grade
}

// IsEmpty reports whether the patch changes nothing.
func (p StudentPatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Gender == nil && p.Marks == nil &&
		p.Total == nil && p.Percentage == nil && p.Grade == nil
}

// CreateStudentRequest is the payload for adding a student. It binds from
// JSON or from a form post; marks arrive in subject order.
type CreateStudentRequest struct {
	RollNo int       `json:"roll_no" form:"roll_no" binding:"required,gt=0"`
	Name   string    `json:"name" form:"name" binding:"required,max=100,personname"`
	Age    int       `json:"age" form:"age"`
	Gender string    `json:"gender" form:"gender" binding:"required,gender"`
	Marks  []float64 `json:"marks" form:"marks" binding:"required,dive,gte=0"`
}

// UpdateStudentRequest is the payload for editing a student. Omitted fields
// keep their stored values.
type UpdateStudentRequest struct {
	Name   *string   `json:"name" form:"name" binding:"omitempty,max=100,personname"`
	Age    *int      `json:"age" form:"age"`
	Gender *string   `json:"gender" form:"gender" binding:"omitempty,gender"`
	Marks  []float64 `json:"marks" form:"marks" binding:"omitempty,dive,gte=0"`
}

// StudentInput is the validated-on-entry shape every front-end produces.
type StudentInput struct {
	RollNo int
	Name   string
	Age    int
	Gender string
	Marks  []float64
}

// StudentInputPatch is the front-end shape of an edit.
type StudentInputPatch struct {
	Name   *string
	Age    *int
	Gender *string
	Marks  []float64
}

// Input converts the request to the shared input shape.
func (r CreateStudentRequest) Input() StudentInput {
	return StudentInput{RollNo: r.RollNo, Name: r.Name, Age: r.Age, Gender: r.Gender, Marks: r.Marks}
}

// Input converts the request to the shared patch shape.
func (r UpdateStudentRequest) Input() StudentInputPatch {
	return StudentInputPatch{Name: r.Name, Age: r.Age, Gender: r.Gender, Marks: r.Marks}
}
