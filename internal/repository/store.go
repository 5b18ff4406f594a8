package repository

import (
	"context"

	"github.com/stemsi/student-dashboard/internal/model"
)

// Store is the student record store. StudentRepository (PostgreSQL) and
// SQLiteStudentRepository both satisfy it.
//
// The store never derives total, percentage or grade; callers hand it
// records whose derived fields are already consistent with their marks.
type Store interface {
	Create(ctx context.Context, s *model.Student) error
	GetByRollNo(ctx context.Context, rollNo int) (*model.Student, error)
	List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, rollNo int, patch model.StudentPatch) (bool, error)
	Delete(ctx context.Context, rollNo int) (bool, error)
	HighestScorer(ctx context.Context) (*model.Student, error)
	AllMarks(ctx context.Context) ([][]float64, error)
	Upsert(ctx context.Context, students []model.Student) error
	ReplaceAll(ctx context.Context, students []model.Student) error
}

var (
	_ Store = (*StudentRepository)(nil)
	_ Store = (*SQLiteStudentRepository)(nil)
)

var sortColumns = map[string]string{
	"roll_no":    "roll_no",
	"name":       "LOWER(name)",
	"age":        "age",
	"gender":     "gender",
	"total":      "total",
	"percentage": "percentage",
}

// orderBy renders the ORDER BY expression for a listing. Unknown fields fall
// back to storage order.
func orderBy(sort model.StudentSort) string {
	col, ok := sortColumns[sort.Field]
	if !ok {
		return "seq ASC"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", seq ASC"
}
