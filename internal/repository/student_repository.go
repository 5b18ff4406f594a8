package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/student-dashboard/internal/model"
)

const studentColumns = `roll_no, name, age, gender, marks, total, percentage, grade, created_at, updated_at`

const upsertStudentSQL = `INSERT INTO students (roll_no, name, age, gender, marks, total, percentage, grade)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (roll_no) DO UPDATE SET
		name = EXCLUDED.name,
		age = EXCLUDED.age,
		gender = EXCLUDED.gender,
		marks = EXCLUDED.marks,
		total = EXCLUDED.total,
		percentage = EXCLUDED.percentage,
		grade = EXCLUDED.grade,
		updated_at = CURRENT_TIMESTAMP`

// StudentRepository handles student data access on PostgreSQL.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.RollNo, &s.Name, &s.Age, &s.Gender, &s.Marks, &s.Total, &s.Percentage, &s.Grade, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByRollNo retrieves a student by roll number.
func (r *StudentRepository) GetByRollNo(ctx context.Context, rollNo int) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE roll_no = $1`, rollNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	return s, err
}

// List retrieves students in insertion order, narrowed by filter.
func (r *StudentRepository) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var conds []string
	var args []interface{}

	if filter.Grade != "" {
		args = append(args, filter.Grade)
		conds = append(conds, `grade = $`+strconv.Itoa(len(args)))
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		conds = append(conds, `gender = $`+strconv.Itoa(len(args)))
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		conds = append(conds, `name ILIKE '%' || $`+strconv.Itoa(len(args))+` || '%'`)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY ` + orderBy(filter.Sort)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Count returns the number of stored students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}

// Create inserts a new student. Derived fields must already be set.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (roll_no, name, age, gender, marks, total, percentage, grade)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		s.RollNo, s.Name, s.Age, s.Gender, s.Marks, s.Total, s.Percentage, s.Grade,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRollNo
		}
		return err
	}
	return nil
}

// Update applies the non-nil fields of patch. Reports whether a row matched.
func (r *StudentRepository) Update(ctx context.Context, rollNo int, patch model.StudentPatch) (bool, error) {
	if patch.IsEmpty() {
		return r.exists(ctx, rollNo)
	}

	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+` = $`+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Gender != nil {
		add("gender", *patch.Gender)
	}
	if patch.Marks != nil {
		add("marks", patch.Marks)
	}
	if patch.Total != nil {
		add("total", *patch.Total)
	}
	if patch.Percentage != nil {
		add("percentage", *patch.Percentage)
	}
	if patch.Grade != nil {
		add("grade", *patch.Grade)
	}

	args = append(args, rollNo)
	query := `UPDATE students SET ` + strings.Join(sets, `, `) +
		`, updated_at = CURRENT_TIMESTAMP WHERE roll_no = $` + strconv.Itoa(len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *StudentRepository) exists(ctx context.Context, rollNo int) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM students WHERE roll_no = $1)`, rollNo).Scan(&ok)
	return ok, err
}

// Delete removes a student by roll number. Reports whether a row matched.
func (r *StudentRepository) Delete(ctx context.Context, rollNo int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE roll_no = $1`, rollNo)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// HighestScorer returns the student with the largest total; the earliest
// inserted wins ties.
func (r *StudentRepository) HighestScorer(ctx context.Context) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY total DESC, seq ASC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	return s, err
}

// AllMarks returns every stored marks row in insertion order.
func (r *StudentRepository) AllMarks(ctx context.Context) ([][]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT marks FROM students ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[[]float64])
}

// Upsert inserts each student or replaces the existing row with the same
// roll number. Replaced rows keep their original insertion position.
func (r *StudentRepository) Upsert(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range students {
		batch.Queue(upsertStudentSQL, s.RollNo, s.Name, s.Age, s.Gender, s.Marks, s.Total, s.Percentage, s.Grade)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert students: %w", err)
	}
	return nil
}

// ReplaceAll deletes every student and inserts the given set in one
// transaction.
func (r *StudentRepository) ReplaceAll(ctx context.Context, students []model.Student) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM students`); err != nil {
			return fmt.Errorf("clear students: %w", err)
		}
		for _, s := range students {
			if _, err := tx.Exec(ctx, upsertStudentSQL,
				s.RollNo, s.Name, s.Age, s.Gender, s.Marks, s.Total, s.Percentage, s.Grade); err != nil {
				return fmt.Errorf("insert student %d: %w", s.RollNo, err)
			}
		}
		return nil
	})
}
