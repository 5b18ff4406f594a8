package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentRow is the gorm mapping of the students table.
type StudentRow struct {
	RollNo     int                          `gorm:"column:roll_no;primaryKey;autoIncrement:false"`
	Name       string                       `gorm:"not null"`
	Age        int                          `gorm:"not null"`
	Gender     string                       `gorm:"size:1;not null"`
	Marks      datatypes.JSONSlice[float64] `gorm:"not null"`
	Total      float64                      `gorm:"not null;index:idx_students_rank,priority:1,sort:desc"`
	Percentage float64                      `gorm:"not null"`
	Grade      string                       `gorm:"size:2;not null"`
	Seq        int64                        `gorm:"not null;index:idx_students_rank,priority:2"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (StudentRow) TableName() string { return "students" }

// BeforeCreate assigns the next insertion sequence number. Rows are created
// one at a time so the MAX lookup and the insert share a transaction.
func (r *StudentRow) BeforeCreate(tx *gorm.DB) error {
	if r.Seq != 0 {
		return nil
	}
	return tx.Session(&gorm.Session{NewDB: true}).
		Model(&StudentRow{}).
		Select("COALESCE(MAX(seq), 0) + 1").
		Scan(&r.Seq).Error
}

func toRow(s *model.Student) *StudentRow {
	return &StudentRow{
		RollNo:     s.RollNo,
		Name:       s.Name,
		Age:        s.Age,
		Gender:     s.Gender,
		Marks:      datatypes.NewJSONSlice(s.Marks),
		Total:      s.Total,
		Percentage: s.Percentage,
		Grade:      string(s.Grade),
	}
}

func (r *StudentRow) toModel() model.Student {
	return model.Student{
		RollNo:     r.RollNo,
		Name:       r.Name,
		Age:        r.Age,
		Gender:     r.Gender,
		Marks:      []float64(r.Marks),
		Total:      r.Total,
		Percentage: r.Percentage,
		Grade:      grading.Grade(r.Grade),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// upsertColumns are overwritten when an imported roll number already exists.
var upsertColumns = []string{"name", "age", "gender", "marks", "total", "percentage", "grade", "updated_at"}

// SQLiteStudentRepository handles student data access on SQLite through gorm.
type SQLiteStudentRepository struct {
	db *gorm.DB
}

// NewSQLiteStudentRepository creates a new SQLiteStudentRepository.
func NewSQLiteStudentRepository(db *gorm.DB) *SQLiteStudentRepository {
	return &SQLiteStudentRepository{db: db}
}

// AutoMigrate creates or updates the students table.
func (r *SQLiteStudentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&StudentRow{})
}

// GetByRollNo retrieves a student by roll number.
func (r *SQLiteStudentRepository) GetByRollNo(ctx context.Context, rollNo int) (*model.Student, error) {
	var row StudentRow
	err := r.db.WithContext(ctx).Where("roll_no = ?", rollNo).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	s := row.toModel()
	return &s, nil
}

// List retrieves students in insertion order, narrowed by filter.
func (r *SQLiteStudentRepository) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	q := r.db.WithContext(ctx).Model(&StudentRow{})
	if filter.Grade != "" {
		q = q.Where("grade = ?", filter.Grade)
	}
	if filter.Gender != "" {
		q = q.Where("gender = ?", filter.Gender)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}

	var rows []StudentRow
	if err := q.Order(orderBy(filter.Sort)).Find(&rows).Error; err != nil {
		return nil, err
	}

	students := make([]model.Student, 0, len(rows))
	for i := range rows {
		students = append(students, rows[i].toModel())
	}
	return students, nil
}

// Count returns the number of stored students.
func (r *SQLiteStudentRepository) Count(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&StudentRow{}).Count(&n).Error
	return int(n), err
}

// Create inserts a new student. Derived fields must already be set.
func (r *SQLiteStudentRepository) Create(ctx context.Context, s *model.Student) error {
	row := toRow(s)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateRollNo
		}
		return err
	}
	s.CreatedAt, s.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

// Update applies the non-nil fields of patch. Reports whether a row matched.
func (r *SQLiteStudentRepository) Update(ctx context.Context, rollNo int, patch model.StudentPatch) (bool, error) {
	q := r.db.WithContext(ctx).Model(&StudentRow{}).Where("roll_no = ?", rollNo)
	if patch.IsEmpty() {
		var n int64
		err := q.Count(&n).Error
		return n > 0, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Age != nil {
		fields["age"] = *patch.Age
	}
	if patch.Gender != nil {
		fields["gender"] = *patch.Gender
	}
	if patch.Marks != nil {
		fields["marks"] = datatypes.NewJSONSlice(patch.Marks)
	}
	if patch.Total != nil {
		fields["total"] = *patch.Total
	}
	if patch.Percentage != nil {
		fields["percentage"] = *patch.Percentage
	}
	if patch.Grade != nil {
		fields["grade"] = string(*patch.Grade)
	}

	res := q.Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a student by roll number. Reports whether a row matched.
func (r *SQLiteStudentRepository) Delete(ctx context.Context, rollNo int) (bool, error) {
	res := r.db.WithContext(ctx).Where("roll_no = ?", rollNo).Delete(&StudentRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HighestScorer returns the student with the largest total; the earliest
// inserted wins ties.
func (r *SQLiteStudentRepository) HighestScorer(ctx context.Context) (*model.Student, error) {
	var row StudentRow
	err := r.db.WithContext(ctx).Order("total DESC").Order("seq ASC").Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	s := row.toModel()
	return &s, nil
}

// AllMarks returns every stored marks row in insertion order.
func (r *SQLiteStudentRepository) AllMarks(ctx context.Context) ([][]float64, error) {
	var cols []datatypes.JSONSlice[float64]
	if err := r.db.WithContext(ctx).Model(&StudentRow{}).Order("seq ASC").Pluck("marks", &cols).Error; err != nil {
		return nil, err
	}
	marks := make([][]float64, len(cols))
	for i, c := range cols {
		marks[i] = []float64(c)
	}
	return marks, nil
}

// Upsert inserts each student or replaces the existing row with the same
// roll number. Replaced rows keep their original insertion position.
func (r *SQLiteStudentRepository) Upsert(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertRows(tx, students)
	})
}

// ReplaceAll deletes every student and inserts the given set in one
// transaction.
func (r *SQLiteStudentRepository) ReplaceAll(ctx context.Context, students []model.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&StudentRow{}).Error; err != nil {
			return fmt.Errorf("clear students: %w", err)
		}
		return upsertRows(tx, students)
	})
}

func upsertRows(tx *gorm.DB, students []model.Student) error {
	for i := range students {
		row := toRow(&students[i])
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "roll_no"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("upsert student %d: %w", students[i].RollNo, err)
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
