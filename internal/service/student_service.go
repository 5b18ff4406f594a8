package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
)

// StatisticsCache holds the last computed class summary. Implementations
// must tolerate their own failures; a miss only costs a recomputation.
//
// Get reports the current write generation even on a miss. Set stores a
// summary under the generation it was computed at, and a later Get only
// serves it while no Invalidate has happened since.
type StatisticsCache interface {
	Get(ctx context.Context) (stats *model.Statistics, generation int64, ok bool)
	Set(ctx context.Context, generation int64, stats *model.Statistics)
	Invalidate(ctx context.Context)
}

// StudentService is the record manager shared by every front-end. It
// validates input against the marking scheme, derives total, percentage and
// grade, and delegates persistence to the store.
type StudentService struct {
	store  repository.Store
	scheme grading.Scheme
	cache  StatisticsCache
	log    zerolog.Logger
}

// NewStudentService creates a new StudentService. cache may be nil.
func NewStudentService(store repository.Store, scheme grading.Scheme, cache StatisticsCache, log zerolog.Logger) *StudentService {
	return &StudentService{
		store:  store,
		scheme: scheme,
		cache:  cache,
		log:    log.With().Str("component", "student_service").Logger(),
	}
}

// Scheme returns the marking scheme in force.
func (s *StudentService) Scheme() grading.Scheme {
	return s.scheme
}

// Build validates input and returns a fully derived record without storing it.
func (s *StudentService) Build(in model.StudentInput) (*model.Student, error) {
	name, err := grading.ValidateName(in.Name)
	if err != nil {
		return nil, err
	}
	gender, err := s.scheme.ValidateGender(in.Gender)
	if err != nil {
		return nil, err
	}
	res, err := s.scheme.Derive(in.Marks)
	if err != nil {
		return nil, err
	}

	student := &model.Student{
		RollNo: in.RollNo,
		Name:   name,
		Age:    in.Age,
		Gender: gender,
		Marks:  append([]float64(nil), in.Marks...),
	}
	student.Apply(res)
	return student, nil
}

// Add validates, derives and inserts a new student.
func (s *StudentService) Add(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	student, err := s.Build(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, student); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.log.Info().Int("roll_no", student.RollNo).Str("grade", string(student.Grade)).Msg("Student added")
	return student, nil
}

// Get retrieves a student by roll number.
func (s *StudentService) Get(ctx context.Context, rollNo int) (*model.Student, error) {
	return s.store.GetByRollNo(ctx, rollNo)
}

// List retrieves students in storage order. Filter values are normalized:
// gender is upper-cased and "All" means no filter on that field.
func (s *StudentService) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	filter.Grade = normalizeFilter(filter.Grade)
	filter.Gender = strings.ToUpper(normalizeFilter(filter.Gender))
	filter.Name = strings.TrimSpace(filter.Name)

	students, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}

// ErrInvalidSort is returned by ParseSort for a column that cannot be sorted on.
var ErrInvalidSort = errors.New("invalid sort field")

// ParseSort reads a listing order such as "name" or "-total". A leading "-"
// sorts descending. An empty value keeps storage order.
func ParseSort(raw string) (model.StudentSort, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.StudentSort{}, nil
	}
	sort := model.StudentSort{Field: strings.TrimPrefix(raw, "-"), Desc: strings.HasPrefix(raw, "-")}
	for _, f := range model.SortFields {
		if f == sort.Field {
			return sort, nil
		}
	}
	return model.StudentSort{}, fmt.Errorf("%w: %q (sortable: %s)", ErrInvalidSort, sort.Field, strings.Join(model.SortFields, ", "))
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// Search looks a student up by roll number when query is numeric, and by
// name substring otherwise.
func (s *StudentService) Search(ctx context.Context, query string) ([]model.Student, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Student{}, nil
	}
	if rollNo, err := strconv.Atoi(query); err == nil {
		student, err := s.store.GetByRollNo(ctx, rollNo)
		if errors.Is(err, repository.ErrStudentNotFound) {
			return []model.Student{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []model.Student{*student}, nil
	}
	return s.List(ctx, model.StudentFilter{Name: query})
}

// Update validates the provided fields and applies them. Derived fields are
// recomputed only when marks change. Returns ErrStudentNotFound if no row
// matched.
func (s *StudentService) Update(ctx context.Context, rollNo int, in model.StudentInputPatch) (*model.Student, error) {
	var patch model.StudentPatch

	if in.Name != nil {
		name, err := grading.ValidateName(*in.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Age != nil {
		age := *in.Age
		patch.Age = &age
	}
	if in.Gender != nil {
		gender, err := s.scheme.ValidateGender(*in.Gender)
		if err != nil {
			return nil, err
		}
		patch.Gender = &gender
	}
	if in.Marks != nil {
		res, err := s.scheme.Derive(in.Marks)
		if err != nil {
			return nil, err
		}
		patch.Marks = append([]float64(nil), in.Marks...)
		patch.Total = &res.Total
		patch.Percentage = &res.Percentage
		patch.Grade = &res.Grade
	}

	matched, err := s.store.Update(ctx, rollNo, patch)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, repository.ErrStudentNotFound
	}
	if !patch.IsEmpty() {
		s.invalidate(ctx)
		s.log.Info().Int("roll_no", rollNo).Msg("Student updated")
	}
	return s.store.GetByRollNo(ctx, rollNo)
}

// Delete removes a student. Returns ErrStudentNotFound if no row matched.
func (s *StudentService) Delete(ctx context.Context, rollNo int) error {
	matched, err := s.store.Delete(ctx, rollNo)
	if err != nil {
		return err
	}
	if !matched {
		return repository.ErrStudentNotFound
	}
	s.invalidate(ctx)

	s.log.Info().Int("roll_no", rollNo).Msg("Student deleted")
	return nil
}

// HighestScorer returns the top-scoring student, first-added on ties.
// Returns ErrStudentNotFound when there are no students.
func (s *StudentService) HighestScorer(ctx context.Context) (*model.Student, error) {
	return s.store.HighestScorer(ctx)
}

// SubjectAverages returns the class mean per subject, zeros when empty.
func (s *StudentService) SubjectAverages(ctx context.Context) ([]float64, error) {
	rows, err := s.store.AllMarks(ctx)
	if err != nil {
		return nil, err
	}
	return grading.AverageMarks(rows, s.scheme.SubjectCount()), nil
}

// Statistics summarizes the class. The summary is served from the cache
// when one is configured and still valid.
func (s *StudentService) Statistics(ctx context.Context) (*model.Statistics, error) {
	var generation int64
	if s.cache != nil {
		stats, gen, ok := s.cache.Get(ctx)
		if ok {
			return stats, nil
		}
		generation = gen
	}

	students, err := s.store.List(ctx, model.StudentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	averages, err := s.SubjectAverages(ctx)
	if err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	stats := &model.Statistics{
		TotalStudents:     len(students),
		GradeDistribution: make([]model.Bucket, 0, len(grading.GradeLadder)),
		GenderBreakdown:   make([]model.Bucket, 0, len(grading.Genders)),
		SubjectAverages:   make([]model.SubjectAverage, len(s.scheme.Subjects)),
	}
	for i, subject := range s.scheme.Subjects {
		stats.SubjectAverages[i] = model.SubjectAverage{Subject: subject, Average: averages[i]}
	}

	if len(students) > 0 {
		highest, err := s.store.HighestScorer(ctx)
		if err != nil && !errors.Is(err, repository.ErrStudentNotFound) {
			return nil, fmt.Errorf("highest scorer: %w", err)
		}
		stats.HighestScorer = highest
	}

	grades := map[string]int{}
	genders := map[string]int{}
	var ageSum, pctSum float64
	for _, st := range students {
		grades[string(st.Grade)]++
		genders[st.Gender]++
		ageSum += float64(st.Age)
		pctSum += st.Percentage
	}

	n := len(students)
	share := func(count int) float64 {
		if n == 0 {
			return 0
		}
		return float64(count) / float64(n) * 100
	}
	if n > 0 {
		stats.AverageAge = ageSum / float64(n)
		stats.AveragePercentage = pctSum / float64(n)
	}
	for _, g := range grading.GradeLadder {
		c := grades[string(g)]
		stats.GradeDistribution = append(stats.GradeDistribution, model.Bucket{Label: string(g), Count: c, Share: share(c)})
	}
	for _, g := range grading.Genders {
		c := genders[g]
		stats.GenderBreakdown = append(stats.GenderBreakdown, model.Bucket{Label: grading.GenderLabel(g), Count: c, Share: share(c)})
	}

	if s.cache != nil {
		s.cache.Set(ctx, generation, stats)
	}
	return stats, nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
