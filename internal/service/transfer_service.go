package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/transfer"
)

// ExportCSV writes every student in storage order as CSV.
func (s *StudentService) ExportCSV(ctx context.Context, w io.Writer) error {
	students, err := s.store.List(ctx, model.StudentFilter{})
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	return transfer.WriteCSV(w, students, s.scheme.Subjects)
}

// ImportCSV merges the CSV records into the store by roll number. Returns
// the number of records written.
func (s *StudentService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := transfer.ReadCSV(r, s.scheme.Subjects)
	if err != nil {
		return 0, err
	}
	students, err := s.rederive(records)
	if err != nil {
		return 0, err
	}
	if err := s.store.Upsert(ctx, students); err != nil {
		return 0, fmt.Errorf("upsert students: %w", err)
	}
	s.invalidate(ctx)

	s.log.Info().Int("count", len(students)).Msg("CSV imported")
	return len(students), nil
}

// ExportJSON writes every student in storage order as an indented JSON array.
func (s *StudentService) ExportJSON(ctx context.Context, w io.Writer) error {
	students, err := s.store.List(ctx, model.StudentFilter{})
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	return transfer.WriteJSON(w, students)
}

// ImportJSON replaces the whole collection with the records in r. Nothing is
// removed if any record fails validation.
func (s *StudentService) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	records, err := transfer.ReadJSON(r)
	if err != nil {
		return 0, err
	}
	students, err := s.rederive(records)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceAll(ctx, students); err != nil {
		return 0, fmt.Errorf("replace students: %w", err)
	}
	s.invalidate(ctx)

	s.log.Info().Int("count", len(students)).Msg("JSON imported")
	return len(students), nil
}

// ExportXLSX writes a workbook with the student sheet and a statistics sheet.
func (s *StudentService) ExportXLSX(ctx context.Context, w io.Writer) error {
	students, err := s.store.List(ctx, model.StudentFilter{})
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	stats, err := s.Statistics(ctx)
	if err != nil {
		return err
	}
	return transfer.WriteXLSX(w, students, s.scheme.Subjects, stats)
}

// ExportCSVFile writes the CSV export to path.
func (s *StudentService) ExportCSVFile(ctx context.Context, path string) error {
	return writeFile(path, func(w io.Writer) error { return s.ExportCSV(ctx, w) })
}

// ImportCSVFile merges the CSV file at path.
func (s *StudentService) ImportCSVFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.ImportCSV(ctx, f)
}

// ExportJSONFile writes the JSON export to path.
func (s *StudentService) ExportJSONFile(ctx context.Context, path string) error {
	return writeFile(path, func(w io.Writer) error { return s.ExportJSON(ctx, w) })
}

// ImportJSONFile replaces the collection with the JSON file at path.
func (s *StudentService) ImportJSONFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.ImportJSON(ctx, f)
}

// MigrateLegacyJSON merges a legacy JSON data file into the store. A missing
// file is not an error.
func (s *StudentService) MigrateLegacyJSON(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	records, err := transfer.ReadJSON(f)
	if err != nil {
		return 0, err
	}
	students, err := s.rederive(records)
	if err != nil {
		return 0, err
	}
	if err := s.store.Upsert(ctx, students); err != nil {
		return 0, fmt.Errorf("upsert students: %w", err)
	}
	s.invalidate(ctx)

	s.log.Info().Str("path", path).Int("count", len(students)).Msg("Legacy data migrated")
	return len(students), nil
}

// rederive validates imported records and recomputes their derived fields.
// Stored values that disagree with the marks are logged and replaced.
func (s *StudentService) rederive(records []model.Student) ([]model.Student, error) {
	students := make([]model.Student, 0, len(records))
	for i, rec := range records {
		st, err := s.Build(model.StudentInput{
			RollNo: rec.RollNo,
			Name:   rec.Name,
			Age:    rec.Age,
			Gender: rec.Gender,
			Marks:  rec.Marks,
		})
		if err != nil {
			return nil, fmt.Errorf("record %d (roll_no %d): %w", i+1, rec.RollNo, err)
		}
		if rec.Grade != "" && (rec.Grade != st.Grade || !closeEnough(rec.Total, st.Total) || !closeEnough(rec.Percentage, st.Percentage)) {
			s.log.Warn().
				Int("roll_no", rec.RollNo).
				Float64("stored_total", rec.Total).
				Float64("total", st.Total).
				Str("stored_grade", string(rec.Grade)).
				Str("grade", string(st.Grade)).
				Msg("Imported derived fields disagree with marks, recomputed")
		}
		students = append(students, *st)
	}
	return students, nil
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
