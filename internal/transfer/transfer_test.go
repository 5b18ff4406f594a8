package transfer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var subjects = []string{"Math", "Science", "English", "History", "Art"}

func sample() []model.Student {
	return []model.Student{
		{RollNo: 1, Name: "John Doe", Age: 20, Gender: "M", Marks: []float64{80, 90, 85, 75, 70}, Total: 400, Percentage: 80, Grade: grading.GradeA},
		{RollNo: 2, Name: "Jane Roe", Age: 19, Gender: "F", Marks: []float64{85, 95, 80, 80, 75.5}, Total: 415.5, Percentage: 83.1, Grade: grading.GradeA},
	}
}

func TestWriteCSVLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample(), subjects))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "roll_no,name,age,gender,Math,Science,English,History,Art,total,percentage,grade", lines[0])
	assert.Equal(t, "1,John Doe,20,M,80,90,85,75,70,400,80,A", lines[1])
	assert.Equal(t, "2,Jane Roe,19,F,85,95,80,80,75.5,415.5,83.1,A", lines[2])
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample(), subjects))

	got, err := ReadCSV(&buf, subjects)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReadCSVReorderedColumnsWithoutDerived(t *testing.T) {
	in := "name,roll_no,gender,age,Art,History,English,Science,Math\n" +
		"Ada Lovelace,7,F,36,70,75,85,90,80\n"
	got, err := ReadCSV(strings.NewReader(in), subjects)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].RollNo)
	assert.Equal(t, []float64{80, 90, 85, 75, 70}, got[0].Marks)
	assert.Zero(t, got[0].Total)
	assert.Equal(t, grading.Grade(""), got[0].Grade)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"missing subject column", "roll_no,name,age,gender,Math\n1,A,1,M,1\n", `missing column "Science"`},
		{"bad roll number", "roll_no,name,age,gender,Math,Science,English,History,Art\nx,A,1,M,1,1,1,1,1\n", "line 2: roll_no"},
		{"bad mark", "roll_no,name,age,gender,Math,Science,English,History,Art\n1,A,1,M,1,abc,1,1,1\n", "Science"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), subjects)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	got, err := ReadCSV(strings.NewReader(""), subjects)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))
	assert.Contains(t, buf.String(), `"marks": [`)
	assert.NotContains(t, buf.String(), "created_at")

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	_, err = ReadJSON(strings.NewReader(`{"roll_no": 1}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWriteXLSX(t *testing.T) {
	stats := &model.Statistics{
		TotalStudents:     2,
		GradeDistribution: []model.Bucket{{Label: "A", Count: 2, Share: 100}},
		SubjectAverages:   []model.SubjectAverage{{Subject: "Math", Average: 82.5}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample(), subjects, stats))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{studentsSheet, statisticsSheet}, f.GetSheetList())

	rows, err := f.GetRows(studentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header(subjects), rows[0])
	assert.Equal(t, "John Doe", rows[1][1])

	v, err := f.GetCellValue(statisticsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
