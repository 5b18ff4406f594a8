package model

// Bucket counts the students falling into one category.
type Bucket struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // percent of all students
}

// SubjectAverage is the class mean for one subject.
type SubjectAverage struct {
	Subject string  `json:"subject"`
	Average float64 `json:"average"`
}

// Statistics summarizes the whole class.
type Statistics struct {
	TotalStudents     int              `json:"total_students"`
	AverageAge        float64          `json:"average_age"`
	AveragePercentage float64          `json:"average_percentage"`
	HighestScorer     *Student         `json:"highest_scorer"`
	GradeDistribution []Bucket         `json:"grade_distribution"`
	GenderBreakdown   []Bucket         `json:"gender_breakdown"`
	SubjectAverages   []SubjectAverage `json:"subject_averages"`
}
