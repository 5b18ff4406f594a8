package repository

import "errors"

var (
	ErrDuplicateRollNo = errors.New("student with this roll number already exists")
	ErrStudentNotFound = errors.New("student not found")
)
