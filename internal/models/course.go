package models

import "time"

// Course is a catalogue entry that reviews may be tagged with.
type Course struct {
	ID         string    `db:"id" json:"id"`
	CourseName string    `db:"course_name" json:"course_name"`
	CourseCode *string   `db:"course_code" json:"course_code,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TeacherCourseAssociation counts how often a course was tagged for a teacher.
type TeacherCourseAssociation struct {
	TeacherID        string `db:"teacher_id" json:"teacher_id"`
	CourseID         string `db:"course_id" json:"course_id"`
	AssociationCount int    `db:"association_count" json:"association_count"`
}

// CourseTagCount is a course joined with its association count for one teacher.
type CourseTagCount struct {
	ID         string  `json:"id"`
	CourseName string  `json:"course_name"`
	CourseCode *string `json:"course_code,omitempty"`
	Count      int     `json:"count"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search            string
	Page              int
	PageSize          int
	OrderByPopularity bool
}
