package models

import "time"

// Teacher represents a reviewable instructor with database-maintained aggregates.
type Teacher struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Department         *string   `db:"department" json:"department,omitempty"`
	Title              *string   `db:"title" json:"title,omitempty"`
	AvgRating          float64   `db:"avg_rating" json:"avg_rating"`
	ReviewCount        int       `db:"review_count" json:"review_count"`
	RollCallPercentage float64   `db:"roll_call_percentage" json:"roll_call_percentage"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail extends a teacher with read-time aggregations.
type TeacherDetail struct {
	Teacher
	CourseTags        []CourseTagCount `json:"course_tags"`
	RecentReviewCount int              `json:"recent_review_count"`
}

// Teacher sort keys accepted by the listing endpoint.
const (
	TeacherSortName        = "name"
	TeacherSortRating      = "rating"
	TeacherSortReviewCount = "review_count"
)

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
	SortBy     string
}
