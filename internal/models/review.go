package models

import "time"

// Vote kinds accepted by the vote endpoint.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Review is an anonymous teacher review. Only the vote counters change after creation.
type Review struct {
	ID            string         `db:"id" json:"id"`
	TeacherID     string         `db:"teacher_id" json:"teacher_id"`
	Rating        float64        `db:"rating" json:"rating"`
	Comment       string         `db:"comment" json:"comment"`
	DoesRollCall  bool           `db:"does_roll_call" json:"does_roll_call"`
	Upvotes       int            `db:"upvotes" json:"upvotes"`
	Downvotes     int            `db:"downvotes" json:"downvotes"`
	SubmitterHash *string        `db:"submitter_hash" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	CourseReviews []CourseReview `db:"-" json:"course_reviews"`
}

// CourseReview is a per-course rating attached to a review.
type CourseReview struct {
	ID            string    `db:"id" json:"id"`
	ReviewID      string    `db:"review_id" json:"review_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	CourseName    *string   `db:"course_name" json:"course_name,omitempty"`
	CourseRating  float64   `db:"course_rating" json:"course_rating"`
	CourseComment *string   `db:"course_comment" json:"course_comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// VoteResult carries the post-update counters of a review.
type VoteResult struct {
	ReviewID  string `db:"id" json:"review_id"`
	Upvotes   int    `db:"upvotes" json:"upvotes"`
	Downvotes int    `db:"downvotes" json:"downvotes"`
}

// ReviewFilter captures listing options for a teacher's reviews.
type ReviewFilter struct {
	TeacherID     string
	CourseID      string
	Page          int
	PageSize      int
	OrderByRecent bool
}

// ReviewSubmission is the validated payload handed to the store in one write.
type ReviewSubmission struct {
	TeacherID     string
	Rating        float64
	Comment       string
	DoesRollCall  bool
	SubmitterHash string
	CourseReviews []CourseReviewInput
	CourseTags    []CourseTagInput
}

// CourseReviewInput references a course by id or by name.
type CourseReviewInput struct {
	CourseID      string
	CourseName    string
	CourseRating  float64
	CourseComment *string
}

// CourseTagInput tags a course without rating it.
type CourseTagInput struct {
	CourseName string
	CourseCode *string
}
